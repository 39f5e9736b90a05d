package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pthm-cable/rubble/systems"
)

// Record book categories. Each keeps its own top list with its own
// fitness measure.
const (
	BookDeepest  = "deepest"  // highest generation reached
	BookFastest  = "fastest"  // highest speed modifier
	BookHeaviest = "heaviest" // highest mass modifier
)

// LineageRecord is one notable lineage discovery in the record book.
type LineageRecord struct {
	Signature     string  `json:"signature"`
	Generation    int32   `json:"generation"`
	SpeedMod      float32 `json:"speed_mod"`
	SizeMod       float32 `json:"size_mod"`
	MassMod       float32 `json:"mass_mod"`
	ColorShift    int16   `json:"color_shift"`
	FirstSeenTick uint64  `json:"first_seen_tick"`
	Fitness       float32 `json:"fitness"`
}

// RecordBook stores the most notable lineages seen during a run, one
// sorted top list per category.
type RecordBook struct {
	books   map[string][]LineageRecord
	maxSize int
}

// NewRecordBook creates a record book keeping up to maxSize entries per
// category.
func NewRecordBook(maxSize int) *RecordBook {
	if maxSize < 1 {
		maxSize = 10
	}
	books := make(map[string][]LineageRecord, 3)
	for _, name := range []string{BookDeepest, BookFastest, BookHeaviest} {
		books[name] = make([]LineageRecord, 0, maxSize)
	}
	return &RecordBook{
		books:   books,
		maxSize: maxSize,
	}
}

// Consider evaluates a discovery for every category.
// Returns true if it entered at least one book.
func (rb *RecordBook) Consider(d systems.Discovery) bool {
	added := false
	for name := range rb.books {
		fitness, ok := bookFitness(name, d)
		if !ok {
			continue
		}
		rec := LineageRecord{
			Signature:     fmt.Sprintf("%016x", d.Signature),
			Generation:    d.Traits.Generation,
			SpeedMod:      d.Traits.SpeedMod,
			SizeMod:       d.Traits.SizeMod,
			MassMod:       d.Traits.MassMod,
			ColorShift:    d.Traits.ColorShift,
			FirstSeenTick: d.Tick,
			Fitness:       fitness,
		}
		if rb.insert(name, rec) {
			added = true
		}
	}
	return added
}

// bookFitness computes a discovery's fitness for one category.
// ok is false when the discovery does not qualify at all.
func bookFitness(book string, d systems.Discovery) (fitness float32, ok bool) {
	switch book {
	case BookDeepest:
		// Neutral roots all share generation 0; only descendants count.
		return float32(d.Traits.Generation), d.Traits.Generation >= 1
	case BookFastest:
		return d.Traits.SpeedMod, d.Traits.SpeedMod > 1.0
	case BookHeaviest:
		return d.Traits.MassMod, d.Traits.MassMod > 1.0
	}
	return 0, false
}

// insert adds a record to a book, maintaining sorted order by fitness.
// If the book is full, the lowest-fitness record is dropped.
func (rb *RecordBook) insert(book string, rec LineageRecord) bool {
	entries := rb.books[book]

	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].Fitness < rec.Fitness
	})

	// Full book and the record would land past the end: skip it
	if len(entries) >= rb.maxSize && idx >= rb.maxSize {
		return false
	}

	entries = append(entries, LineageRecord{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = rec

	if len(entries) > rb.maxSize {
		entries = entries[:rb.maxSize]
	}

	rb.books[book] = entries
	return true
}

// Size returns the number of records in a category.
func (rb *RecordBook) Size(book string) int {
	return len(rb.books[book])
}

// Top returns the best record in a category, or false when empty.
func (rb *RecordBook) Top(book string) (LineageRecord, bool) {
	entries := rb.books[book]
	if len(entries) == 0 {
		return LineageRecord{}, false
	}
	return entries[0], true
}

// MarshalJSON serializes the record book keyed by category name.
func (rb *RecordBook) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(rb.books, "", "  ")
}

// DiscoveryRecord is the row written to discoveries.csv for each new
// trait signature.
type DiscoveryRecord struct {
	Tick       uint64  `csv:"tick"`
	Signature  string  `csv:"signature"`
	Generation int32   `csv:"generation"`
	SpeedMod   float32 `csv:"speed_mod"`
	SizeMod    float32 `csv:"size_mod"`
	MassMod    float32 `csv:"mass_mod"`
	ColorShift int16   `csv:"color_shift"`
}

// NewDiscoveryRecord converts a ledger discovery into its CSV row.
func NewDiscoveryRecord(d systems.Discovery) DiscoveryRecord {
	return DiscoveryRecord{
		Tick:       d.Tick,
		Signature:  fmt.Sprintf("%016x", d.Signature),
		Generation: d.Traits.Generation,
		SpeedMod:   d.Traits.SpeedMod,
		SizeMod:    d.Traits.SizeMod,
		MassMod:    d.Traits.MassMod,
		ColorShift: d.Traits.ColorShift,
	}
}
