package telemetry

// WaveStats accumulates statistics for one wave while it runs.
type WaveStats struct {
	Index     int
	StartTick uint64
	Spawned   int
	Fallbacks int

	ShotsFired    int
	Hits          int
	Fractures     int
	ScoreDelta    int64
	PeakFragments int
}

// WaveRecord is the closed-out row written to waves.csv.
type WaveRecord struct {
	Index         int     `csv:"wave"`
	StartTick     uint64  `csv:"start_tick"`
	EndTick       uint64  `csv:"end_tick"`
	DurationSec   float64 `csv:"duration_sec"`
	Spawned       int     `csv:"spawned"`
	Fallbacks     int     `csv:"fallbacks"`
	ShotsFired    int     `csv:"shots_fired"`
	Hits          int     `csv:"hits"`
	Accuracy      float64 `csv:"accuracy"`
	Fractures     int     `csv:"fractures"`
	ScoreDelta    int64   `csv:"score_delta"`
	PeakFragments int     `csv:"peak_fragments"`
}

// WaveTracker manages per-wave statistics keyed by wave index.
type WaveTracker struct {
	waves   map[int]*WaveStats
	current int
}

// NewWaveTracker creates a new wave tracker.
func NewWaveTracker() *WaveTracker {
	return &WaveTracker{
		waves: make(map[int]*WaveStats),
	}
}

// Begin opens stats for a newly spawned wave and makes it current.
func (wt *WaveTracker) Begin(index int, tick uint64, spawned, fallbacks int) {
	wt.waves[index] = &WaveStats{
		Index:         index,
		StartTick:     tick,
		Spawned:       spawned,
		Fallbacks:     fallbacks,
		PeakFragments: spawned,
	}
	wt.current = index
}

// Current returns the stats for the wave in progress, or nil before the
// first wave.
func (wt *WaveTracker) Current() *WaveStats {
	return wt.waves[wt.current]
}

// RecordShot increments the current wave's shot count.
func (wt *WaveTracker) RecordShot() {
	if s := wt.waves[wt.current]; s != nil {
		s.ShotsFired++
	}
}

// RecordHit increments the current wave's hit count.
func (wt *WaveTracker) RecordHit() {
	if s := wt.waves[wt.current]; s != nil {
		s.Hits++
	}
}

// RecordFracture increments the current wave's fracture count.
func (wt *WaveTracker) RecordFracture() {
	if s := wt.waves[wt.current]; s != nil {
		s.Fractures++
	}
}

// RecordScore adds points awarded during the current wave.
func (wt *WaveTracker) RecordScore(points int64) {
	if s := wt.waves[wt.current]; s != nil {
		s.ScoreDelta += points
	}
}

// ObserveFragments tracks the peak live fragment count during the wave.
func (wt *WaveTracker) ObserveFragments(count int) {
	if s := wt.waves[wt.current]; s != nil && count > s.PeakFragments {
		s.PeakFragments = count
	}
}

// Close finalizes a wave's stats into a record and removes the entry.
// Returns nil if the wave was never begun.
func (wt *WaveTracker) Close(index int, tick uint64, dt float32) *WaveRecord {
	s := wt.waves[index]
	if s == nil {
		return nil
	}
	delete(wt.waves, index)

	var accuracy float64
	if s.ShotsFired > 0 {
		accuracy = float64(s.Hits) / float64(s.ShotsFired)
	}

	return &WaveRecord{
		Index:         s.Index,
		StartTick:     s.StartTick,
		EndTick:       tick,
		DurationSec:   float64(tick-s.StartTick) * float64(dt),
		Spawned:       s.Spawned,
		Fallbacks:     s.Fallbacks,
		ShotsFired:    s.ShotsFired,
		Hits:          s.Hits,
		Accuracy:      accuracy,
		Fractures:     s.Fractures,
		ScoreDelta:    s.ScoreDelta,
		PeakFragments: s.PeakFragments,
	}
}

// Count returns the number of open waves.
func (wt *WaveTracker) Count() int {
	return len(wt.waves)
}
