package telemetry

import (
	"fmt"
	"log/slog"
)

// HighlightType identifies the type of highlight.
type HighlightType string

const (
	HighlightSharpshooter  HighlightType = "sharpshooter"
	HighlightCascadeChain  HighlightType = "cascade_chain"
	HighlightLineageBloom  HighlightType = "lineage_bloom"
	HighlightSwarmCollapse HighlightType = "swarm_collapse"
	HighlightWaveMilestone HighlightType = "wave_milestone"
)

// Highlight represents an automatically detected notable moment.
type Highlight struct {
	Type        HighlightType `csv:"type" json:"type"`
	Tick        uint64        `csv:"tick" json:"tick"`
	Description string        `csv:"description" json:"description"`
}

// LogHighlight logs the highlight using slog.
func (h Highlight) LogHighlight() {
	slog.Info("highlight",
		"type", string(h.Type),
		"tick", h.Tick,
		"description", h.Description,
	)
}

// HighlightDetector detects interesting moments in the run.
type HighlightDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentFragPeak int // peak fragment count in recent history
	lastMilestone  int // last wave milestone announced
}

// NewHighlightDetector creates a detector with the given history size.
func NewHighlightDetector(historySize int) *HighlightDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &HighlightDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered highlights.
func (hd *HighlightDetector) Check(stats WindowStats) []Highlight {
	var highlights []Highlight

	if hd.historyFull || hd.historyIdx > 0 {
		// Sharpshooter: hit rate > 2x rolling average
		if h := hd.checkSharpshooter(stats); h != nil {
			highlights = append(highlights, *h)
		}

		// Cascade chain: fractures > 2x rolling average
		if h := hd.checkCascadeChain(stats); h != nil {
			highlights = append(highlights, *h)
		}

		// Lineage bloom: discoveries > 2x rolling average
		if h := hd.checkLineageBloom(stats); h != nil {
			highlights = append(highlights, *h)
		}

		// Swarm collapse: fragment count more than halved from recent peak
		if h := hd.checkSwarmCollapse(stats); h != nil {
			highlights = append(highlights, *h)
		}
	}

	// Wave milestone needs no history
	if h := hd.checkWaveMilestone(stats); h != nil {
		highlights = append(highlights, *h)
	}

	// Update history
	hd.addToHistory(stats)

	// Track fragment peak
	if stats.Fragments > hd.recentFragPeak {
		hd.recentFragPeak = stats.Fragments
	}

	return highlights
}

func (hd *HighlightDetector) addToHistory(stats WindowStats) {
	hd.history[hd.historyIdx] = stats
	hd.historyIdx = (hd.historyIdx + 1) % hd.historySize
	if hd.historyIdx == 0 {
		hd.historyFull = true
	}
}

func (hd *HighlightDetector) getHistory() []WindowStats {
	if hd.historyFull {
		return hd.history
	}
	return hd.history[:hd.historyIdx]
}

func (hd *HighlightDetector) checkSharpshooter(stats WindowStats) *Highlight {
	history := hd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Calculate rolling average hit rate
	var totalShots, totalHits int
	for _, h := range history {
		totalShots += h.ShotsFired
		totalHits += h.Hits
	}

	if totalShots == 0 || stats.ShotsFired == 0 {
		return nil
	}

	avgHitRate := float64(totalHits) / float64(totalShots)
	if avgHitRate == 0 {
		return nil
	}

	if stats.HitRate > avgHitRate*2.0 && stats.Hits >= 3 {
		return &Highlight{
			Type:        HighlightSharpshooter,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Hit rate %.2f is %.1fx average (%.2f)", stats.HitRate, stats.HitRate/avgHitRate, avgHitRate),
		}
	}

	return nil
}

func (hd *HighlightDetector) checkCascadeChain(stats WindowStats) *Highlight {
	history := hd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalFractures int
	for _, h := range history {
		totalFractures += h.Fractures
	}
	avgFractures := float64(totalFractures) / float64(len(history))

	if avgFractures == 0 {
		return nil
	}

	if float64(stats.Fractures) > avgFractures*2.0 && stats.Fractures >= 5 {
		return &Highlight{
			Type:        HighlightCascadeChain,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d fractures is %.1fx average (%.1f)", stats.Fractures, float64(stats.Fractures)/avgFractures, avgFractures),
		}
	}

	return nil
}

func (hd *HighlightDetector) checkLineageBloom(stats WindowStats) *Highlight {
	history := hd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalDiscoveries int
	for _, h := range history {
		totalDiscoveries += h.Discoveries
	}
	avgDiscoveries := float64(totalDiscoveries) / float64(len(history))

	if avgDiscoveries == 0 {
		return nil
	}

	if float64(stats.Discoveries) > avgDiscoveries*2.0 && stats.Discoveries >= 4 {
		return &Highlight{
			Type:        HighlightLineageBloom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d new trait signatures is %.1fx average (%.1f)", stats.Discoveries, float64(stats.Discoveries)/avgDiscoveries, avgDiscoveries),
		}
	}

	return nil
}

func (hd *HighlightDetector) checkSwarmCollapse(stats WindowStats) *Highlight {
	if hd.recentFragPeak < 8 {
		return nil
	}

	if stats.Fragments*2 < hd.recentFragPeak {
		oldPeak := hd.recentFragPeak
		hd.recentFragPeak = stats.Fragments

		return &Highlight{
			Type:        HighlightSwarmCollapse,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Swarm thinned from %d to %d fragments", oldPeak, stats.Fragments),
		}
	}

	return nil
}

func (hd *HighlightDetector) checkWaveMilestone(stats WindowStats) *Highlight {
	if stats.Wave < hd.lastMilestone+5 {
		return nil
	}

	hd.lastMilestone = (stats.Wave / 5) * 5
	return &Highlight{
		Type:        HighlightWaveMilestone,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Reached wave %d", stats.Wave),
	}
}
