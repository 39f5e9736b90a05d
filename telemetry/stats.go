package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Run state at window end
	Wave        int   `csv:"wave"`
	Score       int64 `csv:"score"`
	Fragments   int   `csv:"fragments"`
	Projectiles int   `csv:"projectiles"`

	// Shooting
	ShotsFired   int     `csv:"shots_fired"`
	ShotsLimited int     `csv:"shots_limited"`
	Hits         int     `csv:"hits"`
	HitRate      float64 `csv:"hit_rate"`
	ShipImpacts  int     `csv:"ship_impacts"`

	// Destruction cascade
	Fractures        int `csv:"fractures"`
	Offspring        int `csv:"offspring"`
	OffspringSkipped int `csv:"offspring_skipped"`
	PoolExhausted    int `csv:"pool_exhausted"`

	// Lineage
	Discoveries        int   `csv:"discoveries"`
	DistinctSignatures int   `csv:"distinct_signatures"`
	MaxGeneration      int32 `csv:"max_generation"`

	// Damage accounting
	BurnPulses  int     `csv:"burn_pulses"`
	BurnDamage  float64 `csv:"burn_damage"`
	DamageDealt float64 `csv:"damage_dealt"`
	ScoreDelta  int64   `csv:"score_delta"`

	// Spawning
	WavesStarted       int `csv:"waves_started"`
	FallbackPlacements int `csv:"fallback_placements"`

	// Trait drift across the live population (sampled at window end)
	SpeedModMean float64 `csv:"speed_mod_mean"`
	SpeedModStd  float64 `csv:"speed_mod_std"`
	SpeedModP10  float64 `csv:"speed_mod_p10"`
	SpeedModP50  float64 `csv:"speed_mod_p50"`
	SpeedModP90  float64 `csv:"speed_mod_p90"`

	SizeModMean float64 `csv:"size_mod_mean"`
	SizeModStd  float64 `csv:"size_mod_std"`
}

// TraitSummary aggregates one trait's distribution across the population.
type TraitSummary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P10  float64
	P50  float64
	P90  float64
}

// SummarizeTraits computes the distribution summary for a trait sample.
// Returns the zero summary for an empty sample.
func SummarizeTraits(values []float64) TraitSummary {
	n := len(values)
	if n == 0 {
		return TraitSummary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s := TraitSummary{
		Mean: stat.Mean(sorted, nil),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
	if n > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("wave", s.Wave),
		slog.Int64("score", s.Score),
		slog.Int("fragments", s.Fragments),
		slog.Int("projectiles", s.Projectiles),
		slog.Int("shots_fired", s.ShotsFired),
		slog.Int("shots_limited", s.ShotsLimited),
		slog.Int("hits", s.Hits),
		slog.Float64("hit_rate", s.HitRate),
		slog.Int("ship_impacts", s.ShipImpacts),
		slog.Int("fractures", s.Fractures),
		slog.Int("offspring", s.Offspring),
		slog.Int("offspring_skipped", s.OffspringSkipped),
		slog.Int("pool_exhausted", s.PoolExhausted),
		slog.Int("discoveries", s.Discoveries),
		slog.Int("distinct_signatures", s.DistinctSignatures),
		slog.Int("max_generation", int(s.MaxGeneration)),
		slog.Int("burn_pulses", s.BurnPulses),
		slog.Float64("burn_damage", s.BurnDamage),
		slog.Float64("damage_dealt", s.DamageDealt),
		slog.Int64("score_delta", s.ScoreDelta),
		slog.Int("waves_started", s.WavesStarted),
		slog.Int("fallback_placements", s.FallbackPlacements),
		slog.Float64("speed_mod_mean", s.SpeedModMean),
		slog.Float64("speed_mod_std", s.SpeedModStd),
		slog.Float64("speed_mod_p10", s.SpeedModP10),
		slog.Float64("speed_mod_p50", s.SpeedModP50),
		slog.Float64("speed_mod_p90", s.SpeedModP90),
		slog.Float64("size_mod_mean", s.SizeModMean),
		slog.Float64("size_mod_std", s.SizeModStd),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"wave", s.Wave,
		"score", s.Score,
		"fragments", s.Fragments,
		"projectiles", s.Projectiles,
		"shots_fired", s.ShotsFired,
		"shots_limited", s.ShotsLimited,
		"hits", s.Hits,
		"hit_rate", s.HitRate,
		"ship_impacts", s.ShipImpacts,
		"fractures", s.Fractures,
		"offspring", s.Offspring,
		"offspring_skipped", s.OffspringSkipped,
		"pool_exhausted", s.PoolExhausted,
		"discoveries", s.Discoveries,
		"distinct_signatures", s.DistinctSignatures,
		"max_generation", s.MaxGeneration,
		"burn_pulses", s.BurnPulses,
		"burn_damage", s.BurnDamage,
		"damage_dealt", s.DamageDealt,
		"score_delta", s.ScoreDelta,
		"waves_started", s.WavesStarted,
		"fallback_placements", s.FallbackPlacements,
		"speed_mod_mean", s.SpeedModMean,
		"speed_mod_std", s.SpeedModStd,
		"speed_mod_p50", s.SpeedModP50,
		"size_mod_mean", s.SizeModMean,
		"size_mod_std", s.SizeModStd,
	)
}
