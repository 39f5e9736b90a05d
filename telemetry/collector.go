package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float32

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	shotsFired       int
	shotsLimited     int
	hits             int
	shipImpacts      int
	fractures        int
	offspring        int
	offspringSkipped int
	discoveries      int
	burnPulses       int
	burnDamage       float64
	damageDealt      float64
	poolExhausted    int
	wavesStarted     int
	fallbacks        int
	scoreDelta       int64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := uint64(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record routes a simulation event into the window counters.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventShotFired:
		c.shotsFired++
	case EventShotRateLimited:
		c.shotsLimited++
	case EventHit:
		c.hits++
		c.damageDealt += float64(ev.Amount)
	case EventShipImpact:
		c.shipImpacts++
	case EventFracture:
		c.fractures++
		c.offspring += ev.Count
	case EventOffspringSkipped:
		c.offspringSkipped++
	case EventDiscovery:
		c.discoveries++
	case EventBurnPulse:
		c.burnPulses++
		c.burnDamage += float64(ev.Amount)
		c.damageDealt += float64(ev.Amount)
	case EventPoolExhausted:
		c.poolExhausted++
	}
}

// RecordWave records a completed wave spawn batch.
func (c *Collector) RecordWave(spawned, fallbacks int) {
	c.wavesStarted++
	c.fallbacks += fallbacks
}

// RecordScore adds points awarded during the window.
func (c *Collector) RecordScore(points int64) {
	c.scoreDelta += points
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// PopulationSample holds the live state the collector cannot see on its own.
// The caller samples it at window end.
type PopulationSample struct {
	Fragments   int
	Projectiles int
	Wave        int
	Score       int64

	// Trait values across the live fragment population
	SpeedMods []float64
	SizeMods  []float64

	// Ledger summary
	DistinctSignatures int
	MaxGeneration      int32
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, pop PopulationSample) WindowStats {
	var hitRate float64
	if c.shotsFired > 0 {
		hitRate = float64(c.hits) / float64(c.shotsFired)
	}

	speed := SummarizeTraits(pop.SpeedMods)
	size := SummarizeTraits(pop.SizeMods)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Wave:        pop.Wave,
		Score:       pop.Score,
		Fragments:   pop.Fragments,
		Projectiles: pop.Projectiles,

		ShotsFired:   c.shotsFired,
		ShotsLimited: c.shotsLimited,
		Hits:         c.hits,
		HitRate:      hitRate,
		ShipImpacts:  c.shipImpacts,

		Fractures:        c.fractures,
		Offspring:        c.offspring,
		OffspringSkipped: c.offspringSkipped,
		PoolExhausted:    c.poolExhausted,

		Discoveries:        c.discoveries,
		DistinctSignatures: pop.DistinctSignatures,
		MaxGeneration:      pop.MaxGeneration,

		BurnPulses:  c.burnPulses,
		BurnDamage:  c.burnDamage,
		DamageDealt: c.damageDealt,
		ScoreDelta:  c.scoreDelta,

		WavesStarted:       c.wavesStarted,
		FallbackPlacements: c.fallbacks,

		SpeedModMean: speed.Mean,
		SpeedModStd:  speed.Std,
		SpeedModP10:  speed.P10,
		SpeedModP50:  speed.P50,
		SpeedModP90:  speed.P90,

		SizeModMean: size.Mean,
		SizeModStd:  size.Std,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.shotsFired = 0
	c.shotsLimited = 0
	c.hits = 0
	c.shipImpacts = 0
	c.fractures = 0
	c.offspring = 0
	c.offspringSkipped = 0
	c.discoveries = 0
	c.burnPulses = 0
	c.burnDamage = 0
	c.damageDealt = 0
	c.poolExhausted = 0
	c.wavesStarted = 0
	c.fallbacks = 0
	c.scoreDelta = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
