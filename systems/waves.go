package systems

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
)

// WaveSpawnerName is the registry name for the wave spawner.
const WaveSpawnerName = "waves"

// waveSizePools rotates the spawn size mix as waves harden: early waves
// lean on large fragments, later waves on small fast ones.
var waveSizePools = [][]uint8{
	{3, 3, 2, 2, 1},
	{3, 2, 2, 1, 1},
	{2, 2, 1, 1, 1},
	{2, 1, 1, 1, 1},
}

// WaveConfig describes one wave's spawn parameters.
type WaveConfig struct {
	Index      int
	Count      int
	SpeedMult  float32
	SizePool   []uint8
	SafeRadius float32
}

// WaveEvent announces a completed wave spawn.
type WaveEvent struct {
	Index     int
	Requested int
	Spawned   int
	Fallbacks int
}

// Difficulty computes the spawn parameters for a wave index. Scripted
// waves grow by a fixed count step up to a cap; past the scripted set the
// count climbs again toward a higher extended cap. Speed rises with the
// index until its own cap, and survival runs harden everything further.
func Difficulty(index int) WaveConfig {
	cfg := config.Cfg()
	w := cfg.Waves
	if index < 1 {
		index = 1
	}

	count := w.BaseCount + w.CountStep*(index-1)
	if count > w.CountCap {
		count = w.CountCap
	}
	if index > w.ScriptedWaves {
		count = w.CountCap + w.ExtendedStep*(index-w.ScriptedWaves)
		if count > w.ExtendedCap {
			count = w.ExtendedCap
		}
	}

	speed := 1.0 + w.SpeedStep*float64(index-1)
	if w.SpeedCap > 0 && speed > w.SpeedCap {
		speed = w.SpeedCap
	}

	poolIdx := (index - 1) / 2
	if poolIdx >= len(waveSizePools) {
		poolIdx = len(waveSizePools) - 1
	}
	pool := make([]uint8, len(waveSizePools[poolIdx]))
	copy(pool, waveSizePools[poolIdx])

	safe := w.SafeRadius
	if w.Survival {
		speed *= w.SurvivalSpeedFactor
		count = int(float64(count) * w.SurvivalCountFactor)
		safe = w.SurvivalSafeRadius
	}

	return WaveConfig{
		Index:      index,
		Count:      count,
		SpeedMult:  float32(speed),
		SizePool:   pool,
		SafeRadius: float32(safe),
	}
}

// WaveSpawner drives wave progression: it spawns root fragments outside a
// safe haven around the reference point, watches for the arena to clear,
// and schedules the next wave after a delay.
type WaveSpawner struct {
	em  *EntityManager
	fs  *FractureSystem
	rng *rand.Rand

	wave       int
	refX, refY float32
	hasRef     bool

	waiting bool
	delay   float32

	spawnedTotal  uint64
	fallbackTotal uint64
	wavesTotal    uint64

	waveHooks []func(WaveEvent)
}

// NewWaveSpawner creates a wave spawner. Fragments enter the world
// through the fracture system so the lineage ledger sees them.
func NewWaveSpawner(em *EntityManager, fs *FractureSystem, rng *rand.Rand) *WaveSpawner {
	return &WaveSpawner{em: em, fs: fs, rng: rng}
}

// Name returns the registry name.
func (s *WaveSpawner) Name() string { return WaveSpawnerName }

// Init prepares the spawner. Waves start on demand via Start.
func (s *WaveSpawner) Init() error { return nil }

// OnWave registers a hook invoked after each wave spawn.
func (s *WaveSpawner) OnWave(fn func(WaveEvent)) {
	s.waveHooks = append(s.waveHooks, fn)
}

// SetReference moves the safe-haven center, normally the ship's position.
// Without a reference the arena center is used.
func (s *WaveSpawner) SetReference(x, y float32) {
	s.refX, s.refY = x, y
	s.hasRef = true
}

// Wave returns the current wave index, zero before Start.
func (s *WaveSpawner) Wave() int { return s.wave }

// Countdown returns the seconds until the next wave spawns, zero when a
// wave is in progress.
func (s *WaveSpawner) Countdown() float32 {
	if !s.waiting {
		return 0
	}
	return s.delay
}

// Start spawns the first wave. No-op if waves are already running.
func (s *WaveSpawner) Start() {
	if s.wave != 0 {
		return
	}
	s.advance()
}

// SetWave forces the wave index without spawning, used when restoring a
// saved run whose fragments are restored separately.
func (s *WaveSpawner) SetWave(index int) {
	s.wave = index
	s.waiting = false
	s.delay = 0
}

// Reset returns the spawner to its pre-start state.
func (s *WaveSpawner) Reset() {
	s.wave = 0
	s.waiting = false
	s.delay = 0
}

// Tick watches for a cleared arena and schedules the next wave.
func (s *WaveSpawner) Tick(dt float32) {
	if s.wave == 0 {
		return
	}
	if s.waiting {
		s.delay -= dt
		if s.delay <= 0 {
			s.waiting = false
			s.advance()
		}
		return
	}
	if s.em.Count(components.KindFragment) == 0 {
		s.waiting = true
		s.delay = float32(config.Cfg().Waves.SpawnDelay)
	}
}

// Shutdown resets wave state.
func (s *WaveSpawner) Shutdown() {
	s.Reset()
}

func (s *WaveSpawner) advance() {
	s.wave++
	s.SpawnWave(Difficulty(s.wave))
}

// SpawnWave spawns one wave of root fragments. Each fragment is placed
// outside the safe haven around the reference point, with a random drift
// heading scaled by the wave's speed multiplier. A full fragment pool
// ends the spawn early; the wave keeps whatever fit. Returns the number
// of fragments actually spawned.
func (s *WaveSpawner) SpawnWave(cfg WaveConfig) (int, error) {
	if cfg.Count < 0 {
		return 0, fmt.Errorf("wave count %d: %w", cfg.Count, ErrInvalidArgument)
	}
	if cfg.Count > 0 && len(cfg.SizePool) == 0 {
		return 0, fmt.Errorf("wave with empty size pool: %w", ErrInvalidArgument)
	}

	conf := config.Cfg()
	refX, refY := s.refX, s.refY
	if !s.hasRef {
		refX, refY = conf.Derived.ArenaW32/2, conf.Derived.ArenaH32/2
	}
	required := cfg.SafeRadius + float32(conf.Waves.SafetyMargin)

	spawned := 0
	fallbacks := 0
	for i := 0; i < cfg.Count; i++ {
		size := cfg.SizePool[s.rng.Intn(len(cfg.SizePool))]

		pos, err := s.placeInHaven(refX, refY, required)
		if err != nil {
			if !errors.Is(err, ErrZoneUnsatisfiable) {
				return spawned, err
			}
			// Random placement failed; fall back to a deterministic spot.
			pos = s.fallbackPlacement(refX, refY, required)
			fallbacks++
		}

		angle := s.rng.Float32() * 2 * math.Pi
		speed := randRange(s.rng, float32(conf.Waves.DriftMin), float32(conf.Waves.DriftMax)) * cfg.SpeedMult
		vel := components.Velocity{
			X: float32(math.Cos(float64(angle))) * speed,
			Y: float32(math.Sin(float64(angle))) * speed,
		}

		if _, err := s.fs.SpawnRoot(size, pos, vel); err != nil {
			if errors.Is(err, ErrPoolExhausted) {
				break
			}
			return spawned, err
		}
		spawned++
	}

	s.wavesTotal++
	s.spawnedTotal += uint64(spawned)
	s.fallbackTotal += uint64(fallbacks)

	event := WaveEvent{Index: cfg.Index, Requested: cfg.Count, Spawned: spawned, Fallbacks: fallbacks}
	for _, hook := range s.waveHooks {
		hook(event)
	}
	return spawned, nil
}

// placeInHaven tries random in-bounds positions until one clears the
// required distance from the reference point. Distances are measured
// straight-line; the haven is a screen-space bubble, not a toroidal one.
func (s *WaveSpawner) placeInHaven(refX, refY, required float32) (components.Position, error) {
	cfg := config.Cfg()
	margin := float32(cfg.Arena.Margin)
	w, h := cfg.Derived.ArenaW32, cfg.Derived.ArenaH32

	attempts := cfg.Waves.PlacementAttempts
	for i := 0; i < attempts; i++ {
		x := randRange(s.rng, margin, w-margin)
		y := randRange(s.rng, margin, h-margin)
		if distance(x, y, refX, refY) > required {
			return components.Position{X: x, Y: y}, nil
		}
	}
	return components.Position{}, fmt.Errorf("no spot outside radius %.1f after %d attempts: %w", required, attempts, ErrZoneUnsatisfiable)
}

// fallbackPlacement picks a deterministic spot when random placement
// fails: the first arena edge midpoint outside the haven, in fixed
// top, bottom, left, right order, or failing even that, the corner
// farthest from the reference point.
func (s *WaveSpawner) fallbackPlacement(refX, refY, required float32) components.Position {
	cfg := config.Cfg()
	margin := float32(cfg.Arena.Margin)
	w, h := cfg.Derived.ArenaW32, cfg.Derived.ArenaH32

	midpoints := [4]components.Position{
		{X: w / 2, Y: margin},
		{X: w / 2, Y: h - margin},
		{X: margin, Y: h / 2},
		{X: w - margin, Y: h / 2},
	}
	for _, p := range midpoints {
		if distance(p.X, p.Y, refX, refY) > required {
			return p
		}
	}

	corners := [4]components.Position{
		{X: margin, Y: margin},
		{X: w - margin, Y: margin},
		{X: margin, Y: h - margin},
		{X: w - margin, Y: h - margin},
	}
	best := corners[0]
	bestDistSq := float32(-1)
	for _, c := range corners {
		d := distanceSq(c.X, c.Y, refX, refY)
		if d > bestDistSq {
			best = c
			bestDistSq = d
		}
	}
	return best
}

// Status reports wave progression and placement totals.
func (s *WaveSpawner) Status() Status {
	st := NewStatus(WaveSpawnerName)
	st.Counts["wave"] = s.wave
	st.Counts["live_fragments"] = s.em.Count(components.KindFragment)
	st.Counts["spawned_total"] = int(s.spawnedTotal)
	st.Counts["fallback_total"] = int(s.fallbackTotal)
	st.Counts["waves_total"] = int(s.wavesTotal)
	st.Gauges["countdown"] = float64(s.Countdown())
	return st
}
