// Package game composes the six simulation systems into a fixed-timestep
// driving loop, dispatches intents, and exposes the read-only frame
// snapshot the render layer consumes.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/camera"
	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/systems"
	"github.com/pthm-cable/rubble/telemetry"
)

// Options configures a game session.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	SnapshotDir    string
	OutputDir      string
	StepsPerUpdate int
}

// Game holds the complete simulation state and drives the systems in
// dependency order: entities, collision, projectiles, status, fracture,
// waves, debris.
type Game struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	registry    *systems.SystemRegistry
	entities    *systems.EntityManager
	collision   *systems.CollisionSystem
	projectiles *systems.ProjectileSystem
	status      *systems.StatusSystem
	fracture    *systems.FractureSystem
	waves       *systems.WaveSpawner
	debris      *systems.DebrisSystem

	ship ecs.Entity

	tick  uint64
	score int64

	// Control inputs latched by intents, consumed each integrate phase.
	thrustInput float32
	turnInput   float32

	paused         bool
	stepsPerUpdate int
	headless       bool

	// Telemetry
	collector  *telemetry.Collector
	perf       *telemetry.PerfCollector
	output     *telemetry.OutputManager
	waveLog    *telemetry.WaveTracker
	highlights *telemetry.HighlightDetector
	records    *telemetry.RecordBook
	logStats   bool

	snapshotDir   string
	sinceSnapshot float32

	// Viewer state
	camera     *camera.Camera
	outlines   *outlineCache
	followShip bool
	debugMode  bool
}

// Collision group names.
const (
	GroupFragments   = "fragments"
	GroupProjectiles = "projectiles"
	GroupShip        = "ship"
)

// NewGameWithOptions creates a fully wired game session. Config must be
// initialized first.
func NewGameWithOptions(opts Options) *Game {
	cfg := config.Cfg()

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		world:          world,
		rng:            rng,
		seed:           opts.Seed,
		registry:       systems.NewSystemRegistry(),
		stepsPerUpdate: opts.StepsPerUpdate,
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		followShip:     true,
	}

	caps := systems.PoolCaps{
		Fragments:   cfg.Pools.Fragments,
		Projectiles: cfg.Pools.Projectiles,
		Ships:       cfg.Pools.Ships,
	}
	g.entities = systems.NewEntityManager(world, caps)
	g.collision = systems.NewCollisionSystem(world, g.entities,
		cfg.Derived.ArenaW32, cfg.Derived.ArenaH32, float32(cfg.Physics.GridCellSize))
	g.projectiles = systems.NewProjectileSystem(g.entities)
	g.status = systems.NewStatusSystem(g.entities)
	g.fracture = systems.NewFractureSystem(g.entities, rng)
	g.waves = systems.NewWaveSpawner(g.entities, g.fracture, rng)
	// Debris gets its own stream so cosmetics never perturb the sim.
	g.debris = systems.NewDebrisSystem(rand.New(rand.NewSource(opts.Seed ^ 0x5eed)))

	for _, sys := range []systems.System{
		g.entities, g.collision, g.projectiles, g.status, g.fracture, g.waves, g.debris,
	} {
		if err := g.registry.Attach(sys); err != nil {
			panic("game: " + err.Error())
		}
	}
	if err := g.registry.InitAll(); err != nil {
		panic("game: " + err.Error())
	}

	mustRegister := func(name string, kind components.Kind) {
		if err := g.collision.RegisterGroup(name, kind); err != nil {
			panic("game: " + err.Error())
		}
	}
	mustRegister(GroupFragments, components.KindFragment)
	mustRegister(GroupProjectiles, components.KindProjectile)
	mustRegister(GroupShip, components.KindShip)

	// Effects die with their carrier.
	g.entities.OnRelease(func(e ecs.Entity, kind components.Kind) {
		g.status.RemoveAll(e)
	})
	// Burn pulses hurt fragments through the same damage path as shots.
	g.status.OnDamage(func(target ecs.Entity, amount float32, source systems.EffectType) {
		g.collector.Record(telemetry.NewBurnPulseEvent(g.tick, target.ID(), amount))
		g.damageFragment(target, amount, 0, 0)
	})
	g.waves.OnWave(g.onWaveSpawned)

	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT32)
	g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.waveLog = telemetry.NewWaveTracker()
	g.highlights = telemetry.NewHighlightDetector(12)
	g.records = telemetry.NewRecordBook(10)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.output = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config snapshot", "error", err)
			}
		}
	}

	if !opts.Headless {
		g.camera = camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32,
			cfg.Derived.ArenaW32, cfg.Derived.ArenaH32)
		g.outlines = newOutlineCache()
	}

	g.spawnShip()
	g.waves.Start()
	return g
}

// spawnShip places the reference actor at the arena center.
func (g *Game) spawnShip() {
	cfg := config.Cfg()
	e, err := g.entities.SpawnShip(
		components.Position{X: cfg.Derived.ArenaW32 / 2, Y: cfg.Derived.ArenaH32 / 2},
		components.Velocity{},
		components.Body{Radius: float32(cfg.Ship.Radius), Mass: 1},
		components.Ship{Heading: -1.5708}, // facing up
	)
	if err != nil {
		slog.Error("failed to spawn ship", "error", err)
		return
	}
	g.ship = e
	g.waves.SetReference(cfg.Derived.ArenaW32/2, cfg.Derived.ArenaH32/2)
}

// Update runs one graphical frame: input, simulation steps, telemetry.
func (g *Game) Update() {
	g.handleInput()
	g.perf.RecordFrame()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// UpdateHeadless runs the configured number of simulation steps without
// touching any input or rendering state.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() uint64 { return g.tick }

// Score returns the accumulated score.
func (g *Game) Score() int64 { return g.score }

// Wave returns the current wave index.
func (g *Game) Wave() int { return g.waves.Wave() }

// Seed returns the RNG seed the session was created with.
func (g *Game) Seed() int64 { return g.seed }

// Ship returns the reference actor's entity id and whether it is alive.
func (g *Game) Ship() (ecs.Entity, bool) {
	return g.ship, g.entities.Live(g.ship)
}

// Statuses aggregates the diagnostic reports of every attached system.
func (g *Game) Statuses() []systems.Status {
	return g.registry.StatusAll()
}

// Systems exposes the registry for tooling.
func (g *Game) Systems() *systems.SystemRegistry { return g.registry }

// Lineage exposes the fracture system's discovery ledger stats.
func (g *Game) Lineage() systems.LineageStats {
	return g.fracture.Lineage().Stats()
}

// Unload shuts the systems down in reverse dependency order and closes
// telemetry outputs.
func (g *Game) Unload() {
	g.registry.ShutdownAll()
	if g.output != nil {
		if err := g.output.WriteRecords(g.records); err != nil {
			slog.Error("failed to write record book", "error", err)
		}
		if err := g.output.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}
