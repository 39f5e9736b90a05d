package game

import (
	"errors"
	"sort"
	"testing"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/genetics"
	"github.com/pthm-cable/rubble/systems"
)

// newTestGame builds a headless session with the autopilot disabled so
// tests drive the ship through explicit intents.
func newTestGame(t *testing.T, seed int64) *Game {
	t.Helper()
	config.MustInit("")
	config.Cfg().Autopilot.Enabled = false
	return NewGameWithOptions(Options{Seed: seed, Headless: true, StepsPerUpdate: 1})
}

// clearFragments releases the auto-spawned wave so a test can stage its
// own population.
func clearFragments(g *Game) {
	for _, e := range g.entities.Fragments() {
		g.entities.Release(e)
	}
	g.entities.Flush()
}

func TestNewGameSpawnsFirstWave(t *testing.T) {
	g := newTestGame(t, 1)
	defer g.Unload()

	if got := g.Wave(); got != 1 {
		t.Fatalf("Wave() = %d, want 1", got)
	}
	if got := g.entities.Count(components.KindFragment); got != 4 {
		t.Fatalf("fragment count = %d, want 4 for wave 1", got)
	}
	if _, alive := g.Ship(); !alive {
		t.Fatal("ship not alive after construction")
	}

	// Every root must spawn outside the safe haven around the ship.
	cfg := config.Cfg()
	sx, sy := cfg.Derived.ArenaW32/2, cfg.Derived.ArenaH32/2
	safe := systems.Difficulty(1).SafeRadius
	for _, e := range g.entities.Fragments() {
		pos := g.entities.Pos(e)
		if pos == nil {
			t.Fatalf("fragment %d has no position", e.ID())
		}
		if d := hypot32(pos.X-sx, pos.Y-sy); d < safe {
			t.Errorf("fragment at (%.1f, %.1f) is %.1f from ship, want >= %.1f",
				pos.X, pos.Y, d, safe)
		}
		frag := g.entities.Fragment(e)
		if frag.Size < 1 || frag.Size > 3 {
			t.Errorf("wave 1 fragment size = %d, want 1..3", frag.Size)
		}
		genome := g.entities.Genome(e)
		if genome.Traits != genetics.Root() {
			t.Errorf("wave 1 fragment traits = %+v, want neutral root bundle", genome.Traits)
		}
	}
}

func TestThrustIntentClampsAxes(t *testing.T) {
	g := newTestGame(t, 2)
	defer g.Unload()

	res := g.Apply(ThrustIntent{Thrust: 5, Turn: -9})
	if !res.OK {
		t.Fatalf("Apply(ThrustIntent) failed: %v", res.Err)
	}
	if g.thrustInput != 1 {
		t.Errorf("thrustInput = %v, want clamped to 1", g.thrustInput)
	}
	if g.turnInput != -1 {
		t.Errorf("turnInput = %v, want clamped to -1", g.turnInput)
	}

	// Inputs are consumed by the integrate phase and do not persist.
	g.simulationStep()
	if g.thrustInput != 0 || g.turnInput != 0 {
		t.Errorf("inputs after step = (%v, %v), want reset to zero",
			g.thrustInput, g.turnInput)
	}
}

func TestFireIntentRateLimited(t *testing.T) {
	g := newTestGame(t, 3)
	defer g.Unload()

	first := g.Apply(FireIntent{})
	if !first.OK {
		t.Fatalf("first fire failed: %v", first.Err)
	}
	if !g.entities.Live(first.Entity) {
		t.Fatal("first fire returned a dead projectile entity")
	}

	second := g.Apply(FireIntent{})
	if second.OK {
		t.Fatal("second fire in the same tick succeeded, want rate limit refusal")
	}
	if !errors.Is(second.Err, systems.ErrRateLimited) {
		t.Fatalf("second fire error = %v, want ErrRateLimited", second.Err)
	}

	// The cooldown expires after enough simulated time.
	ticks := int(float32(config.Cfg().Projectiles.Cooldown)/config.Cfg().Derived.DT32) + 2
	for i := 0; i < ticks; i++ {
		g.simulationStep()
	}
	if res := g.Apply(FireIntent{}); !res.OK {
		t.Fatalf("fire after cooldown failed: %v", res.Err)
	}
}

func TestSpawnWaveIntentReportsCount(t *testing.T) {
	g := newTestGame(t, 4)
	defer g.Unload()
	clearFragments(g)

	res := g.Apply(SpawnWaveIntent{Index: 2})
	if !res.OK {
		t.Fatalf("SpawnWaveIntent failed: %v", res.Err)
	}
	want := systems.Difficulty(2).Count
	if res.Count != want {
		t.Errorf("spawned %d fragments, want %d for wave 2", res.Count, want)
	}
	if got := g.entities.Count(components.KindFragment); got != want {
		t.Errorf("fragment count = %d, want %d", got, want)
	}
}

func TestReleaseIntentFreesAtFlush(t *testing.T) {
	g := newTestGame(t, 5)
	defer g.Unload()

	frags := g.entities.Fragments()
	if len(frags) == 0 {
		t.Fatal("no fragments to release")
	}
	target := frags[0]

	if res := g.Apply(ReleaseIntent{Target: target}); !res.OK {
		t.Fatalf("ReleaseIntent failed: %v", res.Err)
	}
	// Deferred: the entity stays valid until the end-of-frame flush.
	if !g.entities.Alive(target) {
		t.Fatal("entity freed before flush")
	}
	g.simulationStep()
	if g.entities.Alive(target) {
		t.Fatal("entity still alive after flush")
	}
}

func TestProjectileDestroysFragmentAndFractures(t *testing.T) {
	g := newTestGame(t, 6)
	defer g.Unload()
	clearFragments(g)

	// One stationary size-3 rock directly ahead of the ship.
	cfg := config.Cfg()
	sx, sy := cfg.Derived.ArenaW32/2, cfg.Derived.ArenaH32/2
	parent, err := g.fracture.SpawnRoot(3,
		components.Position{X: sx + 40, Y: sy}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot: %v", err)
	}
	parentID := g.entities.Fragment(parent).GeneticID
	g.entities.Ship(g.ship).Heading = 0 // face +x, straight at the rock

	destroyed := false
	for i := 0; i < 600; i++ {
		g.Apply(FireIntent{})
		g.simulationStep()
		if !g.entities.Alive(parent) {
			destroyed = true
			break
		}
	}
	if !destroyed {
		t.Fatal("parent fragment survived 600 ticks of point-blank fire")
	}

	children := g.entities.Fragments()
	if len(children) != 2 {
		t.Fatalf("offspring count = %d, want 2", len(children))
	}
	for _, c := range children {
		frag := g.entities.Fragment(c)
		if frag.Size != 2 {
			t.Errorf("offspring size = %d, want 2", frag.Size)
		}
		if frag.ParentID != parentID {
			t.Errorf("offspring parent id = %q, want %q", frag.ParentID, parentID)
		}
		traits := g.entities.Genome(c).Traits
		if traits.Generation != 1 {
			t.Errorf("offspring generation = %d, want 1", traits.Generation)
		}
		if traits.SpeedMod < genetics.SpeedModMin || traits.SpeedMod > genetics.SpeedModMax {
			t.Errorf("offspring speed mod %v out of [%v, %v]",
				traits.SpeedMod, float32(genetics.SpeedModMin), float32(genetics.SpeedModMax))
		}
		if traits.SizeMod < genetics.SizeModMin || traits.SizeMod > genetics.SizeModMax {
			t.Errorf("offspring size mod %v out of [%v, %v]",
				traits.SizeMod, float32(genetics.SizeModMin), float32(genetics.SizeModMax))
		}
	}

	wantScore := int64(cfg.Derived.SizeByClass[3].Points)
	if g.Score() != wantScore {
		t.Errorf("score = %d, want %d for a size-3 kill", g.Score(), wantScore)
	}

	stats := g.Lineage()
	if stats.MaxGeneration != 1 {
		t.Errorf("ledger max generation = %d, want 1", stats.MaxGeneration)
	}
	if stats.EdgesRecorded != 2 {
		t.Errorf("ledger edges = %d, want 2", stats.EdgesRecorded)
	}
}

func TestShipImpactStunsAndKnocksBack(t *testing.T) {
	g := newTestGame(t, 7)
	defer g.Unload()
	clearFragments(g)

	pos := g.entities.Pos(g.ship)
	// Overlapping the ship from the left: combined radii 3 + 8.
	if _, err := g.fracture.SpawnRoot(3,
		components.Position{X: pos.X - 5, Y: pos.Y}, components.Velocity{}); err != nil {
		t.Fatalf("SpawnRoot: %v", err)
	}

	g.simulationStep()

	if !g.status.Stunned(g.ship) {
		t.Error("ship not stunned after fragment impact")
	}
	if !g.status.Has(g.ship, systems.EffectSlow) {
		t.Error("ship not slowed after fragment impact")
	}
	vel := g.entities.Vel(g.ship)
	if vel.X <= 0 {
		t.Errorf("knockback velocity X = %v, want pushed away from the impact (> 0)", vel.X)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	config.MustInit("")
	config.Cfg().Autopilot.Enabled = true
	g := NewGameWithOptions(Options{Seed: 11, Headless: true, StepsPerUpdate: 1})
	defer g.Unload()

	// Let the autopilot make a mess worth saving.
	for i := 0; i < 300; i++ {
		g.UpdateHeadless()
	}

	snap := g.Snapshot()
	wantFrags := fragmentIDs(g)
	wantScore := g.Score()
	wantWave := g.Wave()
	wantTick := g.Tick()

	restored := NewGameWithOptions(Options{Seed: 99, Headless: true, StepsPerUpdate: 1})
	defer restored.Unload()
	if err := restored.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	if got := fragmentIDs(restored); !equalStrings(got, wantFrags) {
		t.Errorf("restored lineage ids = %v, want %v", got, wantFrags)
	}
	if restored.Score() != wantScore {
		t.Errorf("restored score = %d, want %d", restored.Score(), wantScore)
	}
	if restored.Wave() != wantWave {
		t.Errorf("restored wave = %d, want %d", restored.Wave(), wantWave)
	}
	if restored.Tick() != wantTick {
		t.Errorf("restored tick = %d, want %d", restored.Tick(), wantTick)
	}

	// The restored world must be steppable.
	restored.UpdateHeadless()
}

func TestRestoreSnapshotRejectsUnknownVersion(t *testing.T) {
	g := newTestGame(t, 12)
	defer g.Unload()

	snap := g.Snapshot()
	snap.Version = 999
	err := g.RestoreSnapshot(snap)
	if !errors.Is(err, systems.ErrInvalidArgument) {
		t.Fatalf("RestoreSnapshot error = %v, want ErrInvalidArgument", err)
	}
}

func TestFrameReflectsWorld(t *testing.T) {
	g := newTestGame(t, 13)
	defer g.Unload()

	f := g.Frame()
	if f.Wave != 1 {
		t.Errorf("frame wave = %d, want 1", f.Wave)
	}
	if len(f.Fragments) != g.entities.Count(components.KindFragment) {
		t.Errorf("frame fragments = %d, want %d",
			len(f.Fragments), g.entities.Count(components.KindFragment))
	}
	if f.Ship == nil {
		t.Fatal("frame has no ship view")
	}
	for _, fv := range f.Fragments {
		if fv.OutlineKey == "" {
			t.Error("fragment view missing outline key")
		}
	}
}

func fragmentIDs(g *Game) []string {
	var ids []string
	for _, e := range g.entities.Fragments() {
		ids = append(ids, g.entities.Fragment(e).GeneticID)
	}
	sort.Strings(ids)
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
