package systems

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
)

type waveFixture struct {
	em *EntityManager
	fs *FractureSystem
	ws *WaveSpawner
}

func newWaveFixture(t *testing.T, preset string, fragmentCap int) *waveFixture {
	t.Helper()
	config.MustInitPreset("", preset)
	world := ecs.NewWorld()
	em := NewEntityManager(world, PoolCaps{Fragments: fragmentCap, Projectiles: 8, Ships: 2})
	fs := NewFractureSystem(em, rand.New(rand.NewSource(42)))
	ws := NewWaveSpawner(em, fs, rand.New(rand.NewSource(7)))
	return &waveFixture{em: em, fs: fs, ws: ws}
}

func TestDifficultyProgression(t *testing.T) {
	config.MustInit("")
	tests := []struct {
		index     int
		wantCount int
		wantSpeed float32
		wantPool  []uint8
		wantSafe  float32
	}{
		{index: 1, wantCount: 4, wantSpeed: 1.0, wantPool: waveSizePools[0], wantSafe: 40},
		{index: 2, wantCount: 6, wantSpeed: 1.1, wantPool: waveSizePools[0], wantSafe: 40},
		{index: 3, wantCount: 8, wantSpeed: 1.2, wantPool: waveSizePools[1], wantSafe: 40},
		{index: 5, wantCount: 12, wantSpeed: 1.4, wantPool: waveSizePools[2], wantSafe: 40},
		{index: 7, wantCount: 12, wantSpeed: 1.6, wantPool: waveSizePools[3], wantSafe: 40},
		{index: 19, wantCount: 12, wantSpeed: 2.8, wantPool: waveSizePools[3], wantSafe: 40},
		{index: 20, wantCount: 14, wantSpeed: 2.9, wantPool: waveSizePools[3], wantSafe: 40},
		{index: 21, wantCount: 15, wantSpeed: 3.0, wantPool: waveSizePools[3], wantSafe: 40},
		{index: 30, wantCount: 15, wantSpeed: 3.0, wantPool: waveSizePools[3], wantSafe: 40},
	}

	for _, tt := range tests {
		got := Difficulty(tt.index)
		if got.Count != tt.wantCount {
			t.Errorf("Difficulty(%d).Count = %d, want %d", tt.index, got.Count, tt.wantCount)
		}
		if math.Abs(float64(got.SpeedMult-tt.wantSpeed)) > 1e-5 {
			t.Errorf("Difficulty(%d).SpeedMult = %f, want %f", tt.index, got.SpeedMult, tt.wantSpeed)
		}
		if !reflect.DeepEqual(got.SizePool, tt.wantPool) {
			t.Errorf("Difficulty(%d).SizePool = %v, want %v", tt.index, got.SizePool, tt.wantPool)
		}
		if got.SafeRadius != tt.wantSafe {
			t.Errorf("Difficulty(%d).SafeRadius = %f, want %f", tt.index, got.SafeRadius, tt.wantSafe)
		}
	}
}

func TestDifficultySurvivalHardening(t *testing.T) {
	config.MustInitPreset("", "hard")

	got := Difficulty(1)
	// 4 base count * 1.3, truncated; 1.0 speed * 1.5; tighter haven.
	if got.Count != 5 {
		t.Errorf("survival wave 1 count = %d, want 5", got.Count)
	}
	if math.Abs(float64(got.SpeedMult-1.5)) > 1e-5 {
		t.Errorf("survival wave 1 speed = %f, want 1.5", got.SpeedMult)
	}
	if got.SafeRadius != 30 {
		t.Errorf("survival safe radius = %f, want 30", got.SafeRadius)
	}

	// Survival multipliers apply after the scripted caps.
	if got := Difficulty(21); got.Count != 19 {
		t.Errorf("survival wave 21 count = %d, want 19", got.Count)
	}
}

func TestSpawnWaveRespectsSafeHaven(t *testing.T) {
	f := newWaveFixture(t, "", 32)
	f.ws.SetReference(80, 72)

	spawned, err := f.ws.SpawnWave(WaveConfig{
		Index:      1,
		Count:      6,
		SpeedMult:  1,
		SizePool:   []uint8{3, 2},
		SafeRadius: 40,
	})
	if err != nil {
		t.Fatalf("SpawnWave failed: %v", err)
	}
	if spawned != 6 {
		t.Fatalf("spawned %d fragments, want 6", spawned)
	}

	for _, e := range f.em.Fragments() {
		pos := f.em.Pos(e)
		// Outside the 40 haven plus the 5 safety margin.
		if d := distance(pos.X, pos.Y, 80, 72); d <= 44.99 {
			t.Errorf("fragment at (%f, %f) is %f from the reference, want > 45", pos.X, pos.Y, d)
		}
		// Inside the arena spawn margins.
		if pos.X < 20 || pos.X > 140 || pos.Y < 20 || pos.Y > 124 {
			t.Errorf("fragment at (%f, %f) outside spawn bounds", pos.X, pos.Y)
		}
	}
}

func TestSpawnWaveFallsBackWhenHavenCoversArena(t *testing.T) {
	f := newWaveFixture(t, "", 32)
	f.ws.SetReference(40, 40)

	// A 200 radius haven swallows the whole arena: random placement and
	// every edge midpoint fail, leaving the corner farthest from the
	// reference. The wave must still spawn in full.
	spawned, err := f.ws.SpawnWave(WaveConfig{
		Index:      1,
		Count:      3,
		SpeedMult:  1,
		SizePool:   []uint8{2},
		SafeRadius: 200,
	})
	if err != nil {
		t.Fatalf("SpawnWave failed: %v", err)
	}
	if spawned != 3 {
		t.Fatalf("spawned %d fragments, want 3", spawned)
	}

	for _, e := range f.em.Fragments() {
		pos := f.em.Pos(e)
		if pos.X != 140 || pos.Y != 124 {
			t.Errorf("fallback position = (%f, %f), want farthest corner (140, 124)", pos.X, pos.Y)
		}
	}
	if got := f.ws.Status().Counts["fallback_total"]; got != 3 {
		t.Errorf("fallback_total = %d, want 3", got)
	}
}

func TestSpawnWaveStopsAtPoolCap(t *testing.T) {
	f := newWaveFixture(t, "", 3)
	f.ws.SetReference(80, 72)

	var events []WaveEvent
	f.ws.OnWave(func(ev WaveEvent) { events = append(events, ev) })

	spawned, err := f.ws.SpawnWave(WaveConfig{
		Index:      1,
		Count:      6,
		SpeedMult:  1,
		SizePool:   []uint8{1},
		SafeRadius: 40,
	})
	if err != nil {
		t.Fatalf("SpawnWave failed: %v", err)
	}
	if spawned != 3 {
		t.Errorf("spawned %d fragments into a 3-slot pool, want 3", spawned)
	}
	if len(events) != 1 {
		t.Fatalf("got %d wave events, want 1", len(events))
	}
	if events[0].Requested != 6 || events[0].Spawned != 3 {
		t.Errorf("wave event = %+v, want requested 6 spawned 3", events[0])
	}
}

func TestSpawnWaveDriftScalesWithMultiplier(t *testing.T) {
	f := newWaveFixture(t, "", 32)
	f.ws.SetReference(80, 72)

	if _, err := f.ws.SpawnWave(WaveConfig{
		Index:      1,
		Count:      8,
		SpeedMult:  2,
		SizePool:   []uint8{3},
		SafeRadius: 40,
	}); err != nil {
		t.Fatalf("SpawnWave failed: %v", err)
	}

	// Drift 15-30 doubled by the wave multiplier.
	for _, e := range f.em.Fragments() {
		vel := f.em.Vel(e)
		speed := velocityMagnitude(vel.X, vel.Y)
		if speed < 29.9 || speed > 60.1 {
			t.Errorf("drift speed = %f, want within [30, 60]", speed)
		}
	}
}

func TestWaveLifecycle(t *testing.T) {
	f := newWaveFixture(t, "", 64)
	f.ws.SetReference(80, 72)

	f.ws.Start()
	if f.ws.Wave() != 1 {
		t.Fatalf("wave after Start = %d, want 1", f.ws.Wave())
	}
	if got := f.em.Count(components.KindFragment); got != 4 {
		t.Fatalf("wave 1 spawned %d fragments, want 4", got)
	}

	// Clearing the arena arms the spawn delay instead of spawning
	// immediately.
	for _, e := range f.em.Fragments() {
		f.em.Release(e)
	}
	f.em.Flush()
	f.ws.Tick(1.0 / 60)
	if f.ws.Wave() != 1 {
		t.Fatalf("wave advanced without waiting out the delay")
	}
	if f.ws.Countdown() != 2.0 {
		t.Errorf("countdown = %f, want 2.0", f.ws.Countdown())
	}

	f.ws.Tick(1.0)
	if got := f.ws.Countdown(); math.Abs(float64(got-1.0)) > 1e-5 {
		t.Errorf("countdown after 1s = %f, want 1.0", got)
	}

	f.ws.Tick(1.0)
	if f.ws.Wave() != 2 {
		t.Errorf("wave after delay = %d, want 2", f.ws.Wave())
	}
	if got := f.em.Count(components.KindFragment); got != 6 {
		t.Errorf("wave 2 spawned %d fragments, want 6", got)
	}
}

func TestSetWaveResumesProgression(t *testing.T) {
	f := newWaveFixture(t, "", 64)
	f.ws.SetReference(80, 72)

	f.ws.SetWave(5)
	if f.ws.Wave() != 5 {
		t.Fatalf("SetWave(5) left wave at %d", f.ws.Wave())
	}

	// Empty arena: the spawner waits out the delay, then spawns wave 6.
	f.ws.Tick(1.0 / 60)
	f.ws.Tick(2.5)
	if f.ws.Wave() != 6 {
		t.Errorf("wave after resume = %d, want 6", f.ws.Wave())
	}
	if got := f.em.Count(components.KindFragment); got != 12 {
		t.Errorf("wave 6 spawned %d fragments, want 12", got)
	}
}
