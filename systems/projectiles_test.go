package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
)

type projectileFixture struct {
	em   *EntityManager
	ps   *ProjectileSystem
	ship ecs.Entity
}

func newProjectileFixture(t *testing.T, projectileCap int) *projectileFixture {
	t.Helper()
	config.MustInit("")
	world := ecs.NewWorld()
	em := NewEntityManager(world, PoolCaps{Fragments: 32, Projectiles: projectileCap, Ships: 2})
	ship, err := em.SpawnShip(
		components.Position{X: 80, Y: 72},
		components.Velocity{},
		components.Body{Radius: 3},
		components.Ship{Heading: 0},
	)
	if err != nil {
		t.Fatalf("SpawnShip failed: %v", err)
	}
	return &projectileFixture{em: em, ps: NewProjectileSystem(em), ship: ship}
}

func TestFireSpawnsProjectileAtMuzzle(t *testing.T) {
	f := newProjectileFixture(t, 8)

	e, err := f.ps.Fire(f.ship)
	if err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	// Heading 0 points +x, spawn offset 4 ahead of the ship at (80, 72).
	pos := f.em.Pos(e)
	if math.Abs(float64(pos.X-84)) > 1e-4 || math.Abs(float64(pos.Y-72)) > 1e-4 {
		t.Errorf("spawn position = (%f, %f), want (84, 72)", pos.X, pos.Y)
	}

	// Muzzle speed 90, stationary shooter contributes nothing.
	vel := f.em.Vel(e)
	if math.Abs(float64(vel.X-90)) > 1e-3 || math.Abs(float64(vel.Y)) > 1e-3 {
		t.Errorf("launch velocity = (%f, %f), want (90, 0)", vel.X, vel.Y)
	}

	proj := f.em.Projectile(e)
	if proj.Owner != f.ship {
		t.Errorf("projectile owner = %v, want the firing ship", proj.Owner)
	}
	if proj.Age != 0 || proj.Lifetime != 2.0 {
		t.Errorf("age/lifetime = %f/%f, want 0/2.0", proj.Age, proj.Lifetime)
	}
}

func TestFireInheritsShooterVelocity(t *testing.T) {
	f := newProjectileFixture(t, 8)
	f.em.Vel(f.ship).X = 40

	e, err := f.ps.Fire(f.ship)
	if err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	// 90 muzzle + 0.5 * 40 shooter velocity.
	vel := f.em.Vel(e)
	if math.Abs(float64(vel.X-110)) > 1e-3 {
		t.Errorf("launch velocity x = %f, want 110", vel.X)
	}
}

func TestFireRateLimited(t *testing.T) {
	f := newProjectileFixture(t, 8)

	if _, err := f.ps.Fire(f.ship); err != nil {
		t.Fatalf("first shot failed: %v", err)
	}
	if _, err := f.ps.Fire(f.ship); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second immediate shot error = %v, want ErrRateLimited", err)
	}

	// Cooldown runs on simulation time. 0.10s elapsed is not enough for
	// the 0.15s cooldown; 0.20s is.
	f.ps.Tick(0.05)
	f.ps.Tick(0.05)
	if _, err := f.ps.Fire(f.ship); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("shot at 0.10s error = %v, want ErrRateLimited", err)
	}
	f.ps.Tick(0.05)
	f.ps.Tick(0.05)
	if _, err := f.ps.Fire(f.ship); err != nil {
		t.Fatalf("shot after cooldown failed: %v", err)
	}
}

func TestFireRequiresCannon(t *testing.T) {
	f := newProjectileFixture(t, 8)
	frag, err := f.em.SpawnFragment(
		components.Position{X: 40, Y: 40},
		components.Velocity{},
		components.Body{Radius: 4, Mass: 2},
		components.Fragment{Size: 2, Health: 2},
		components.Genome{},
	)
	if err != nil {
		t.Fatalf("SpawnFragment failed: %v", err)
	}

	if _, err := f.ps.Fire(frag); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("fragment fire error = %v, want ErrInvalidArgument", err)
	}

	f.em.Release(f.ship)
	if _, err := f.ps.Fire(f.ship); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("released-ship fire error = %v, want ErrInvalidArgument", err)
	}
}

func TestFirePoolExhausted(t *testing.T) {
	f := newProjectileFixture(t, 1)

	if _, err := f.ps.Fire(f.ship); err != nil {
		t.Fatalf("first shot failed: %v", err)
	}
	cannon := f.em.Cannon(f.ship)
	cannon.Cooldown = 0 // isolate the pool check from the rate limit

	if _, err := f.ps.Fire(f.ship); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("full-pool fire error = %v, want ErrPoolExhausted", err)
	}
	// A failed shot must not consume the cooldown.
	if cannon.Cooldown != 0 {
		t.Errorf("cooldown after failed shot = %f, want 0", cannon.Cooldown)
	}
}

func TestProjectileExpiresAtLifetime(t *testing.T) {
	f := newProjectileFixture(t, 8)
	e, err := f.em.SpawnProjectile(
		components.Position{X: 80, Y: 72},
		components.Velocity{},
		components.Body{Radius: 0.8},
		components.Projectile{Lifetime: 1.0},
	)
	if err != nil {
		t.Fatalf("SpawnProjectile failed: %v", err)
	}

	f.ps.Tick(0.5)
	if f.em.PendingRelease(e) {
		t.Fatalf("projectile released at half its lifetime")
	}
	f.ps.Tick(0.5)
	if !f.em.PendingRelease(e) {
		t.Fatalf("projectile not released at end of lifetime")
	}
	if f.em.Flush() != 1 {
		t.Errorf("flush did not remove the expired projectile")
	}
}

func TestProjectileCulledPastArenaEdge(t *testing.T) {
	f := newProjectileFixture(t, 8)
	// Arena 160 wide with despawn margin 8. One 0.5s step at 90 units/s
	// carries the projectile from x=159 to x=204, well past the cull line.
	e, err := f.em.SpawnProjectile(
		components.Position{X: 159, Y: 72},
		components.Velocity{X: 90},
		components.Body{Radius: 0.8},
		components.Projectile{Lifetime: 2.0},
	)
	if err != nil {
		t.Fatalf("SpawnProjectile failed: %v", err)
	}

	f.ps.Tick(0.5)
	if !f.em.PendingRelease(e) {
		t.Errorf("projectile past the arena edge was not released")
	}
}

func TestProjectileFliesStraight(t *testing.T) {
	f := newProjectileFixture(t, 8)
	e, err := f.em.SpawnProjectile(
		components.Position{X: 40, Y: 72},
		components.Velocity{X: 60, Y: 30},
		components.Body{Radius: 0.8},
		components.Projectile{Lifetime: 2.0},
	)
	if err != nil {
		t.Fatalf("SpawnProjectile failed: %v", err)
	}

	f.ps.Tick(0.1)
	f.ps.Tick(0.1)

	pos := f.em.Pos(e)
	if math.Abs(float64(pos.X-52)) > 1e-3 || math.Abs(float64(pos.Y-78)) > 1e-3 {
		t.Errorf("position after 0.2s = (%f, %f), want (52, 78)", pos.X, pos.Y)
	}
	vel := f.em.Vel(e)
	if vel.X != 60 || vel.Y != 30 {
		t.Errorf("velocity changed in flight: (%f, %f)", vel.X, vel.Y)
	}
}
