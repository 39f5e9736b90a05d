package systems

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
)

// ProjectileSystemName is the registry name for the projectile system.
const ProjectileSystemName = "projectiles"

// ProjectileSystem drives projectile flight and owns the per-cannon fire
// rate limit. Projectiles fly straight: no drag, no status effects, no
// toroidal wrap. They disappear silently at end of life or past the arena
// edge, whichever comes first.
type ProjectileSystem struct {
	em *EntityManager

	firedTotal       uint64
	rateLimitedTotal uint64
	expiredTotal     uint64
	culledTotal      uint64
}

// NewProjectileSystem creates a projectile system over the manager's pools.
func NewProjectileSystem(em *EntityManager) *ProjectileSystem {
	return &ProjectileSystem{em: em}
}

// Name returns the registry name.
func (s *ProjectileSystem) Name() string { return ProjectileSystemName }

// Init prepares the system.
func (s *ProjectileSystem) Init() error { return nil }

// Fire launches a projectile from the owner's cannon. The shot leaves the
// muzzle ahead of the owner along its heading and inherits a fraction of
// the owner's velocity. Fails with ErrRateLimited while the cannon is
// cooling down and with ErrPoolExhausted when no projectile slot is free.
// The cooldown is only consumed by a shot that actually launched.
func (s *ProjectileSystem) Fire(owner ecs.Entity) (ecs.Entity, error) {
	if !s.em.Live(owner) {
		return ecs.Entity{}, fmt.Errorf("fire request from dead entity: %w", ErrInvalidArgument)
	}
	cannon := s.em.Cannon(owner)
	ship := s.em.Ship(owner)
	pos := s.em.Pos(owner)
	vel := s.em.Vel(owner)
	if cannon == nil || ship == nil || pos == nil || vel == nil {
		return ecs.Entity{}, fmt.Errorf("fire request from entity without a cannon: %w", ErrInvalidArgument)
	}
	if cannon.Cooldown > 0 {
		s.rateLimitedTotal++
		return ecs.Entity{}, fmt.Errorf("cannon cooling down for %.3fs: %w", cannon.Cooldown, ErrRateLimited)
	}

	cfg := config.Cfg()
	dirX := float32(math.Cos(float64(ship.Heading)))
	dirY := float32(math.Sin(float64(ship.Heading)))

	spawn := components.Position{
		X: pos.X + dirX*float32(cfg.Projectiles.SpawnOffset),
		Y: pos.Y + dirY*float32(cfg.Projectiles.SpawnOffset),
	}
	launch := components.Velocity{
		X: dirX*float32(cfg.Projectiles.MuzzleSpeed) + vel.X*float32(cfg.Projectiles.InheritVelocity),
		Y: dirY*float32(cfg.Projectiles.MuzzleSpeed) + vel.Y*float32(cfg.Projectiles.InheritVelocity),
	}

	e, err := s.em.SpawnProjectile(
		spawn,
		launch,
		components.Body{Radius: float32(cfg.Projectiles.Radius)},
		components.Projectile{Owner: owner, Lifetime: float32(cfg.Projectiles.Lifetime)},
	)
	if err != nil {
		return ecs.Entity{}, err
	}

	cannon.Cooldown = float32(cfg.Projectiles.Cooldown)
	s.firedTotal++
	return e, nil
}

// Tick decays cannon cooldowns in simulation time, then advances every
// live projectile and queues expired or out-of-bounds ones for release.
func (s *ProjectileSystem) Tick(dt float32) {
	cfg := config.Cfg()

	for _, e := range s.em.Ships() {
		if cannon := s.em.Cannon(e); cannon != nil && cannon.Cooldown > 0 {
			cannon.Cooldown -= dt
			if cannon.Cooldown < 0 {
				cannon.Cooldown = 0
			}
		}
	}

	arenaW := cfg.Derived.ArenaW32
	arenaH := cfg.Derived.ArenaH32
	margin := float32(cfg.Projectiles.DespawnMargin)

	for _, e := range s.em.Projectiles() {
		if !s.em.Live(e) {
			continue
		}
		proj := s.em.Projectile(e)
		pos := s.em.Pos(e)
		vel := s.em.Vel(e)
		if proj == nil || pos == nil || vel == nil {
			continue
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		proj.Age += dt

		switch {
		case proj.Age >= proj.Lifetime:
			s.em.Release(e)
			s.expiredTotal++
		case pos.X < -margin || pos.X > arenaW+margin || pos.Y < -margin || pos.Y > arenaH+margin:
			s.em.Release(e)
			s.culledTotal++
		}
	}
}

// Shutdown resets counters. Pooled entities belong to the manager.
func (s *ProjectileSystem) Shutdown() {
	s.firedTotal = 0
	s.rateLimitedTotal = 0
	s.expiredTotal = 0
	s.culledTotal = 0
}

// Status reports live projectile count and lifetime totals.
func (s *ProjectileSystem) Status() Status {
	st := NewStatus(ProjectileSystemName)
	st.Counts["live"] = s.em.Count(components.KindProjectile)
	st.Counts["fired_total"] = int(s.firedTotal)
	st.Counts["rate_limited_total"] = int(s.rateLimitedTotal)
	st.Counts["expired_total"] = int(s.expiredTotal)
	st.Counts["culled_total"] = int(s.culledTotal)
	return st
}
