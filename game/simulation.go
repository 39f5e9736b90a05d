package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/systems"
	"github.com/pthm-cable/rubble/telemetry"
)

// simulationStep advances the world by one fixed timestep. Systems tick
// in dependency order; structural changes are deferred to the flush phase
// so no system observes a half-updated pool mid-tick.
func (g *Game) simulationStep() {
	dt := config.Cfg().Derived.DT32
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseIntents)
	g.runAutopilot()

	g.perf.StartPhase(telemetry.PhaseIntegrate)
	g.entities.Tick(dt)
	g.integrateShip(dt)
	g.integrateFragments(dt)
	g.projectiles.Tick(dt)

	g.perf.StartPhase(telemetry.PhaseCollision)
	g.collision.Tick(dt)

	g.perf.StartPhase(telemetry.PhaseCombat)
	g.resolveProjectileHits(dt)
	g.resolveShipImpacts()

	g.perf.StartPhase(telemetry.PhaseStatus)
	g.status.Tick(dt)
	g.fracture.Tick(dt)

	g.perf.StartPhase(telemetry.PhaseWaves)
	if pos := g.entities.Pos(g.ship); pos != nil && g.entities.Live(g.ship) {
		g.waves.SetReference(pos.X, pos.Y)
	}
	g.waves.Tick(dt)

	g.perf.StartPhase(telemetry.PhaseDebris)
	g.debris.Tick(dt)

	g.perf.StartPhase(telemetry.PhaseFlush)
	g.entities.Flush()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.waveLog.ObserveFragments(g.entities.Count(components.KindFragment))
	g.flushTelemetry(dt)

	g.perf.EndTick()
	g.tick++
}

// integrateShip applies control input, drag, and toroidal wrap to the
// reference actor. An active stun freezes both steering and motion.
func (g *Game) integrateShip(dt float32) {
	if !g.entities.Live(g.ship) {
		return
	}
	cfg := config.Cfg()
	ship := g.entities.Ship(g.ship)
	pos := g.entities.Pos(g.ship)
	vel := g.entities.Vel(g.ship)
	if ship == nil || pos == nil || vel == nil {
		return
	}

	factor := g.status.SpeedFactor(g.ship)
	if factor > 0 {
		ship.Heading += g.turnInput * float32(cfg.Ship.TurnRate) * dt

		if g.thrustInput > 0 {
			ax := float32(math.Cos(float64(ship.Heading))) * float32(cfg.Ship.Accel) * g.thrustInput
			ay := float32(math.Sin(float64(ship.Heading))) * float32(cfg.Ship.Accel) * g.thrustInput
			vel.X += ax * dt
			vel.Y += ay * dt
			if !g.headless {
				g.debris.EmitExhaust(pos.X, pos.Y,
					float32(math.Cos(float64(ship.Heading))), float32(math.Sin(float64(ship.Heading))))
			}
		}
	}

	vel.X *= float32(cfg.Ship.Drag)
	vel.Y *= float32(cfg.Ship.Drag)

	maxSpeed := float32(cfg.Ship.MaxSpeed)
	if speed := hypot32(vel.X, vel.Y); speed > maxSpeed {
		vel.X *= maxSpeed / speed
		vel.Y *= maxSpeed / speed
	}

	pos.X, pos.Y = systems.WrapPosition(
		pos.X+vel.X*dt*factor, pos.Y+vel.Y*dt*factor,
		cfg.Derived.ArenaW32, cfg.Derived.ArenaH32)

	// Inputs are per-tick; collaborators re-issue them every frame.
	g.thrustInput = 0
	g.turnInput = 0
}

// integrateFragments moves fragments by their drift velocity scaled by
// any status-effect speed factor, wrapping at the arena edges.
func (g *Game) integrateFragments(dt float32) {
	cfg := config.Cfg()
	for _, e := range g.entities.Fragments() {
		pos := g.entities.Pos(e)
		vel := g.entities.Vel(e)
		if pos == nil || vel == nil {
			continue
		}
		factor := g.status.SpeedFactor(e)
		pos.X, pos.Y = systems.WrapPosition(
			pos.X+vel.X*dt*factor, pos.Y+vel.Y*dt*factor,
			cfg.Derived.ArenaW32, cfg.Derived.ArenaH32)
	}
}

// resolveProjectileHits sweeps every projectile against the fragment
// group and resolves at most one hit per projectile, in ascending
// projectile id order. The projectile is spent on impact.
func (g *Game) resolveProjectileHits(dt float32) {
	contacts, err := g.collision.SweepGroup(GroupProjectiles, GroupFragments, dt)
	if err != nil {
		return
	}
	for _, c := range contacts {
		if !g.entities.Live(c.A) || !g.entities.Live(c.B) {
			continue
		}
		vel := g.entities.Vel(c.A)
		var dirX, dirY float32
		if vel != nil {
			if speed := hypot32(vel.X, vel.Y); speed > 1e-4 {
				dirX, dirY = vel.X/speed, vel.Y/speed
			}
		}

		g.collector.Record(telemetry.NewHitEvent(g.tick, c.A.ID(), c.B.ID(), 1))
		g.waveLog.RecordHit()
		g.entities.Release(c.A)

		if pos := g.entities.Pos(c.B); pos != nil && !g.headless {
			g.debris.EmitSpark(pos.X, pos.Y, dirX, dirY)
		}
		g.damageFragment(c.B, 1, dirX, dirY)
	}
}

// resolveShipImpacts handles fragment collisions with the reference
// actor: knockback plus the configured stun and slow debuffs. The
// fragment survives; ramming is not a substitute for shooting.
func (g *Game) resolveShipImpacts() {
	contacts, err := g.collision.Overlaps(GroupShip, GroupFragments)
	if err != nil {
		return
	}
	cfg := config.Cfg()
	for _, c := range contacts {
		if !g.entities.Live(c.A) || !g.entities.Live(c.B) {
			continue
		}
		// Already reeling from an impact; skip until the stun clears.
		if g.status.Stunned(c.A) {
			continue
		}

		if vel := g.entities.Vel(c.A); vel != nil {
			vel.X += c.NX * float32(cfg.Ship.Knockback)
			vel.Y += c.NY * float32(cfg.Ship.Knockback)
		}
		g.status.Apply(c.A, systems.Stun(float32(cfg.Effects.ImpactStunDuration)))
		g.status.Apply(c.A, systems.Slow(
			float32(cfg.Effects.ImpactSlowMagnitude), float32(cfg.Effects.ImpactSlowDuration)))

		g.collector.Record(telemetry.NewShipImpactEvent(g.tick, c.A.ID(), c.B.ID()))
		if pos := g.entities.Pos(c.A); pos != nil && !g.headless {
			g.debris.EmitSpark(pos.X, pos.Y, -c.NX, -c.NY)
		}
	}
}

// damageFragment applies damage to a fragment and fractures it when its
// health is gone. The impact direction seeds the offspring scatter cone.
func (g *Game) damageFragment(e ecs.Entity, amount, dirX, dirY float32) {
	if !g.entities.Live(e) {
		return
	}
	frag := g.entities.Fragment(e)
	if frag == nil {
		return
	}

	frag.Health -= amount
	if frag.Health > 0 {
		cfg := config.Cfg()
		if cfg.Effects.BurnOnHit && amount >= 1 {
			g.status.Apply(e, systems.Burn(
				float32(cfg.Effects.BurnMagnitude),
				float32(cfg.Effects.BurnDuration),
				float32(cfg.Effects.BurnInterval)))
		}
		return
	}

	points := int64(frag.Points)
	var burstAt *components.Position
	if pos := g.entities.Pos(e); pos != nil {
		p := *pos
		burstAt = &p
	}
	color := frag.BaseColor

	children, err := g.fracture.Fracture(e, dirX, dirY)
	if err != nil {
		return
	}

	g.score += points
	g.collector.RecordScore(points)
	g.collector.Record(telemetry.NewFractureEvent(g.tick, e.ID(), len(children)))
	g.waveLog.RecordFracture()
	g.waveLog.RecordScore(points)
	if burstAt != nil && !g.headless {
		g.debris.EmitBurst(burstAt.X, burstAt.Y, color)
	}
}

// onWaveSpawned runs after each wave spawn: close out the previous wave's
// stats, open the new one, and log the event.
func (g *Game) onWaveSpawned(ev systems.WaveEvent) {
	dt := config.Cfg().Derived.DT32
	if prev := g.waveLog.Close(ev.Index-1, g.tick, dt); prev != nil && g.output != nil {
		g.output.WriteWave(*prev)
	}
	g.waveLog.Begin(ev.Index, g.tick, ev.Spawned, ev.Fallbacks)
	g.collector.RecordWave(ev.Spawned, ev.Fallbacks)

	Logf("[WAVE %d] spawned %d/%d fragments (%d fallback placements)",
		ev.Index, ev.Spawned, ev.Requested, ev.Fallbacks)
}

func hypot32(x, y float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y)))
}
