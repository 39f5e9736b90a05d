package game

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/systems"
	"github.com/pthm-cable/rubble/telemetry"
)

// Intent is a structured command issued by gameplay collaborators: input
// handlers, the autopilot, or embedding code. Each variant carries a
// statically typed payload and is dispatched by Game.Apply.
type Intent interface{ intent() }

// FireIntent requests a shot from the ship's cannon.
type FireIntent struct{}

// ThrustIntent sets the ship's control axes for the current tick.
// Thrust is clamped to [0,1], Turn to [-1,1].
type ThrustIntent struct {
	Thrust float32
	Turn   float32
}

// ApplyEffectIntent attaches a status effect to an entity.
type ApplyEffectIntent struct {
	Target ecs.Entity
	Effect systems.Effect
}

// SpawnWaveIntent forces an immediate wave spawn with the difficulty of
// the given index, bypassing completion detection. Index 0 means the
// next wave in sequence.
type SpawnWaveIntent struct {
	Index int
}

// ReleaseIntent queues an entity for end-of-frame release.
type ReleaseIntent struct {
	Target ecs.Entity
}

func (FireIntent) intent()        {}
func (ThrustIntent) intent()      {}
func (ApplyEffectIntent) intent() {}
func (SpawnWaveIntent) intent()   {}
func (ReleaseIntent) intent()     {}

// IntentResult reports the outcome of one intent. Recoverable refusals
// (pool exhausted, rate limited) come back with OK false and the sentinel
// in Err; they are not fatal and the caller simply tries again later.
type IntentResult struct {
	OK     bool
	Entity ecs.Entity // spawned projectile for fire intents
	Count  int        // fragments spawned for wave intents
	Err    error
}

func intentOK() IntentResult { return IntentResult{OK: true} }

func intentErr(err error) IntentResult { return IntentResult{Err: err} }

// Apply dispatches an intent against the simulation. Safe to call between
// ticks; effects are visible from the next simulation step at the latest.
func (g *Game) Apply(intent Intent) IntentResult {
	switch it := intent.(type) {
	case FireIntent:
		return g.applyFire()
	case ThrustIntent:
		g.thrustInput = clamp32(it.Thrust, 0, 1)
		g.turnInput = clamp32(it.Turn, -1, 1)
		return intentOK()
	case ApplyEffectIntent:
		if err := g.status.Apply(it.Target, it.Effect); err != nil {
			return intentErr(err)
		}
		return intentOK()
	case SpawnWaveIntent:
		index := it.Index
		if index <= 0 {
			index = g.waves.Wave() + 1
		}
		spawned, err := g.waves.SpawnWave(systems.Difficulty(index))
		if err != nil {
			return intentErr(err)
		}
		return IntentResult{OK: true, Count: spawned}
	case ReleaseIntent:
		g.entities.Release(it.Target)
		return intentOK()
	}
	return intentErr(fmt.Errorf("unhandled intent %T: %w", intent, systems.ErrInvalidArgument))
}

// applyFire fires the ship's cannon, recording the outcome either way.
func (g *Game) applyFire() IntentResult {
	if !g.entities.Live(g.ship) {
		return intentErr(fmt.Errorf("no live ship: %w", systems.ErrInvalidArgument))
	}
	proj, err := g.projectiles.Fire(g.ship)
	switch {
	case err == nil:
		g.collector.Record(telemetry.NewShotFiredEvent(g.tick, g.ship.ID()))
		g.waveLog.RecordShot()
		return IntentResult{OK: true, Entity: proj}
	case errors.Is(err, systems.ErrRateLimited):
		g.collector.Record(telemetry.NewRateLimitedEvent(g.tick, g.ship.ID()))
		return intentErr(err)
	case errors.Is(err, systems.ErrPoolExhausted):
		g.collector.Record(telemetry.NewPoolExhaustedEvent(g.tick))
		return intentErr(err)
	}
	return intentErr(err)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
