package game

import (
	"fmt"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/genetics"
	"github.com/pthm-cable/rubble/systems"
	"github.com/pthm-cable/rubble/telemetry"
)

// Snapshot captures the complete simulation state for later restore.
func (g *Game) Snapshot() *telemetry.Snapshot {
	cfg := config.Cfg()
	snap := &telemetry.Snapshot{
		Version:       telemetry.SnapshotVersion,
		RNGSeed:       g.seed,
		Preset:        cfg.Preset,
		ArenaWidth:    cfg.Derived.ArenaW32,
		ArenaHeight:   cfg.Derived.ArenaH32,
		Tick:          g.tick,
		Wave:          g.waves.Wave(),
		Score:         g.score,
		WaveCountdown: g.waves.Countdown(),
	}

	for _, e := range g.entities.Fragments() {
		pos := g.entities.Pos(e)
		vel := g.entities.Vel(e)
		frag := g.entities.Fragment(e)
		genome := g.entities.Genome(e)
		if pos == nil || vel == nil || frag == nil || genome == nil {
			continue
		}
		snap.Fragments = append(snap.Fragments, telemetry.FragmentState{
			ID: e.ID(), Size: frag.Size,
			X: pos.X, Y: pos.Y, VelX: vel.X, VelY: vel.Y,
			Angle: frag.Angle, Spin: frag.Spin,
			Health: frag.Health, Points: frag.Points, BaseColor: frag.BaseColor,
			GeneticID: frag.GeneticID, ParentID: frag.ParentID,
			SpeedMod: genome.Traits.SpeedMod, SizeMod: genome.Traits.SizeMod,
			MassMod: genome.Traits.MassMod, ColorShift: genome.Traits.ColorShift,
			Generation: genome.Traits.Generation,
		})
		if effects := g.status.ActiveOn(e); len(effects) > 0 {
			snap.Effects = append(snap.Effects, effectSetOf(e.ID(), effects))
		}
	}

	for _, e := range g.entities.Projectiles() {
		pos := g.entities.Pos(e)
		vel := g.entities.Vel(e)
		proj := g.entities.Projectile(e)
		if pos == nil || vel == nil || proj == nil {
			continue
		}
		snap.Projectiles = append(snap.Projectiles, telemetry.ProjectileState{
			ID: e.ID(), OwnerID: proj.Owner.ID(),
			X: pos.X, Y: pos.Y, VelX: vel.X, VelY: vel.Y,
			Age: proj.Age, Life: proj.Lifetime,
		})
	}

	if g.entities.Live(g.ship) {
		pos := g.entities.Pos(g.ship)
		vel := g.entities.Vel(g.ship)
		ship := g.entities.Ship(g.ship)
		cannon := g.entities.Cannon(g.ship)
		if pos != nil && vel != nil && ship != nil && cannon != nil {
			snap.Ship = &telemetry.ShipState{
				ID: g.ship.ID(),
				X:  pos.X, Y: pos.Y, VelX: vel.X, VelY: vel.Y,
				Heading: ship.Heading, Cooldown: cannon.Cooldown,
			}
			if effects := g.status.ActiveOn(g.ship); len(effects) > 0 {
				snap.Effects = append(snap.Effects, effectSetOf(g.ship.ID(), effects))
			}
		}
	}

	return snap
}

// RestoreSnapshot rebuilds the simulation from a saved snapshot. The
// current population is discarded; fragment ids change but lineage ids,
// traits, effects, and wave progression are preserved.
func (g *Game) RestoreSnapshot(snap *telemetry.Snapshot) error {
	if snap.Version != telemetry.SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d: %w",
			snap.Version, telemetry.SnapshotVersion, systems.ErrInvalidArgument)
	}

	for _, e := range g.entities.Fragments() {
		g.entities.Release(e)
	}
	for _, e := range g.entities.Projectiles() {
		g.entities.Release(e)
	}
	g.entities.Flush()

	effectsByID := make(map[uint32][]systems.ActiveEffect, len(snap.Effects))
	for _, set := range snap.Effects {
		actives := make([]systems.ActiveEffect, len(set.Effects))
		for i, es := range set.Effects {
			actives[i] = es.ToActive()
		}
		effectsByID[set.EntityID] = actives
	}

	cfg := config.Cfg()
	for _, fs := range snap.Fragments {
		arch := cfg.Derived.SizeByClass[fs.Size]
		e, err := g.entities.SpawnFragment(
			components.Position{X: fs.X, Y: fs.Y},
			components.Velocity{X: fs.VelX, Y: fs.VelY},
			components.Body{
				Radius: float32(arch.Radius) * fs.SizeMod,
				Mass:   float32(fs.Size) * fs.MassMod,
			},
			components.Fragment{
				Size: fs.Size, Health: fs.Health, Points: fs.Points,
				BaseColor: fs.BaseColor, GeneticID: fs.GeneticID,
				ParentID: fs.ParentID, Spin: fs.Spin, Angle: fs.Angle,
			},
			components.Genome{Traits: genetics.Traits{
				SpeedMod: fs.SpeedMod, SizeMod: fs.SizeMod, MassMod: fs.MassMod,
				ColorShift: fs.ColorShift, Generation: fs.Generation,
			}},
		)
		if err != nil {
			return fmt.Errorf("restoring fragment %s: %w", fs.GeneticID, err)
		}
		if actives, ok := effectsByID[fs.ID]; ok {
			if err := g.status.Restore(e, actives); err != nil {
				return err
			}
		}
	}

	// Saved projectiles keep flying; ownership reverts to the ship since
	// the old ids are gone.
	for _, ps := range snap.Projectiles {
		_, err := g.entities.SpawnProjectile(
			components.Position{X: ps.X, Y: ps.Y},
			components.Velocity{X: ps.VelX, Y: ps.VelY},
			components.Body{Radius: float32(cfg.Projectiles.Radius)},
			components.Projectile{Owner: g.ship, Age: ps.Age, Lifetime: ps.Life},
		)
		if err != nil {
			return fmt.Errorf("restoring projectile: %w", err)
		}
	}

	if snap.Ship != nil && g.entities.Live(g.ship) {
		if pos := g.entities.Pos(g.ship); pos != nil {
			pos.X, pos.Y = snap.Ship.X, snap.Ship.Y
		}
		if vel := g.entities.Vel(g.ship); vel != nil {
			vel.X, vel.Y = snap.Ship.VelX, snap.Ship.VelY
		}
		if ship := g.entities.Ship(g.ship); ship != nil {
			ship.Heading = snap.Ship.Heading
		}
		if cannon := g.entities.Cannon(g.ship); cannon != nil {
			cannon.Cooldown = snap.Ship.Cooldown
		}
		if actives, ok := effectsByID[snap.Ship.ID]; ok {
			if err := g.status.Restore(g.ship, actives); err != nil {
				return err
			}
		}
	}

	g.tick = snap.Tick
	g.score = snap.Score
	g.waves.SetWave(snap.Wave)
	return nil
}

func effectSetOf(id uint32, actives []systems.ActiveEffect) telemetry.EffectSet {
	set := telemetry.EffectSet{EntityID: id}
	for _, ae := range actives {
		set.Effects = append(set.Effects, telemetry.EffectStateOf(ae))
	}
	return set
}
