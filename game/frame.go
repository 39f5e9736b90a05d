package game

import (
	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/systems"
)

// Frame is the read-only per-tick snapshot the presentation layer
// consumes. The simulation never draws; viewers read frames and nothing
// else.
type Frame struct {
	Tick      uint64
	Wave      int
	Score     int64
	Countdown float32 // seconds until the next wave, zero mid-wave

	Fragments   []FragmentView
	Projectiles []ProjectileView
	Ship        *ShipView

	// Safe-haven zone active for the next spawn batch, for debug overlays.
	HavenX, HavenY, HavenRadius float32
}

// FragmentView is the drawable state of one fragment.
type FragmentView struct {
	ID         uint32
	X, Y       float32
	Radius     float32
	Angle      float32
	Size       uint8
	Color      components.Color
	OutlineKey string // stable per-fragment seed for the silhouette
	Generation int32
	Burning    bool
}

// ProjectileView is the drawable state of one projectile.
type ProjectileView struct {
	X, Y   float32
	Radius float32
}

// ShipView is the drawable state of the reference actor.
type ShipView struct {
	X, Y     float32
	Heading  float32
	Radius   float32
	Cooldown float32
	Stunned  bool
	Slowed   bool
	Thrust   bool
}

// Frame builds the current frame snapshot. The returned value shares
// nothing with simulation state and stays valid after further ticks.
func (g *Game) Frame() *Frame {
	f := &Frame{
		Tick:      g.tick,
		Wave:      g.waves.Wave(),
		Score:     g.score,
		Countdown: g.waves.Countdown(),
	}

	for _, e := range g.entities.Fragments() {
		pos := g.entities.Pos(e)
		body := g.entities.Body(e)
		frag := g.entities.Fragment(e)
		genome := g.entities.Genome(e)
		if pos == nil || body == nil || frag == nil {
			continue
		}
		view := FragmentView{
			ID: e.ID(), X: pos.X, Y: pos.Y,
			Radius: body.Radius, Angle: frag.Angle,
			Size: frag.Size, Color: frag.BaseColor,
			OutlineKey: frag.GeneticID,
			Burning:    g.status.Has(e, systems.EffectBurn),
		}
		if genome != nil {
			view.Generation = genome.Traits.Generation
		}
		f.Fragments = append(f.Fragments, view)
	}

	for _, e := range g.entities.Projectiles() {
		pos := g.entities.Pos(e)
		body := g.entities.Body(e)
		if pos == nil || body == nil {
			continue
		}
		f.Projectiles = append(f.Projectiles, ProjectileView{X: pos.X, Y: pos.Y, Radius: body.Radius})
	}

	if g.entities.Live(g.ship) {
		pos := g.entities.Pos(g.ship)
		body := g.entities.Body(g.ship)
		ship := g.entities.Ship(g.ship)
		cannon := g.entities.Cannon(g.ship)
		if pos != nil && body != nil && ship != nil {
			view := &ShipView{
				X: pos.X, Y: pos.Y,
				Heading: ship.Heading, Radius: body.Radius,
				Stunned: g.status.Stunned(g.ship),
				Slowed:  g.status.Has(g.ship, systems.EffectSlow),
			}
			if cannon != nil {
				view.Cooldown = cannon.Cooldown
			}
			f.Ship = view
			f.HavenX, f.HavenY = pos.X, pos.Y
		}
	}
	f.HavenRadius = systems.Difficulty(f.Wave + 1).SafeRadius

	return f
}
