package game

import (
	"math"

	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/systems"
)

// runAutopilot issues thrust and fire intents for unattended runs: turn
// toward the nearest fragment, fire once lined up, and drift back toward
// the arena center when it strays too far. A deliberately simple policy;
// it exists to exercise the combat loop, not to play well.
func (g *Game) runAutopilot() {
	cfg := config.Cfg()
	if !cfg.Autopilot.Enabled || !g.headless {
		return
	}
	if !g.entities.Live(g.ship) {
		return
	}
	pos := g.entities.Pos(g.ship)
	ship := g.entities.Ship(g.ship)
	if pos == nil || ship == nil {
		return
	}

	target, ok := g.collision.Nearest(pos.X, pos.Y, GroupFragments)
	if !ok {
		return
	}
	tPos := g.entities.Pos(target)
	if tPos == nil {
		return
	}

	dx, dy := systems.ToroidalDelta(pos.X, pos.Y, tPos.X, tPos.Y,
		cfg.Derived.ArenaW32, cfg.Derived.ArenaH32)
	want := float32(math.Atan2(float64(dy), float64(dx)))
	errAngle := wrapPi(want - ship.Heading)

	turn := float32(0)
	if errAngle > 0.02 {
		turn = 1
	} else if errAngle < -0.02 {
		turn = -1
	}

	thrust := float32(0)
	cx, cy := cfg.Derived.ArenaW32/2, cfg.Derived.ArenaH32/2
	offCenter := hypot32(pos.X-cx, pos.Y-cy)
	if offCenter > float32(cfg.Autopilot.CenterBias) {
		// Only thrust when roughly facing home, otherwise keep turning.
		toCenter := float32(math.Atan2(float64(cy-pos.Y), float64(cx-pos.X)))
		if absf32(wrapPi(toCenter-ship.Heading)) < 0.6 {
			thrust = float32(cfg.Autopilot.Throttle)
		}
	}
	g.Apply(ThrustIntent{Thrust: thrust, Turn: turn})

	if absf32(errAngle) < float32(cfg.Autopilot.AimTolerance) {
		g.Apply(FireIntent{})
	}
}

// wrapPi wraps an angle to [-pi, pi].
func wrapPi(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
