package components

import "github.com/mlange-42/ark/ecs"

// Projectile is a short-lived pooled shot. Age counts up in simulation
// seconds; the projectile system releases it once Age exceeds Lifetime.
type Projectile struct {
	Owner    ecs.Entity // entity that fired it, for scoring and cooldowns
	Age      float32
	Lifetime float32
}

// Ship marks the player-controlled entity and holds its facing.
type Ship struct {
	Heading float32 // radians
}

// Cannon tracks per-owner fire-rate limiting in elapsed simulation time.
// Cooldown counts down by dt each tick; firing is allowed at zero.
type Cannon struct {
	Cooldown float32
}
