// Package components defines ECS components for the simulation.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in units per second.
type Velocity struct {
	X, Y float32
}

// Body holds the physical footprint used for collision tests.
type Body struct {
	Radius float32 // world units, trait-scaled at spawn
	Mass   float32
}

// Color is an RGB triple in the simulation's own color space.
// The render layer converts it to whatever the backend wants.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}
