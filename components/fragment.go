package components

import "github.com/pthm-cable/rubble/genetics"

// Fragment is the destructible-object component. Size drives the fracture
// cascade: size 3 splits into two size 2, size 2 into two size 1, size 1
// is destroyed outright.
type Fragment struct {
	Size      uint8
	Health    float32 // hit points remaining; burn damage makes this fractional
	Points    int32   // score awarded on destruction
	BaseColor Color   // archetype color after lineage tint
	GeneticID string  // unique per fragment
	ParentID  string  // empty for wave-spawned roots
	Spin      float32 // visual rotation rate, radians per second
	Angle     float32 // current visual rotation
}

// Genome carries the heritable trait bundle. Wave-spawned roots get a
// neutral bundle; fracture offspring get a mutated copy of the parent's.
type Genome struct {
	Traits genetics.Traits
}
