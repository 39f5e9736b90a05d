// Package genetics models the heritable trait bundle carried by debris
// fragments. Traits are immutable once attached; fracture produces a new
// mutated bundle for each offspring.
package genetics

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// Trait clamp bounds. Mutation may never push a modifier outside these,
// regardless of how many generations accumulate.
const (
	SpeedModMin = 0.5
	SpeedModMax = 2.0
	SizeModMin  = 0.7
	SizeModMax  = 1.3
	MassModMin  = 0.7
	MassModMax  = 1.3

	// Max hue drift per generation, in degrees either direction.
	hueDriftMax = 5
)

// Traits holds the multiplicative modifiers a fragment inherits.
// All modifiers are relative to the size archetype baseline (1.0 = stock).
type Traits struct {
	SpeedMod   float32 // scatter speed multiplier
	SizeMod    float32 // collision radius multiplier
	MassMod    float32 // mass multiplier
	ColorShift int16   // accumulated hue drift in degrees, [0, 360)
	Generation int32   // fracture steps from the root ancestor
}

// Root returns the neutral trait bundle attached to wave-spawned objects.
func Root() Traits {
	return Traits{SpeedMod: 1, SizeMod: 1, MassMod: 1}
}

// Variance holds per-trait mutation rates as fractions (0.10 = ±10%).
type Variance struct {
	Speed float32
	Size  float32
	Mass  float32
}

// Mutate derives an offspring bundle from parent. Each modifier is scaled
// by an independent uniform draw from [1-v, 1+v] and clamped to its bounds.
// Hue drifts by a uniform integer step and wraps mod 360.
func Mutate(parent Traits, v Variance, rng *rand.Rand) Traits {
	return Traits{
		SpeedMod:   clampTrait(parent.SpeedMod*drawScale(v.Speed, rng), SpeedModMin, SpeedModMax),
		SizeMod:    clampTrait(parent.SizeMod*drawScale(v.Size, rng), SizeModMin, SizeModMax),
		MassMod:    clampTrait(parent.MassMod*drawScale(v.Mass, rng), MassModMin, MassModMax),
		ColorShift: wrapDegrees(int(parent.ColorShift) + rng.Intn(hueDriftMax*2+1) - hueDriftMax),
		Generation: parent.Generation + 1,
	}
}

// Signature hashes the trait values rounded to two decimals into a stable
// pattern key. Fragments with indistinguishable traits share a signature,
// which is what the discovery ledger counts.
func (t Traits) Signature() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%d|%d",
		roundCenti(t.SpeedMod), roundCenti(t.SizeMod), roundCenti(t.MassMod), t.ColorShift)
	return h.Sum64()
}

// ShiftColor tints an RGB base color by the accumulated hue drift.
// This is a cheap channel-rotation approximation rather than a true HSV
// conversion; it keeps grayscale archetypes visibly tinted per lineage.
func ShiftColor(r, g, b uint8, shift int16) (uint8, uint8, uint8) {
	if shift == 0 {
		return r, g, b
	}
	f := float32(shift) / 360.0
	return wrapChannel(int(r) + int(f*50)),
		wrapChannel(int(g) - int(f*25)),
		wrapChannel(int(b) + int(f*75))
}

func drawScale(v float32, rng *rand.Rand) float32 {
	return 1 - v + rng.Float32()*2*v
}

func clampTrait(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

func roundCenti(x float32) int {
	return int(math.Round(float64(x) * 100))
}

func wrapDegrees(d int) int16 {
	d %= 360
	if d < 0 {
		d += 360
	}
	return int16(d)
}

func wrapChannel(c int) uint8 {
	c %= 256
	if c < 0 {
		c += 256
	}
	return uint8(c)
}
