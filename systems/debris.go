package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/rubble/components"
)

// DebrisSystemName is the registry name for the debris system.
const DebrisSystemName = "debris"

// DebrisType identifies the kind of cosmetic debris particle.
type DebrisType uint8

const (
	DebrisBurst DebrisType = iota
	DebrisSpark
	DebrisExhaust
)

// DebrisParticle is one cosmetic particle. Life counts ticks.
type DebrisParticle struct {
	X, Y       float32
	VelX, VelY float32
	Life       int32
	MaxLife    int32
	Type       DebrisType
	Size       float32
	Color      components.Color
}

// DebrisSystem manages cosmetic particles for fracture bursts, impact
// sparks, and thruster exhaust. Purely visual: it has its own random
// stream so emission never perturbs the simulation.
type DebrisSystem struct {
	Particles    []DebrisParticle
	maxParticles int
	rng          *rand.Rand
}

// NewDebrisSystem creates a debris system with the given random stream.
func NewDebrisSystem(rng *rand.Rand) *DebrisSystem {
	return &DebrisSystem{
		Particles:    make([]DebrisParticle, 0, 512),
		maxParticles: 512,
		rng:          rng,
	}
}

// Name returns the registry name.
func (s *DebrisSystem) Name() string { return DebrisSystemName }

// Init prepares the system.
func (s *DebrisSystem) Init() error { return nil }

// Tick ages and moves all particles, compacting out the dead ones.
func (s *DebrisSystem) Tick(dt float32) {
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		// Sparks die down hard, everything else coasts.
		switch p.Type {
		case DebrisSpark:
			p.VelX *= 0.85
			p.VelY *= 0.85
		default:
			p.VelX *= 0.95
			p.VelY *= 0.95
		}

		p.X += p.VelX
		p.Y += p.VelY

		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// Shutdown drops all particles.
func (s *DebrisSystem) Shutdown() {
	s.Particles = s.Particles[:0]
}

// EmitBurst emits a radial burst of 8-14 tinted particles at a fracture site.
func (s *DebrisSystem) EmitBurst(x, y float32, color components.Color) {
	count := 8 + s.rng.Intn(7)
	for i := 0; i < count; i++ {
		if len(s.Particles) >= s.maxParticles {
			return
		}

		angle := s.rng.Float32() * 2 * math.Pi
		speed := 0.5 + s.rng.Float32()*0.8
		life := int32(30 + s.rng.Intn(30))

		s.Particles = append(s.Particles, DebrisParticle{
			X:       x + (s.rng.Float32()-0.5)*4,
			Y:       y + (s.rng.Float32()-0.5)*4,
			VelX:    float32(math.Cos(float64(angle))) * speed,
			VelY:    float32(math.Sin(float64(angle))) * speed,
			Life:    life,
			MaxLife: life,
			Type:    DebrisBurst,
			Size:    1.5 + s.rng.Float32(),
			Color:   color,
		})
	}
}

// EmitSpark emits a short back-scatter of 3-5 sparks against the impact
// direction.
func (s *DebrisSystem) EmitSpark(x, y, dirX, dirY float32) {
	back := float32(math.Atan2(float64(-dirY), float64(-dirX)))
	count := 3 + s.rng.Intn(3)
	for i := 0; i < count; i++ {
		if len(s.Particles) >= s.maxParticles {
			return
		}

		angle := back + (s.rng.Float32()-0.5)*0.8
		speed := 0.8 + s.rng.Float32()*1.2
		life := int32(10 + s.rng.Intn(10))

		s.Particles = append(s.Particles, DebrisParticle{
			X:       x,
			Y:       y,
			VelX:    float32(math.Cos(float64(angle))) * speed,
			VelY:    float32(math.Sin(float64(angle))) * speed,
			Life:    life,
			MaxLife: life,
			Type:    DebrisSpark,
			Size:    1 + s.rng.Float32()*0.5,
			Color:   components.Color{R: 255, G: 220, B: 120},
		})
	}
}

// EmitExhaust emits thruster exhaust behind a moving ship (40% chance
// per call, so sustained thrust reads as a dotted trail).
func (s *DebrisSystem) EmitExhaust(x, y, dirX, dirY float32) {
	if s.rng.Float32() > 0.4 {
		return
	}
	if len(s.Particles) >= s.maxParticles {
		return
	}

	back := float32(math.Atan2(float64(-dirY), float64(-dirX)))
	angle := back + (s.rng.Float32()-0.5)*0.4
	speed := 0.4 + s.rng.Float32()*0.4
	life := int32(12 + s.rng.Intn(8))

	s.Particles = append(s.Particles, DebrisParticle{
		X:       x,
		Y:       y,
		VelX:    float32(math.Cos(float64(angle))) * speed,
		VelY:    float32(math.Sin(float64(angle))) * speed,
		Life:    life,
		MaxLife: life,
		Type:    DebrisExhaust,
		Size:    1 + s.rng.Float32()*0.5,
		Color:   components.Color{R: 160, G: 200, B: 255},
	})
}

// Count returns the number of active particles.
func (s *DebrisSystem) Count() int {
	return len(s.Particles)
}

// Status reports particle pool usage.
func (s *DebrisSystem) Status() Status {
	st := NewStatus(DebrisSystemName)
	st.Counts["active"] = len(s.Particles)
	st.Counts["capacity"] = s.maxParticles
	return st
}
