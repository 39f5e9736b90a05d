package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/genetics"
)

// FractureSystemName is the registry name for the fracture system.
const FractureSystemName = "fracture"

// LineageEdge records one parent-to-child inheritance event.
type LineageEdge struct {
	Tick       uint64
	ParentID   string
	ChildID    string
	Generation int32
}

// Discovery records the first sighting of a trait signature.
type Discovery struct {
	Tick      uint64
	Signature uint64
	Traits    genetics.Traits
}

// LineageStats summarizes the lineage ledger.
type LineageStats struct {
	DistinctSignatures int
	MaxGeneration      int32
	EdgesRecorded      uint64
}

// Ledger accumulates lineage edges and trait discoveries for telemetry.
// Edges and discoveries are drained by the consumer; counts persist for
// the lifetime of the run.
type Ledger struct {
	edges       []LineageEdge
	discoveries []Discovery
	seen        map[uint64]int // signature -> observation count
	maxGen      int32
	edgesTotal  uint64
}

func newLedger() *Ledger {
	return &Ledger{seen: make(map[uint64]int)}
}

// observe records one trait sighting and reports whether the signature is new.
func (l *Ledger) observe(tick uint64, traits genetics.Traits) bool {
	if traits.Generation > l.maxGen {
		l.maxGen = traits.Generation
	}
	sig := traits.Signature()
	l.seen[sig]++
	if l.seen[sig] > 1 {
		return false
	}
	l.discoveries = append(l.discoveries, Discovery{Tick: tick, Signature: sig, Traits: traits})
	return true
}

func (l *Ledger) addEdge(edge LineageEdge) {
	l.edges = append(l.edges, edge)
	l.edgesTotal++
}

// DrainEdges returns the buffered lineage edges and clears the buffer.
func (l *Ledger) DrainEdges() []LineageEdge {
	out := l.edges
	l.edges = nil
	return out
}

// DrainDiscoveries returns the buffered discoveries and clears the buffer.
func (l *Ledger) DrainDiscoveries() []Discovery {
	out := l.discoveries
	l.discoveries = nil
	return out
}

// Stats summarizes the ledger.
func (l *Ledger) Stats() LineageStats {
	return LineageStats{
		DistinctSignatures: len(l.seen),
		MaxGeneration:      l.maxGen,
		EdgesRecorded:      l.edgesTotal,
	}
}

// FractureSystem breaks fragments into scattered offspring and tracks the
// resulting lineage. Every fragment entering the world goes through this
// system, either as a wave-spawned root or as a fracture child, so the
// ledger sees the full population.
type FractureSystem struct {
	em  *EntityManager
	rng *rand.Rand

	ledger *Ledger
	tick   uint64

	fracturesTotal  uint64
	childrenTotal   uint64
	childrenSkipped uint64
	rootsTotal      uint64
}

// NewFractureSystem creates a fracture system. The supplied generator
// drives scatter angles, jitter, and trait mutation.
func NewFractureSystem(em *EntityManager, rng *rand.Rand) *FractureSystem {
	return &FractureSystem{em: em, rng: rng, ledger: newLedger()}
}

// Name returns the registry name.
func (s *FractureSystem) Name() string { return FractureSystemName }

// Init prepares the system.
func (s *FractureSystem) Init() error { return nil }

// Tick advances the ledger clock.
func (s *FractureSystem) Tick(dt float32) { s.tick++ }

// Shutdown drops the accumulated lineage.
func (s *FractureSystem) Shutdown() {
	s.ledger = newLedger()
}

// Lineage exposes the lineage ledger.
func (s *FractureSystem) Lineage() *Ledger { return s.ledger }

// Fracture destroys a fragment and scatters its offspring: a size 3
// fragment yields two of size 2, a size 2 yields two of size 1, and a
// size 1 vanishes. Children scatter inside a cone around the impact
// direction, falling back to the parent's motion, then to a random
// heading. When the fragment pool cannot hold a child the child is
// skipped; fracture itself never fails for lack of slots. The returned
// slice holds the children actually spawned.
func (s *FractureSystem) Fracture(parent ecs.Entity, impactDirX, impactDirY float32) ([]ecs.Entity, error) {
	if !s.em.Live(parent) {
		return nil, fmt.Errorf("fracturing dead entity: %w", ErrInvalidArgument)
	}
	frag := s.em.Fragment(parent)
	if frag == nil {
		return nil, fmt.Errorf("fracturing non-fragment entity: %w", ErrInvalidArgument)
	}
	if frag.Size < 1 || frag.Size > 3 {
		return nil, fmt.Errorf("fracturing fragment of size %d: %w", frag.Size, ErrInvalidArgument)
	}

	// Copy parent state before any spawning invalidates component pointers.
	parentSize := frag.Size
	parentID := frag.GeneticID
	parentPos := *s.em.Pos(parent)
	parentVel := *s.em.Vel(parent)
	parentTraits := s.em.Genome(parent).Traits

	s.em.Release(parent)
	s.fracturesTotal++

	if parentSize == 1 {
		return nil, nil
	}

	cfg := config.Cfg()
	childSize := parentSize - 1
	baseAngle := s.scatterBase(impactDirX, impactDirY, parentVel)
	jitter := float32(cfg.Fracture.PositionJitter)
	inherit := float32(cfg.Fracture.ParentVelocityFactor)

	children := make([]ecs.Entity, 0, 2)
	for i := 0; i < 2; i++ {
		traits := genetics.Root()
		if cfg.Fracture.Genetics {
			variance := genetics.Variance{
				Speed: float32(cfg.Fracture.Variance.Speed),
				Size:  float32(cfg.Fracture.Variance.Size),
				Mass:  float32(cfg.Fracture.Variance.Mass),
			}
			traits = genetics.Mutate(parentTraits, variance, s.rng)
		}

		angle := baseAngle + randRange(s.rng, -cfg.Derived.ScatterRad, cfg.Derived.ScatterRad)
		speed := randRange(s.rng, float32(cfg.Fracture.SpeedMin), float32(cfg.Fracture.SpeedMax)) * traits.SpeedMod

		pos := components.Position{
			X: parentPos.X + randRange(s.rng, -jitter, jitter),
			Y: parentPos.Y + randRange(s.rng, -jitter, jitter),
		}
		vel := components.Velocity{
			X: float32(math.Cos(float64(angle)))*speed + parentVel.X*inherit,
			Y: float32(math.Sin(float64(angle)))*speed + parentVel.Y*inherit,
		}

		child, childID, err := s.newFragment(childSize, pos, vel, traits, parentID)
		if err != nil {
			s.childrenSkipped++
			continue
		}
		s.childrenTotal++
		s.ledger.addEdge(LineageEdge{
			Tick:       s.tick,
			ParentID:   parentID,
			ChildID:    childID,
			Generation: traits.Generation,
		})
		children = append(children, child)
	}
	return children, nil
}

// SpawnRoot creates a wave-spawned fragment with neutral traits at
// generation zero. Fails with ErrPoolExhausted when no slot is free.
func (s *FractureSystem) SpawnRoot(size uint8, pos components.Position, vel components.Velocity) (ecs.Entity, error) {
	if size < 1 || size > 3 {
		return ecs.Entity{}, fmt.Errorf("spawning root fragment of size %d: %w", size, ErrInvalidArgument)
	}
	e, _, err := s.newFragment(size, pos, vel, genetics.Root(), "")
	if err != nil {
		return ecs.Entity{}, err
	}
	s.rootsTotal++
	return e, nil
}

// scatterBase picks the center of the scatter cone: the impact direction
// when one is known, otherwise the parent's motion, otherwise random.
func (s *FractureSystem) scatterBase(impactDirX, impactDirY float32, parentVel components.Velocity) float32 {
	if velocityMagnitude(impactDirX, impactDirY) > 1e-4 {
		return float32(math.Atan2(float64(impactDirY), float64(impactDirX)))
	}
	if velocityMagnitude(parentVel.X, parentVel.Y) > 1e-4 {
		return float32(math.Atan2(float64(parentVel.Y), float64(parentVel.X)))
	}
	return s.rng.Float32() * 2 * math.Pi
}

// newFragment builds one fragment entity from its size archetype and
// traits, registers it with the ledger, and returns its lineage id.
func (s *FractureSystem) newFragment(size uint8, pos components.Position, vel components.Velocity, traits genetics.Traits, parentID string) (ecs.Entity, string, error) {
	cfg := config.Cfg()
	arch := cfg.Derived.SizeByClass[size]

	color := components.Color{R: arch.Shade, G: arch.Shade, B: arch.Shade}
	if cfg.Fracture.Genetics && traits.ColorShift != 0 {
		r, g, b := genetics.ShiftColor(arch.Shade, arch.Shade, arch.Shade, traits.ColorShift)
		color = components.Color{R: r, G: g, B: b}
	}

	id := uuid.NewString()
	e, err := s.em.SpawnFragment(
		pos,
		vel,
		components.Body{
			Radius: float32(arch.Radius) * traits.SizeMod,
			Mass:   float32(size) * traits.MassMod,
		},
		components.Fragment{
			Size:      size,
			Health:    float32(arch.Health),
			Points:    int32(arch.Points),
			BaseColor: color,
			GeneticID: id,
			ParentID:  parentID,
			Spin:      randRange(s.rng, -2, 2),
		},
		components.Genome{Traits: traits},
	)
	if err != nil {
		return ecs.Entity{}, "", err
	}
	s.ledger.observe(s.tick, traits)
	return e, id, nil
}

// Status reports fracture and lineage totals.
func (s *FractureSystem) Status() Status {
	st := NewStatus(FractureSystemName)
	stats := s.ledger.Stats()
	st.Counts["fractures_total"] = int(s.fracturesTotal)
	st.Counts["children_total"] = int(s.childrenTotal)
	st.Counts["children_skipped"] = int(s.childrenSkipped)
	st.Counts["roots_total"] = int(s.rootsTotal)
	st.Counts["distinct_signatures"] = stats.DistinctSignatures
	st.Counts["max_generation"] = int(stats.MaxGeneration)
	return st
}
