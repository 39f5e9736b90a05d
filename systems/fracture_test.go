package systems

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
)

type fractureFixture struct {
	em *EntityManager
	fs *FractureSystem
}

func newFractureFixture(t *testing.T, preset string, fragmentCap int) *fractureFixture {
	t.Helper()
	config.MustInitPreset("", preset)
	world := ecs.NewWorld()
	em := NewEntityManager(world, PoolCaps{Fragments: fragmentCap, Projectiles: 8, Ships: 2})
	fs := NewFractureSystem(em, rand.New(rand.NewSource(42)))
	return &fractureFixture{em: em, fs: fs}
}

func TestFractureSizeCascade(t *testing.T) {
	tests := []struct {
		name          string
		parentSize    uint8
		wantChildren  int
		wantChildSize uint8
		wantHealth    float32
		wantPoints    int32
	}{
		{name: "large splits into two mediums", parentSize: 3, wantChildren: 2, wantChildSize: 2, wantHealth: 2, wantPoints: 50},
		{name: "medium splits into two smalls", parentSize: 2, wantChildren: 2, wantChildSize: 1, wantHealth: 1, wantPoints: 100},
		{name: "small vanishes", parentSize: 1, wantChildren: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFractureFixture(t, "", 32)
			parent, err := f.fs.SpawnRoot(tt.parentSize, components.Position{X: 80, Y: 72}, components.Velocity{})
			if err != nil {
				t.Fatalf("SpawnRoot failed: %v", err)
			}

			children, err := f.fs.Fracture(parent, 1, 0)
			if err != nil {
				t.Fatalf("Fracture failed: %v", err)
			}
			if !f.em.PendingRelease(parent) {
				t.Errorf("fractured parent not queued for release")
			}
			if len(children) != tt.wantChildren {
				t.Fatalf("got %d children, want %d", len(children), tt.wantChildren)
			}

			for _, child := range children {
				frag := f.em.Fragment(child)
				if frag.Size != tt.wantChildSize {
					t.Errorf("child size = %d, want %d", frag.Size, tt.wantChildSize)
				}
				if frag.Health != tt.wantHealth {
					t.Errorf("child health = %f, want %f", frag.Health, tt.wantHealth)
				}
				if frag.Points != tt.wantPoints {
					t.Errorf("child points = %d, want %d", frag.Points, tt.wantPoints)
				}
				if frag.GeneticID == "" {
					t.Errorf("child has no lineage id")
				}
			}
		})
	}
}

func TestFractureScattersInsideImpactCone(t *testing.T) {
	f := newFractureFixture(t, "", 32)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}

	// Impact travelling +x, parent at rest: child velocity is pure
	// scatter, confined to a 60 degree half-angle cone around +x.
	children, err := f.fs.Fracture(parent, 1, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}

	coneHalf := math.Pi/3 + 1e-3
	for _, child := range children {
		vel := f.em.Vel(child)
		angle := math.Atan2(float64(vel.Y), float64(vel.X))
		if math.Abs(angle) > coneHalf {
			t.Errorf("scatter angle = %f rad, want within ±%f", angle, math.Pi/3)
		}

		// Base speed 15-40 scaled by an inherited speed modifier that one
		// mutation step keeps within 0.9-1.1.
		speed := math.Hypot(float64(vel.X), float64(vel.Y))
		if speed < 13 || speed > 45 {
			t.Errorf("scatter speed = %f, want within [13.5, 44]", speed)
		}

		// Spawn jitter keeps children within 2 units of the parent.
		pos := f.em.Pos(child)
		if math.Abs(float64(pos.X-80)) > 2.001 || math.Abs(float64(pos.Y-72)) > 2.001 {
			t.Errorf("child position = (%f, %f), want within ±2 of (80, 72)", pos.X, pos.Y)
		}
	}
}

func TestFractureFallsBackToParentMotion(t *testing.T) {
	f := newFractureFixture(t, "", 32)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{Y: 50})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}

	// No impact direction: the cone centers on the parent's +y motion.
	// Scatter keeps vy positive and the inherited half of the parent's
	// velocity pushes further along +y.
	children, err := f.fs.Fracture(parent, 0, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}
	for _, child := range children {
		vel := f.em.Vel(child)
		if vel.Y <= 0 {
			t.Errorf("child velocity y = %f, want positive (cone around parent motion)", vel.Y)
		}
	}
}

func TestFractureInheritsAndMutatesTraits(t *testing.T) {
	f := newFractureFixture(t, "genetic", 32)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}
	parentID := f.em.Fragment(parent).GeneticID

	children, err := f.fs.Fracture(parent, 1, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}

	for _, child := range children {
		traits := f.em.Genome(child).Traits
		if traits.Generation != 1 {
			t.Errorf("child generation = %d, want 1", traits.Generation)
		}
		// One step from neutral parents under 10%/5%/5% variance.
		if traits.SpeedMod < 0.9 || traits.SpeedMod > 1.1 {
			t.Errorf("child SpeedMod = %f, want within [0.9, 1.1]", traits.SpeedMod)
		}
		if traits.SizeMod < 0.95 || traits.SizeMod > 1.05 {
			t.Errorf("child SizeMod = %f, want within [0.95, 1.05]", traits.SizeMod)
		}
		if traits.MassMod < 0.95 || traits.MassMod > 1.05 {
			t.Errorf("child MassMod = %f, want within [0.95, 1.05]", traits.MassMod)
		}

		// Size-2 archetype radius 4 and mass 2 scale with the traits.
		body := f.em.Body(child)
		wantRadius := 4 * traits.SizeMod
		if math.Abs(float64(body.Radius-wantRadius)) > 1e-4 {
			t.Errorf("child radius = %f, want %f", body.Radius, wantRadius)
		}
		wantMass := 2 * traits.MassMod
		if math.Abs(float64(body.Mass-wantMass)) > 1e-4 {
			t.Errorf("child mass = %f, want %f", body.Mass, wantMass)
		}

		if f.em.Fragment(child).ParentID != parentID {
			t.Errorf("child ParentID = %q, want %q", f.em.Fragment(child).ParentID, parentID)
		}
	}
}

func TestFractureClassicPresetSkipsGenetics(t *testing.T) {
	f := newFractureFixture(t, "classic", 32)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}

	children, err := f.fs.Fracture(parent, 1, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}
	for _, child := range children {
		traits := f.em.Genome(child).Traits
		if traits.SpeedMod != 1 || traits.SizeMod != 1 || traits.MassMod != 1 || traits.Generation != 0 {
			t.Errorf("classic child traits = %+v, want neutral", traits)
		}
		if body := f.em.Body(child); body.Radius != 4 {
			t.Errorf("classic child radius = %f, want archetype 4", body.Radius)
		}
		frag := f.em.Fragment(child)
		if frag.BaseColor.R != 192 || frag.BaseColor.G != 192 || frag.BaseColor.B != 192 {
			t.Errorf("classic child color = %+v, want untinted gray 192", frag.BaseColor)
		}
	}
}

func TestFractureRejectsInvalidTargets(t *testing.T) {
	f := newFractureFixture(t, "", 32)

	ship, err := f.em.SpawnShip(
		components.Position{X: 80, Y: 72},
		components.Velocity{},
		components.Body{Radius: 3},
		components.Ship{},
	)
	if err != nil {
		t.Fatalf("SpawnShip failed: %v", err)
	}
	if _, err := f.fs.Fracture(ship, 1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ship fracture error = %v, want ErrInvalidArgument", err)
	}

	frag, err := f.fs.SpawnRoot(2, components.Position{X: 40, Y: 40}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}
	f.em.Release(frag)
	if _, err := f.fs.Fracture(frag, 1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("pending-release fracture error = %v, want ErrInvalidArgument", err)
	}
}

func TestFractureSkipsChildrenWhenPoolFull(t *testing.T) {
	f := newFractureFixture(t, "", 1)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}

	// Capacity 1: releasing the parent frees exactly one slot, so only
	// the first child fits. The fracture still succeeds.
	children, err := f.fs.Fracture(parent, 1, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}
	if len(children) != 1 {
		t.Errorf("got %d children with a single free slot, want 1", len(children))
	}
	if got := f.fs.Status().Counts["children_skipped"]; got != 1 {
		t.Errorf("children_skipped = %d, want 1", got)
	}
}

func TestLineageLedgerRecordsEdgesAndDiscoveries(t *testing.T) {
	f := newFractureFixture(t, "genetic", 32)
	parent, err := f.fs.SpawnRoot(3, components.Position{X: 80, Y: 72}, components.Velocity{})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}
	parentID := f.em.Fragment(parent).GeneticID

	f.fs.Tick(1.0 / 60)
	children, err := f.fs.Fracture(parent, 1, 0)
	if err != nil {
		t.Fatalf("Fracture failed: %v", err)
	}

	edges := f.fs.Lineage().DrainEdges()
	if len(edges) != 2 {
		t.Fatalf("got %d lineage edges, want 2", len(edges))
	}
	for i, edge := range edges {
		if edge.ParentID != parentID {
			t.Errorf("edge %d parent = %q, want %q", i, edge.ParentID, parentID)
		}
		if edge.ChildID != f.em.Fragment(children[i]).GeneticID {
			t.Errorf("edge %d child id mismatch", i)
		}
		if edge.Generation != 1 {
			t.Errorf("edge %d generation = %d, want 1", i, edge.Generation)
		}
		if edge.Tick != 1 {
			t.Errorf("edge %d tick = %d, want 1", i, edge.Tick)
		}
	}
	if got := f.fs.Lineage().DrainEdges(); len(got) != 0 {
		t.Errorf("second drain returned %d edges, want 0", len(got))
	}

	// The neutral root signature plus at least one mutated child.
	stats := f.fs.Lineage().Stats()
	if stats.DistinctSignatures < 2 {
		t.Errorf("distinct signatures = %d, want at least 2", stats.DistinctSignatures)
	}
	if stats.MaxGeneration != 1 {
		t.Errorf("max generation = %d, want 1", stats.MaxGeneration)
	}
	if discoveries := f.fs.Lineage().DrainDiscoveries(); len(discoveries) < 2 {
		t.Errorf("got %d discoveries, want at least 2", len(discoveries))
	}
}

func TestSpawnRootBuildsArchetype(t *testing.T) {
	f := newFractureFixture(t, "", 32)
	e, err := f.fs.SpawnRoot(3, components.Position{X: 30, Y: 40}, components.Velocity{X: 10})
	if err != nil {
		t.Fatalf("SpawnRoot failed: %v", err)
	}

	frag := f.em.Fragment(e)
	body := f.em.Body(e)
	if frag.Size != 3 || frag.Health != 3 || frag.Points != 20 {
		t.Errorf("root archetype = size %d, health %f, points %d; want 3/3/20", frag.Size, frag.Health, frag.Points)
	}
	if body.Radius != 8 || body.Mass != 3 {
		t.Errorf("root body = radius %f, mass %f; want 8/3", body.Radius, body.Mass)
	}
	if frag.GeneticID == "" || frag.ParentID != "" {
		t.Errorf("root lineage ids = (%q, %q), want fresh id with no parent", frag.GeneticID, frag.ParentID)
	}
	if traits := f.em.Genome(e).Traits; traits.Generation != 0 {
		t.Errorf("root generation = %d, want 0", traits.Generation)
	}

	if _, err := f.fs.SpawnRoot(5, components.Position{}, components.Velocity{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("size-5 SpawnRoot error = %v, want ErrInvalidArgument", err)
	}
}
