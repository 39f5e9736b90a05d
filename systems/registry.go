package systems

import "fmt"

// SystemInfo describes a simulation system for UI display and perf naming.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "core", "combat", "visual")
}

// SystemRegistry holds metadata about all systems and, once attached,
// their live instances. It centralizes system naming so the UI and perf
// tracker stay in sync, and drives the shared lifecycle: InitAll in
// registration order, ShutdownAll in reverse. Per-frame tick order is
// the simulation loop's business, not the registry's.
type SystemRegistry struct {
	systems  []SystemInfo
	byID     map[string]SystemInfo
	attached map[string]System
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID:     make(map[string]SystemInfo),
		attached: make(map[string]System),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known systems to the registry.
// Update this when adding new systems.
func (r *SystemRegistry) registerDefaults() {
	// Core entity management
	r.Register(SystemInfo{ID: EntityManagerName, Name: "Entities", Description: "Owns entity pools and deferred release", Category: "core"})
	r.Register(SystemInfo{ID: CollisionSystemName, Name: "Collision", Description: "Spatial queries between entity groups", Category: "physics"})

	// Combat
	r.Register(SystemInfo{ID: ProjectileSystemName, Name: "Projectiles", Description: "Projectile flight and fire rate", Category: "combat"})
	r.Register(SystemInfo{ID: StatusSystemName, Name: "Status", Description: "Buffs, debuffs, and damage over time", Category: "combat"})

	// Life cycle
	r.Register(SystemInfo{ID: FractureSystemName, Name: "Fracture", Description: "Fragment destruction cascades and lineage", Category: "lifecycle"})
	r.Register(SystemInfo{ID: WaveSpawnerName, Name: "Waves", Description: "Wave progression and safe spawn placement", Category: "lifecycle"})

	// Visual
	r.Register(SystemInfo{ID: DebrisSystemName, Name: "Debris", Description: "Cosmetic particles", Category: "visual"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Attach binds a live system instance under its own name. The instance
// must match a registered ID.
func (r *SystemRegistry) Attach(sys System) error {
	id := sys.Name()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("attaching unregistered system %q: %w", id, ErrInvalidArgument)
	}
	r.attached[id] = sys
	return nil
}

// Attached returns the live instance for a system ID.
func (r *SystemRegistry) Attached(id string) (System, bool) {
	sys, ok := r.attached[id]
	return sys, ok
}

// InitAll initializes attached systems in registration order.
// The first failure aborts and is returned.
func (r *SystemRegistry) InitAll() error {
	for _, info := range r.systems {
		sys, ok := r.attached[info.ID]
		if !ok {
			continue
		}
		if err := sys.Init(); err != nil {
			return fmt.Errorf("init %s: %w", info.ID, err)
		}
	}
	return nil
}

// ShutdownAll shuts attached systems down in reverse registration order,
// so dependents go before what they depend on.
func (r *SystemRegistry) ShutdownAll() {
	for i := len(r.systems) - 1; i >= 0; i-- {
		if sys, ok := r.attached[r.systems[i].ID]; ok {
			sys.Shutdown()
		}
	}
}

// StatusAll collects status reports from attached systems in
// registration order.
func (r *SystemRegistry) StatusAll() []Status {
	out := make([]Status, 0, len(r.attached))
	for _, info := range r.systems {
		if sys, ok := r.attached[info.ID]; ok {
			out = append(out, sys.Status())
		}
	}
	return out
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns systems filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// Categories returns all unique categories.
func (r *SystemRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, info := range r.systems {
		if !seen[info.Category] {
			seen[info.Category] = true
			cats = append(cats, info.Category)
		}
	}
	return cats
}

// IDs returns all system IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
