package systems

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
)

// EntityManagerName is the registry name for the entity manager.
const EntityManagerName = "entities"

// PoolCaps holds the fixed per-kind entity pool capacities.
type PoolCaps struct {
	Fragments   int
	Projectiles int
	Ships       int
}

// Cap returns the capacity for one kind.
func (c PoolCaps) Cap(kind components.Kind) int {
	switch kind {
	case components.KindFragment:
		return c.Fragments
	case components.KindProjectile:
		return c.Projectiles
	case components.KindShip:
		return c.Ships
	}
	return 0
}

// EntityManager owns the canonical entity pools. It is the only system
// that performs structural world mutation; every other system references
// entities by id and requests spawn/destroy through this API.
//
// Release is deferred: Release queues the entity and Flush removes the
// whole queue at end-of-frame, so no id dangles mid-tick.
type EntityManager struct {
	world *ecs.World

	fragMapper *ecs.Map5[components.Position, components.Velocity, components.Body, components.Fragment, components.Genome]
	projMapper *ecs.Map4[components.Position, components.Velocity, components.Body, components.Projectile]
	shipMapper *ecs.Map5[components.Position, components.Velocity, components.Body, components.Ship, components.Cannon]

	fragFilter *ecs.Filter5[components.Position, components.Velocity, components.Body, components.Fragment, components.Genome]
	projFilter *ecs.Filter4[components.Position, components.Velocity, components.Body, components.Projectile]
	shipFilter *ecs.Filter5[components.Position, components.Velocity, components.Body, components.Ship, components.Cannon]

	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	bodyMap   *ecs.Map1[components.Body]
	fragMap   *ecs.Map1[components.Fragment]
	genomeMap *ecs.Map1[components.Genome]
	projMap   *ecs.Map1[components.Projectile]
	shipMap   *ecs.Map1[components.Ship]
	cannonMap *ecs.Map1[components.Cannon]

	caps PoolCaps

	counts  [3]int // live entities per kind, including pending releases
	pending []ecs.Entity
	inQueue map[ecs.Entity]struct{}
	queued  [3]int // pending releases per kind

	totalSpawned  [3]uint64
	totalReleased [3]uint64

	releaseHooks []func(e ecs.Entity, kind components.Kind)
}

// NewEntityManager creates an entity manager over the given world with
// fixed pool capacities.
func NewEntityManager(world *ecs.World, caps PoolCaps) *EntityManager {
	return &EntityManager{
		world: world,

		fragMapper: ecs.NewMap5[components.Position, components.Velocity, components.Body, components.Fragment, components.Genome](world),
		projMapper: ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Projectile](world),
		shipMapper: ecs.NewMap5[components.Position, components.Velocity, components.Body, components.Ship, components.Cannon](world),

		fragFilter: ecs.NewFilter5[components.Position, components.Velocity, components.Body, components.Fragment, components.Genome](world),
		projFilter: ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Projectile](world),
		shipFilter: ecs.NewFilter5[components.Position, components.Velocity, components.Body, components.Ship, components.Cannon](world),

		posMap:    ecs.NewMap1[components.Position](world),
		velMap:    ecs.NewMap1[components.Velocity](world),
		bodyMap:   ecs.NewMap1[components.Body](world),
		fragMap:   ecs.NewMap1[components.Fragment](world),
		genomeMap: ecs.NewMap1[components.Genome](world),
		projMap:   ecs.NewMap1[components.Projectile](world),
		shipMap:   ecs.NewMap1[components.Ship](world),
		cannonMap: ecs.NewMap1[components.Cannon](world),

		caps:    caps,
		inQueue: make(map[ecs.Entity]struct{}),
	}
}

// Name returns the registry name.
func (m *EntityManager) Name() string { return EntityManagerName }

// Init prepares the manager. Pools start empty.
func (m *EntityManager) Init() error { return nil }

// Tick advances per-entity bookkeeping: fragment visual rotation.
// Structural changes never happen here; Flush handles those.
func (m *EntityManager) Tick(dt float32) {
	query := m.fragFilter.Query()
	for query.Next() {
		_, _, _, frag, _ := query.Get()
		frag.Angle = normalizeAngle(frag.Angle + frag.Spin*dt)
	}
}

// Shutdown releases every pooled entity and clears the queue.
func (m *EntityManager) Shutdown() {
	for _, e := range m.Fragments() {
		m.world.RemoveEntity(e)
	}
	for _, e := range m.Projectiles() {
		m.world.RemoveEntity(e)
	}
	for _, e := range m.Ships() {
		m.world.RemoveEntity(e)
	}
	m.counts = [3]int{}
	m.queued = [3]int{}
	m.pending = m.pending[:0]
	m.inQueue = make(map[ecs.Entity]struct{})
}

// OnRelease registers a hook invoked for each entity removed by Flush.
// Hooks run after the entity's kind is determined but before removal, so
// component state is still readable.
func (m *EntityManager) OnRelease(fn func(e ecs.Entity, kind components.Kind)) {
	m.releaseHooks = append(m.releaseHooks, fn)
}

// SpawnFragment acquires a fragment slot and creates the entity.
// Fails with ErrPoolExhausted when the fragment pool is at capacity.
func (m *EntityManager) SpawnFragment(pos components.Position, vel components.Velocity, body components.Body, frag components.Fragment, genome components.Genome) (ecs.Entity, error) {
	if err := m.checkCap(components.KindFragment); err != nil {
		return ecs.Entity{}, err
	}
	e := m.fragMapper.NewEntity(&pos, &vel, &body, &frag, &genome)
	m.counts[components.KindFragment]++
	m.totalSpawned[components.KindFragment]++
	return e, nil
}

// SpawnProjectile acquires a projectile slot and creates the entity.
func (m *EntityManager) SpawnProjectile(pos components.Position, vel components.Velocity, body components.Body, proj components.Projectile) (ecs.Entity, error) {
	if err := m.checkCap(components.KindProjectile); err != nil {
		return ecs.Entity{}, err
	}
	e := m.projMapper.NewEntity(&pos, &vel, &body, &proj)
	m.counts[components.KindProjectile]++
	m.totalSpawned[components.KindProjectile]++
	return e, nil
}

// SpawnShip acquires a ship slot and creates the entity with a ready cannon.
func (m *EntityManager) SpawnShip(pos components.Position, vel components.Velocity, body components.Body, ship components.Ship) (ecs.Entity, error) {
	if err := m.checkCap(components.KindShip); err != nil {
		return ecs.Entity{}, err
	}
	cannon := components.Cannon{}
	e := m.shipMapper.NewEntity(&pos, &vel, &body, &ship, &cannon)
	m.counts[components.KindShip]++
	m.totalSpawned[components.KindShip]++
	return e, nil
}

// checkCap verifies a free slot for the kind. Entities queued for release
// count as free: their slot is logically reclaimed this frame even though
// the id stays valid until Flush.
func (m *EntityManager) checkCap(kind components.Kind) error {
	limit := m.caps.Cap(kind)
	if m.counts[kind]-m.queued[kind] >= limit {
		return fmt.Errorf("%s pool at capacity %d: %w", kind, limit, ErrPoolExhausted)
	}
	return nil
}

// Release queues an entity for removal at end-of-frame. Idempotent:
// releasing a dead or already-queued id is a no-op, never an error.
func (m *EntityManager) Release(e ecs.Entity) {
	if !m.world.Alive(e) {
		return
	}
	if _, ok := m.inQueue[e]; ok {
		return
	}
	kind, ok := m.KindOf(e)
	if !ok {
		return
	}
	m.pending = append(m.pending, e)
	m.inQueue[e] = struct{}{}
	m.queued[kind]++
}

// Flush removes every queued entity in ascending id order and returns the
// number released. Must be called exactly once per frame, after all
// systems have ticked.
func (m *EntityManager) Flush() int {
	if len(m.pending) == 0 {
		return 0
	}
	sort.Slice(m.pending, func(i, j int) bool {
		return m.pending[i].ID() < m.pending[j].ID()
	})

	released := 0
	for _, e := range m.pending {
		if !m.world.Alive(e) {
			continue
		}
		kind, ok := m.KindOf(e)
		if !ok {
			continue
		}
		for _, hook := range m.releaseHooks {
			hook(e, kind)
		}
		m.world.RemoveEntity(e)
		m.counts[kind]--
		m.totalReleased[kind]++
		released++
	}

	m.pending = m.pending[:0]
	m.queued = [3]int{}
	for e := range m.inQueue {
		delete(m.inQueue, e)
	}
	return released
}

// Alive reports whether the id refers to an existing entity, queued or not.
func (m *EntityManager) Alive(e ecs.Entity) bool {
	return m.world.Alive(e)
}

// Live reports whether the entity exists and is not queued for release.
func (m *EntityManager) Live(e ecs.Entity) bool {
	if !m.world.Alive(e) {
		return false
	}
	_, queued := m.inQueue[e]
	return !queued
}

// PendingRelease reports whether the entity is queued for removal.
func (m *EntityManager) PendingRelease(e ecs.Entity) bool {
	_, queued := m.inQueue[e]
	return queued
}

// KindOf returns the pool kind of a live entity.
func (m *EntityManager) KindOf(e ecs.Entity) (components.Kind, bool) {
	if !m.world.Alive(e) {
		return 0, false
	}
	switch {
	case m.fragMap.HasAll(e):
		return components.KindFragment, true
	case m.projMap.HasAll(e):
		return components.KindProjectile, true
	case m.shipMap.HasAll(e):
		return components.KindShip, true
	}
	return 0, false
}

// Count returns the live entity count for a kind, net of queued releases.
func (m *EntityManager) Count(kind components.Kind) int {
	return m.counts[kind] - m.queued[kind]
}

// Cap returns the pool capacity for a kind.
func (m *EntityManager) Cap(kind components.Kind) int {
	return m.caps.Cap(kind)
}

// Component accessors. Nil when the entity lacks the component.

func (m *EntityManager) Pos(e ecs.Entity) *components.Position      { return m.posMap.Get(e) }
func (m *EntityManager) Vel(e ecs.Entity) *components.Velocity      { return m.velMap.Get(e) }
func (m *EntityManager) Body(e ecs.Entity) *components.Body         { return m.bodyMap.Get(e) }
func (m *EntityManager) Fragment(e ecs.Entity) *components.Fragment { return m.fragMap.Get(e) }
func (m *EntityManager) Genome(e ecs.Entity) *components.Genome     { return m.genomeMap.Get(e) }
func (m *EntityManager) Projectile(e ecs.Entity) *components.Projectile {
	return m.projMap.Get(e)
}
func (m *EntityManager) Ship(e ecs.Entity) *components.Ship     { return m.shipMap.Get(e) }
func (m *EntityManager) Cannon(e ecs.Entity) *components.Cannon { return m.cannonMap.Get(e) }

// Fragments returns the live fragment entities in ascending id order.
// The slice is freshly built per call and safe to retain within the frame.
func (m *EntityManager) Fragments() []ecs.Entity {
	out := make([]ecs.Entity, 0, m.counts[components.KindFragment])
	query := m.fragFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	sortByID(out)
	return out
}

// Projectiles returns the live projectile entities in ascending id order.
func (m *EntityManager) Projectiles() []ecs.Entity {
	out := make([]ecs.Entity, 0, m.counts[components.KindProjectile])
	query := m.projFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	sortByID(out)
	return out
}

// Ships returns the live ship entities in ascending id order.
func (m *EntityManager) Ships() []ecs.Entity {
	out := make([]ecs.Entity, 0, m.counts[components.KindShip])
	query := m.shipFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	sortByID(out)
	return out
}

// Status reports pool utilization and lifetime totals.
func (m *EntityManager) Status() Status {
	s := NewStatus(EntityManagerName)
	s.Counts["fragments"] = m.Count(components.KindFragment)
	s.Counts["projectiles"] = m.Count(components.KindProjectile)
	s.Counts["ships"] = m.Count(components.KindShip)
	s.Counts["pending_release"] = len(m.pending)
	s.Counts["spawned_total"] = int(m.totalSpawned[0] + m.totalSpawned[1] + m.totalSpawned[2])
	s.Counts["released_total"] = int(m.totalReleased[0] + m.totalReleased[1] + m.totalReleased[2])
	s.Gauges["fragment_pool_util"] = poolUtil(m.Count(components.KindFragment), m.caps.Fragments)
	s.Gauges["projectile_pool_util"] = poolUtil(m.Count(components.KindProjectile), m.caps.Projectiles)
	return s
}

func poolUtil(used, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(used) / float64(capacity)
}

func sortByID(entities []ecs.Entity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID() < entities[j].ID()
	})
}
