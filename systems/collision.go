package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rubble/components"
)

// CollisionSystemName is the registry name for the collision system.
const CollisionSystemName = "collision"

// Contact reports one detected overlap between a moving entity and a
// target. Only contact data is reported; collision response is the
// caller's responsibility.
type Contact struct {
	A ecs.Entity // moving entity
	B ecs.Entity // target entity

	NX, NY      float32 // unit normal pointing from B toward A's path
	Penetration float32 // overlap depth at detection time
	Along       float32 // travel-direction parameter used for ordering
}

// collisionGroup is a named set of entities backed by a pool kind.
// Member lists are rebuilt every tick in ascending id order.
type collisionGroup struct {
	name      string
	kind      components.Kind
	members   []ecs.Entity
	maxRadius float32
}

// CollisionSystem performs per-frame spatial queries between named entity
// groups. Queries run against a cell grid rebuilt at the start of each
// tick; results always reflect positions as of the last rebuild.
type CollisionSystem struct {
	em     *EntityManager
	grid   *SpatialGrid
	posMap *ecs.Map1[components.Position]

	arenaW, arenaH float32

	groups map[string]*collisionGroup
	order  []string // registration order, for stable Status output

	scratch []Neighbor

	lastChecks    int
	lastContacts  int
	checksTotal   uint64
	contactsTotal uint64
}

// NewCollisionSystem creates a collision system over the manager's pools.
func NewCollisionSystem(world *ecs.World, em *EntityManager, arenaW, arenaH, cellSize float32) *CollisionSystem {
	return &CollisionSystem{
		em:     em,
		grid:   NewSpatialGrid(arenaW, arenaH, cellSize),
		posMap: ecs.NewMap1[components.Position](world),
		arenaW: arenaW,
		arenaH: arenaH,
		groups: make(map[string]*collisionGroup),
	}
}

// Name returns the registry name.
func (s *CollisionSystem) Name() string { return CollisionSystemName }

// Init prepares the system. Groups are registered by the caller before
// the first tick.
func (s *CollisionSystem) Init() error { return nil }

// RegisterGroup binds a query group name to a pool kind.
func (s *CollisionSystem) RegisterGroup(name string, kind components.Kind) error {
	if _, exists := s.groups[name]; exists {
		return fmt.Errorf("collision group %q already registered: %w", name, ErrInvalidArgument)
	}
	s.groups[name] = &collisionGroup{name: name, kind: kind}
	s.order = append(s.order, name)
	return nil
}

// Tick rebuilds the spatial grid and group member lists from the live
// entity pools. Entities queued for release this frame are excluded, so
// an object destroyed earlier in the frame never collides again.
func (s *CollisionSystem) Tick(dt float32) {
	s.grid.Clear()
	s.lastChecks = 0
	s.lastContacts = 0

	for _, name := range s.order {
		grp := s.groups[name]
		grp.members = grp.members[:0]
		grp.maxRadius = 0

		for _, e := range s.kindList(grp.kind) {
			if !s.em.Live(e) {
				continue
			}
			pos := s.posMap.Get(e)
			if pos == nil {
				continue
			}
			grp.members = append(grp.members, e)
			s.grid.Insert(e, pos.X, pos.Y)
			if body := s.em.Body(e); body != nil && body.Radius > grp.maxRadius {
				grp.maxRadius = body.Radius
			}
		}
	}
}

// Shutdown drops all group membership.
func (s *CollisionSystem) Shutdown() {
	for _, grp := range s.groups {
		grp.members = nil
	}
	s.grid.Clear()
}

// Overlaps runs a discrete circle test between two groups and returns at
// most one contact per moving entity: the nearest along its direction of
// travel. Further overlaps for the same mover are left for next tick.
func (s *CollisionSystem) Overlaps(moverGroup, targetGroup string) ([]Contact, error) {
	movers, err := s.group(moverGroup)
	if err != nil {
		return nil, err
	}
	targets, err := s.group(targetGroup)
	if err != nil {
		return nil, err
	}

	var contacts []Contact
	for _, mover := range movers.members {
		pos := s.posMap.Get(mover)
		body := s.em.Body(mover)
		if pos == nil || body == nil {
			continue
		}
		vel := s.em.Vel(mover)

		best, found := s.bestOverlap(mover, pos, body.Radius, vel, targets)
		if found {
			contacts = append(contacts, best)
			s.lastContacts++
		}
	}
	s.contactsTotal += uint64(s.lastContacts)
	return contacts, nil
}

// bestOverlap scans targets around one mover and keeps the contact that
// is nearest along the mover's travel direction.
func (s *CollisionSystem) bestOverlap(mover ecs.Entity, pos *components.Position, radius float32, vel *components.Velocity, targets *collisionGroup) (Contact, bool) {
	queryRadius := radius + targets.maxRadius
	s.scratch = s.grid.QueryRadiusInto(s.scratch[:0], pos.X, pos.Y, queryRadius, mover, s.posMap)

	var ux, uy float32
	moving := false
	if vel != nil {
		speed := velocityMagnitude(vel.X, vel.Y)
		if speed > 1e-4 {
			ux, uy = vel.X/speed, vel.Y/speed
			moving = true
		}
	}

	var best Contact
	var bestKey float32
	var bestDistSq float32
	bestAhead := false
	found := false

	for _, n := range s.scratch {
		s.lastChecks++
		if !s.memberOf(n.E, targets) {
			continue
		}
		tBody := s.em.Body(n.E)
		if tBody == nil {
			continue
		}
		combined := radius + tBody.Radius
		if n.DistSq > combined*combined {
			continue
		}

		dist := distance(0, 0, n.DX, n.DY)
		key := n.DistSq
		ahead := true
		if moving {
			along := n.DX*ux + n.DY*uy // projection onto travel direction
			ahead = along >= 0
			key = along
			if !ahead {
				key = -along
			}
		}
		// Targets ahead of the mover beat targets behind it; within a
		// tier the smaller travel distance wins, then raw distance.
		if found {
			if bestAhead && !ahead {
				continue
			}
			if bestAhead == ahead && (key > bestKey || (key == bestKey && n.DistSq >= bestDistSq)) {
				continue
			}
		}

		nx, ny := float32(0), float32(-1)
		if dist > 1e-6 {
			nx, ny = -n.DX/dist, -n.DY/dist
		}
		best = Contact{
			A:           mover,
			B:           n.E,
			NX:          nx,
			NY:          ny,
			Penetration: combined - dist,
			Along:       key,
		}
		bestKey = key
		bestDistSq = n.DistSq
		bestAhead = ahead
		found = true
	}
	s.checksTotal += uint64(len(s.scratch))
	return best, found
}

// Sweep tests the segment a fast mover covered this tick against a target
// group, catching targets the discrete test would tunnel through. The
// segment runs from the mover's previous position (current minus
// velocity*dt) to its current position. Returns the earliest hit.
func (s *CollisionSystem) Sweep(mover ecs.Entity, targetGroup string, dt float32) (Contact, bool, error) {
	targets, err := s.group(targetGroup)
	if err != nil {
		return Contact{}, false, err
	}
	pos := s.posMap.Get(mover)
	body := s.em.Body(mover)
	vel := s.em.Vel(mover)
	if pos == nil || body == nil || vel == nil {
		return Contact{}, false, fmt.Errorf("sweep mover missing components: %w", ErrInvalidArgument)
	}

	// Segment in local frame: origin at previous position.
	dx := vel.X * dt
	dy := vel.Y * dt
	prevX := pos.X - dx
	prevY := pos.Y - dy
	segLenSq := dx*dx + dy*dy

	midX, midY := WrapPosition(prevX+dx/2, prevY+dy/2, s.arenaW, s.arenaH)
	queryRadius := velocityMagnitude(dx, dy)/2 + body.Radius + targets.maxRadius
	s.scratch = s.grid.QueryRadiusInto(s.scratch[:0], midX, midY, queryRadius, mover, s.posMap)

	var best Contact
	bestT := float32(2)
	found := false

	for _, n := range s.scratch {
		s.lastChecks++
		if !s.memberOf(n.E, targets) {
			continue
		}
		tBody := s.em.Body(n.E)
		tPos := s.posMap.Get(n.E)
		if tBody == nil || tPos == nil {
			continue
		}
		combined := body.Radius + tBody.Radius

		// Target center relative to the segment origin, wrapped.
		cx, cy := ToroidalDelta(prevX, prevY, tPos.X, tPos.Y, s.arenaW, s.arenaH)

		var t float32
		if segLenSq > 1e-8 {
			t = clampFloat((cx*dx+cy*dy)/segLenSq, 0, 1)
		}
		closestX := t * dx
		closestY := t * dy
		distSq := distanceSq(closestX, closestY, cx, cy)
		if distSq > combined*combined {
			continue
		}
		if found && t >= bestT {
			continue
		}

		dist := distance(closestX, closestY, cx, cy)
		nx, ny := float32(0), float32(-1)
		if dist > 1e-6 {
			nx, ny = (closestX-cx)/dist, (closestY-cy)/dist
		}
		best = Contact{
			A:           mover,
			B:           n.E,
			NX:          nx,
			NY:          ny,
			Penetration: combined - dist,
			Along:       t,
		}
		bestT = t
		found = true
	}
	s.checksTotal += uint64(len(s.scratch))
	if found {
		s.lastContacts++
		s.contactsTotal++
	}
	return best, found, nil
}

// SweepGroup sweeps every member of a mover group, returning at most one
// contact per mover in ascending mover id order.
func (s *CollisionSystem) SweepGroup(moverGroup, targetGroup string, dt float32) ([]Contact, error) {
	movers, err := s.group(moverGroup)
	if err != nil {
		return nil, err
	}
	var contacts []Contact
	for _, mover := range movers.members {
		contact, hit, err := s.Sweep(mover, targetGroup, dt)
		if err != nil {
			continue
		}
		if hit {
			contacts = append(contacts, contact)
		}
	}
	return contacts, nil
}

// RadiusSearch returns all live entities within radius of a point,
// regardless of group, ordered nearest first.
func (s *CollisionSystem) RadiusSearch(x, y, radius float32) []ecs.Entity {
	s.scratch = s.grid.QueryRadiusInto(s.scratch[:0], x, y, radius, ecs.Entity{}, s.posMap)
	sortNeighbors(s.scratch)
	out := make([]ecs.Entity, len(s.scratch))
	for i, n := range s.scratch {
		out[i] = n.E
	}
	return out
}

// Nearest returns the group member closest to a point.
func (s *CollisionSystem) Nearest(x, y float32, groupName string) (ecs.Entity, bool) {
	grp, err := s.group(groupName)
	if err != nil {
		return ecs.Entity{}, false
	}
	var best ecs.Entity
	bestDistSq := float32(-1)
	for _, e := range grp.members {
		pos := s.posMap.Get(e)
		if pos == nil {
			continue
		}
		dx, dy := ToroidalDelta(x, y, pos.X, pos.Y, s.arenaW, s.arenaH)
		dSq := dx*dx + dy*dy
		if bestDistSq < 0 || dSq < bestDistSq {
			best = e
			bestDistSq = dSq
		}
	}
	return best, bestDistSq >= 0
}

// Status reports group sizes and query workload.
func (s *CollisionSystem) Status() Status {
	st := NewStatus(CollisionSystemName)
	for _, name := range s.order {
		st.Counts["group_"+name] = len(s.groups[name].members)
	}
	st.Counts["checks"] = s.lastChecks
	st.Counts["contacts"] = s.lastContacts
	st.Gauges["checks_total"] = float64(s.checksTotal)
	st.Gauges["contacts_total"] = float64(s.contactsTotal)
	return st
}

func (s *CollisionSystem) group(name string) (*collisionGroup, error) {
	grp, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("unknown collision group %q: %w", name, ErrInvalidArgument)
	}
	return grp, nil
}

func (s *CollisionSystem) memberOf(e ecs.Entity, grp *collisionGroup) bool {
	if !s.em.Live(e) {
		return false
	}
	kind, ok := s.em.KindOf(e)
	return ok && kind == grp.kind
}

func (s *CollisionSystem) kindList(kind components.Kind) []ecs.Entity {
	switch kind {
	case components.KindFragment:
		return s.em.Fragments()
	case components.KindProjectile:
		return s.em.Projectiles()
	case components.KindShip:
		return s.em.Ships()
	}
	return nil
}

func sortNeighbors(neighbors []Neighbor) {
	// Insertion sort; result sets are small and mostly ordered.
	for i := 1; i < len(neighbors); i++ {
		for j := i; j > 0 && neighbors[j].DistSq < neighbors[j-1].DistSq; j-- {
			neighbors[j], neighbors[j-1] = neighbors[j-1], neighbors[j]
		}
	}
}
