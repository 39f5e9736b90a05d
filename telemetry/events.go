// Package telemetry provides run diagnostics: windowed counters, per-wave
// accounting, highlight detection, CSV output, and JSON snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventShotFired EventType = iota
	EventShotRateLimited
	EventHit
	EventShipImpact
	EventFracture
	EventOffspringSkipped
	EventDiscovery
	EventBurnPulse
	EventPoolExhausted
)

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     uint64
	EntityID uint32

	// Optional fields depending on event type
	TargetID uint32  // struck entity for hit events
	Amount   float32 // damage dealt
	Count    int     // offspring spawned, or generation for discoveries
}

// NewShotFiredEvent creates a shot event.
func NewShotFiredEvent(tick uint64, shooterID uint32) Event {
	return Event{
		Type:     EventShotFired,
		Tick:     tick,
		EntityID: shooterID,
	}
}

// NewRateLimitedEvent creates a denied-shot event (cooldown still running).
func NewRateLimitedEvent(tick uint64, shooterID uint32) Event {
	return Event{
		Type:     EventShotRateLimited,
		Tick:     tick,
		EntityID: shooterID,
	}
}

// NewHitEvent creates a projectile hit event.
func NewHitEvent(tick uint64, projectileID, fragmentID uint32, damage float32) Event {
	return Event{
		Type:     EventHit,
		Tick:     tick,
		EntityID: projectileID,
		TargetID: fragmentID,
		Amount:   damage,
	}
}

// NewShipImpactEvent creates a fragment-rams-ship event.
func NewShipImpactEvent(tick uint64, shipID, fragmentID uint32) Event {
	return Event{
		Type:     EventShipImpact,
		Tick:     tick,
		EntityID: shipID,
		TargetID: fragmentID,
	}
}

// NewFractureEvent creates a fracture event with the offspring count.
func NewFractureEvent(tick uint64, fragmentID uint32, offspring int) Event {
	return Event{
		Type:     EventFracture,
		Tick:     tick,
		EntityID: fragmentID,
		Count:    offspring,
	}
}

// NewOffspringSkippedEvent creates an event for a fracture child lost to a
// full pool.
func NewOffspringSkippedEvent(tick uint64, parentID uint32) Event {
	return Event{
		Type:     EventOffspringSkipped,
		Tick:     tick,
		EntityID: parentID,
	}
}

// NewDiscoveryEvent creates a first-sighting event for a trait signature.
func NewDiscoveryEvent(tick uint64, generation int) Event {
	return Event{
		Type:  EventDiscovery,
		Tick:  tick,
		Count: generation,
	}
}

// NewBurnPulseEvent creates a damage-over-time pulse event.
func NewBurnPulseEvent(tick uint64, targetID uint32, damage float32) Event {
	return Event{
		Type:     EventBurnPulse,
		Tick:     tick,
		EntityID: targetID,
		Amount:   damage,
	}
}

// NewPoolExhaustedEvent creates an event for a spawn denied at pool capacity.
func NewPoolExhaustedEvent(tick uint64) Event {
	return Event{
		Type: EventPoolExhausted,
		Tick: tick,
	}
}
