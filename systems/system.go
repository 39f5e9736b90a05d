package systems

// System is the lifecycle contract shared by every simulation subsystem.
// The driving loop holds systems as a homogeneous ordered collection and
// ticks them once per fixed simulation step.
type System interface {
	// Name returns the registry name used for logging and perf phases.
	Name() string

	// Init prepares internal state after construction. Called once
	// before the first Tick.
	Init() error

	// Tick advances the system by dt seconds of simulation time.
	Tick(dt float32)

	// Shutdown releases all pooled state. After Shutdown the system
	// holds no live entity references.
	Shutdown()

	// Status reports diagnostic counters and gauges. Consumed by the
	// HUD and telemetry, never required for correctness.
	Status() Status
}

// Status is a point-in-time diagnostic snapshot of one system.
type Status struct {
	Name   string
	Counts map[string]int
	Gauges map[string]float64
}

// NewStatus returns an empty Status for the named system.
func NewStatus(name string) Status {
	return Status{
		Name:   name,
		Counts: make(map[string]int),
		Gauges: make(map[string]float64),
	}
}
