package game

import (
	"fmt"
	"io"
	"time"

	"github.com/pthm-cable/rubble/components"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// LogWorldState writes a human-readable state summary, used by headless
// runs when verbose logging is on.
func (g *Game) LogWorldState() {
	lineage := g.fracture.Lineage().Stats()

	Logf("=== Tick %d | Wave %d | Score %d ===", g.tick, g.waves.Wave(), g.score)
	Logf("Fragments: %d/%d, Projectiles: %d/%d",
		g.entities.Count(components.KindFragment), g.entities.Cap(components.KindFragment),
		g.entities.Count(components.KindProjectile), g.entities.Cap(components.KindProjectile))
	Logf("Lineage: %d signatures, max generation %d, %d edges",
		lineage.DistinctSignatures, lineage.MaxGeneration, lineage.EdgesRecorded)
	if countdown := g.waves.Countdown(); countdown > 0 {
		Logf("Next wave in %.1fs", countdown)
	}
	Logf("")
}

// LogPerfStats writes a per-phase timing breakdown.
func (g *Game) LogPerfStats() {
	stats := g.perf.Stats()
	Logf("=== Perf @ Tick %d (speed %dx) ===", g.tick, g.stepsPerUpdate)
	Logf("Avg tick: %s (%.0f ticks/s)",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond)
	for phase, pct := range stats.PhasePct {
		if pct < 0.5 {
			continue
		}
		Logf("  %-10s %10s  %5.1f%%",
			phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct)
	}
	Logf("")
}
