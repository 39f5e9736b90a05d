package game

import (
	"log/slog"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/telemetry"
)

// flushTelemetry drains the discovery ledger, flushes the stats window
// when due, and writes periodic snapshots.
func (g *Game) flushTelemetry(dt float32) {
	g.drainDiscoveries()

	if g.collector.ShouldFlush(g.tick) {
		stats := g.collector.Flush(g.tick, g.samplePopulation())
		perfStats := g.perf.Stats()

		if g.logStats {
			stats.LogStats()
			perfStats.LogStats()
		}
		if g.output != nil {
			if err := g.output.WriteStats(stats); err != nil {
				slog.Error("failed to write stats", "error", err)
			}
			if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
		}

		for _, h := range g.highlights.Check(stats) {
			if g.logStats {
				h.LogHighlight()
			}
			if g.snapshotDir != "" {
				g.saveSnapshot(&h)
			}
		}
	}

	interval := float32(config.Cfg().Telemetry.SnapshotInterval)
	if interval > 0 && g.snapshotDir != "" {
		g.sinceSnapshot += dt
		if g.sinceSnapshot >= interval {
			g.sinceSnapshot = 0
			g.saveSnapshot(nil)
		}
	}
}

// drainDiscoveries moves new lineage edges and trait discoveries from the
// fracture ledger into telemetry.
func (g *Game) drainDiscoveries() {
	ledger := g.fracture.Lineage()

	for _, d := range ledger.DrainDiscoveries() {
		g.collector.Record(telemetry.NewDiscoveryEvent(g.tick, int(d.Traits.Generation)))
		g.records.Consider(d)
		if g.output != nil {
			if err := g.output.WriteDiscovery(telemetry.NewDiscoveryRecord(d)); err != nil {
				slog.Error("failed to write discovery", "error", err)
			}
		}
	}
	// Edges feed the ledger totals only; drain to bound the buffer.
	ledger.DrainEdges()
}

// samplePopulation gathers the live-state sample the collector cannot see
// on its own: population counts, trait values, and ledger summary.
func (g *Game) samplePopulation() telemetry.PopulationSample {
	frags := g.entities.Fragments()
	speedMods := make([]float64, 0, len(frags))
	sizeMods := make([]float64, 0, len(frags))
	for _, e := range frags {
		if genome := g.entities.Genome(e); genome != nil {
			speedMods = append(speedMods, float64(genome.Traits.SpeedMod))
			sizeMods = append(sizeMods, float64(genome.Traits.SizeMod))
		}
	}

	stats := g.fracture.Lineage().Stats()
	return telemetry.PopulationSample{
		Fragments:          g.entities.Count(components.KindFragment),
		Projectiles:        g.entities.Count(components.KindProjectile),
		Wave:               g.waves.Wave(),
		Score:              g.score,
		SpeedMods:          speedMods,
		SizeMods:           sizeMods,
		DistinctSignatures: stats.DistinctSignatures,
		MaxGeneration:      stats.MaxGeneration,
	}
}

// saveSnapshot writes the full simulation state, optionally tagged with
// the highlight that triggered it.
func (g *Game) saveSnapshot(h *telemetry.Highlight) {
	snap := g.Snapshot()
	snap.Highlight = h
	path, err := telemetry.SaveSnapshot(snap, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}
