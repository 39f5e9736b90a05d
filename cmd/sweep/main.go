// Package main runs headless difficulty sweeps: a batch of simulation
// sessions across presets and seeds, summarized per preset and written
// out as CSV for comparison.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/rubble/config"
	"github.com/pthm-cable/rubble/game"
)

// runResult holds the outcome of one headless session.
type runResult struct {
	Preset    string
	Seed      int64
	Ticks     uint64
	Wave      int
	Score     int64
	MaxGen    int32
	Lineages  int
	WallClock time.Duration
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	presets := flag.String("presets", "classic,genetic,hard", "Comma-separated presets to sweep")
	seeds := flag.Int("seeds", 5, "Number of seeds per preset")
	maxTicks := flag.Int("max-ticks", 36000, "Ticks per session (36000 = 10 simulated minutes)")
	targetWave := flag.Int("target-wave", 0, "Stop a session early once this wave is reached (0 = run out the clock)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	runsPath := filepath.Join(*outputDir, "runs.csv")
	runsFile, err := os.Create(runsPath)
	if err != nil {
		log.Fatalf("failed to create runs file: %v", err)
	}
	defer runsFile.Close()

	runsWriter := csv.NewWriter(runsFile)
	defer runsWriter.Flush()
	runsWriter.Write([]string{"preset", "seed", "ticks", "wave", "score", "max_generation", "lineages", "wall_ms"})

	presetList := strings.Split(*presets, ",")
	byPreset := make(map[string][]runResult)

	for _, preset := range presetList {
		preset = strings.TrimSpace(preset)
		for i := 0; i < *seeds; i++ {
			seed := int64(i*1000 + 42)
			res := runSession(*configPath, preset, seed, *maxTicks, *targetWave)
			byPreset[preset] = append(byPreset[preset], res)

			runsWriter.Write([]string{
				res.Preset,
				strconv.FormatInt(res.Seed, 10),
				strconv.FormatUint(res.Ticks, 10),
				strconv.Itoa(res.Wave),
				strconv.FormatInt(res.Score, 10),
				strconv.Itoa(int(res.MaxGen)),
				strconv.Itoa(res.Lineages),
				strconv.FormatInt(res.WallClock.Milliseconds(), 10),
			})
			runsWriter.Flush()

			fmt.Printf("[%s seed=%d] wave=%d score=%d gen=%d (%s)\n",
				res.Preset, res.Seed, res.Wave, res.Score, res.MaxGen,
				res.WallClock.Round(time.Millisecond))
		}
	}

	if err := writeSummary(filepath.Join(*outputDir, "summary.csv"), presetList, byPreset); err != nil {
		log.Fatalf("failed to write summary: %v", err)
	}
	fmt.Printf("results written to %s\n", *outputDir)
}

// runSession executes one headless run and collects its outcome.
func runSession(configPath, preset string, seed int64, maxTicks, targetWave int) runResult {
	if err := config.InitPreset(configPath, preset); err != nil {
		log.Fatalf("failed to load config (preset %q): %v", preset, err)
	}

	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 600,
	})
	defer g.Unload()

	start := time.Now()
	for int(g.Tick()) < maxTicks {
		g.UpdateHeadless()
		if targetWave > 0 && g.Wave() >= targetWave {
			break
		}
	}

	lineage := g.Lineage()
	return runResult{
		Preset:    preset,
		Seed:      seed,
		Ticks:     g.Tick(),
		Wave:      g.Wave(),
		Score:     g.Score(),
		MaxGen:    lineage.MaxGeneration,
		Lineages:  lineage.DistinctSignatures,
		WallClock: time.Since(start),
	}
}

// writeSummary aggregates per-preset means and standard deviations.
func writeSummary(path string, presets []string, byPreset map[string][]runResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{
		"preset", "runs",
		"wave_mean", "wave_std",
		"score_mean", "score_std",
		"max_gen_mean", "lineages_mean",
	})

	for _, preset := range presets {
		preset = strings.TrimSpace(preset)
		runs := byPreset[preset]
		if len(runs) == 0 {
			continue
		}

		waves := make([]float64, len(runs))
		scores := make([]float64, len(runs))
		gens := make([]float64, len(runs))
		lineages := make([]float64, len(runs))
		for i, r := range runs {
			waves[i] = float64(r.Wave)
			scores[i] = float64(r.Score)
			gens[i] = float64(r.MaxGen)
			lineages[i] = float64(r.Lineages)
		}

		w.Write([]string{
			preset,
			strconv.Itoa(len(runs)),
			fmt.Sprintf("%.2f", stat.Mean(waves, nil)),
			fmt.Sprintf("%.2f", stdDev(waves)),
			fmt.Sprintf("%.1f", stat.Mean(scores, nil)),
			fmt.Sprintf("%.1f", stdDev(scores)),
			fmt.Sprintf("%.2f", stat.Mean(gens, nil)),
			fmt.Sprintf("%.1f", stat.Mean(lineages, nil)),
		})
	}
	return nil
}

// stdDev is stat.StdDev guarded against single-sample batches.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
