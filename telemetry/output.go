package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/rubble/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir             string
	statsFile       *os.File
	wavesFile       *os.File
	discoveriesFile *os.File
	perfFile        *os.File

	// Track if headers have been written
	statsHeaderWritten       bool
	wavesHeaderWritten       bool
	discoveriesHeaderWritten bool
	perfHeaderWritten        bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "waves.csv"))
	if err != nil {
		om.Close()
		return nil, fmt.Errorf("creating waves.csv: %w", err)
	}
	om.wavesFile = f

	f, err = os.Create(filepath.Join(dir, "discoveries.csv"))
	if err != nil {
		om.Close()
		return nil, fmt.Errorf("creating discoveries.csv: %w", err)
	}
	om.discoveriesFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.statsFile, &om.statsHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteWave writes a completed wave record to waves.csv.
func (om *OutputManager) WriteWave(record WaveRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.wavesFile, &om.wavesHeaderWritten, []WaveRecord{record}); err != nil {
		return fmt.Errorf("writing wave: %w", err)
	}
	return nil
}

// WriteDiscovery writes a trait-signature discovery to discoveries.csv.
func (om *OutputManager) WriteDiscovery(record DiscoveryRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.discoveriesFile, &om.discoveriesHeaderWritten, []DiscoveryRecord{record}); err != nil {
		return fmt.Errorf("writing discovery: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteRecords saves the lineage record book as JSON.
func (om *OutputManager) WriteRecords(rb *RecordBook) error {
	if om == nil || rb == nil {
		return nil
	}

	path := filepath.Join(om.dir, "records.json")
	data, err := rb.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing records.json: %w", err)
	}

	return nil
}

// appendCSV writes records to a CSV file, emitting the header on the
// first write only.
func appendCSV(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	for _, f := range []*os.File{om.statsFile, om.wavesFile, om.discoveriesFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
