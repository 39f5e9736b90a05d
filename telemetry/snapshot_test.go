package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/systems"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:       SnapshotVersion,
		RNGSeed:       42,
		Preset:        "genetic",
		ArenaWidth:    160,
		ArenaHeight:   144,
		Tick:          1000,
		Wave:          3,
		Score:         450,
		WaveCountdown: 1.5,
		Fragments: []FragmentState{
			{
				ID:         7,
				Size:       2,
				X:          30,
				Y:          40,
				VelX:       12,
				VelY:       -8,
				Angle:      0.4,
				Spin:       1.1,
				Health:     2,
				Points:     50,
				BaseColor:  components.Color{R: 192, G: 192, B: 192},
				GeneticID:  "aaaa-bbbb",
				ParentID:   "cccc-dddd",
				SpeedMod:   1.08,
				SizeMod:    0.97,
				MassMod:    1.02,
				ColorShift: 14,
				Generation: 1,
			},
		},
		Projectiles: []ProjectileState{
			{ID: 12, OwnerID: 3, X: 80, Y: 72, VelX: 90, VelY: 0, Age: 0.5, Life: 2.0},
		},
		Ship: &ShipState{ID: 3, X: 80, Y: 72, Heading: 1.2, Cooldown: 0.05},
		Effects: []EffectSet{
			{
				EntityID: 7,
				Effects: []EffectState{
					EffectStateOf(systems.ActiveEffect{
						Effect:     systems.Burn(0.25, 1.5, 0.25),
						Remaining:  0.9,
						SincePulse: 0.1,
					}),
				},
			},
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != snapshot.Version {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, snapshot.Version)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Tick != snapshot.Tick {
		t.Errorf("Tick mismatch: got %d, want %d", loaded.Tick, snapshot.Tick)
	}
	if loaded.Wave != snapshot.Wave || loaded.Score != snapshot.Score {
		t.Errorf("Wave/Score mismatch: got %d/%d, want %d/%d",
			loaded.Wave, loaded.Score, snapshot.Wave, snapshot.Score)
	}
	if len(loaded.Fragments) != 1 {
		t.Fatalf("Fragments count mismatch: got %d, want 1", len(loaded.Fragments))
	}

	frag := loaded.Fragments[0]
	if frag.GeneticID != "aaaa-bbbb" || frag.Generation != 1 {
		t.Errorf("fragment lineage mismatch: %+v", frag)
	}
	if frag.BaseColor.R != 192 {
		t.Errorf("fragment BaseColor.R = %d, want 192", frag.BaseColor.R)
	}
	if frag.SpeedMod != 1.08 {
		t.Errorf("fragment SpeedMod = %f, want 1.08", frag.SpeedMod)
	}

	if loaded.Ship == nil {
		t.Fatal("Ship not loaded")
	}
	if loaded.Ship.Heading != 1.2 {
		t.Errorf("Ship.Heading = %f, want 1.2", loaded.Ship.Heading)
	}

	if len(loaded.Effects) != 1 || len(loaded.Effects[0].Effects) != 1 {
		t.Fatalf("Effects not round-tripped: %+v", loaded.Effects)
	}
	ae := loaded.Effects[0].Effects[0].ToActive()
	if ae.Type != systems.EffectBurn {
		t.Errorf("effect Type = %v, want burn", ae.Type)
	}
	if ae.Remaining != 0.9 {
		t.Errorf("effect Remaining = %f, want 0.9", ae.Remaining)
	}
	if ae.TickInterval != 0.25 {
		t.Errorf("effect TickInterval = %f, want 0.25", ae.TickInterval)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with highlight
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Highlight: &Highlight{
			Type: HighlightSwarmCollapse,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_swarm_collapse.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without highlight
	snapshotPlain := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(snapshotPlain, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}
