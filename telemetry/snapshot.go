package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/rubble/components"
	"github.com/pthm-cable/rubble/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int    `json:"version"`
	RNGSeed int64  `json:"rng_seed"`
	Preset  string `json:"preset,omitempty"`

	ArenaWidth  float32 `json:"arena_width"`
	ArenaHeight float32 `json:"arena_height"`

	Tick          uint64  `json:"tick"`
	Wave          int     `json:"wave"`
	Score         int64   `json:"score"`
	WaveCountdown float32 `json:"wave_countdown"`

	Fragments   []FragmentState   `json:"fragments"`
	Projectiles []ProjectileState `json:"projectiles"`
	Ship        *ShipState        `json:"ship,omitempty"`
	Effects     []EffectSet       `json:"effects,omitempty"`

	Highlight *Highlight `json:"highlight,omitempty"`
}

// FragmentState holds one fragment's complete state.
type FragmentState struct {
	ID   uint32 `json:"id"`
	Size uint8  `json:"size"`

	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	VelX  float32 `json:"vel_x"`
	VelY  float32 `json:"vel_y"`
	Angle float32 `json:"angle"`
	Spin  float32 `json:"spin"`

	Health    float32          `json:"health"`
	Points    int32            `json:"points"`
	BaseColor components.Color `json:"base_color"`
	GeneticID string           `json:"genetic_id"`
	ParentID  string           `json:"parent_id,omitempty"`

	// Trait bundle, flattened
	SpeedMod   float32 `json:"speed_mod"`
	SizeMod    float32 `json:"size_mod"`
	MassMod    float32 `json:"mass_mod"`
	ColorShift int16   `json:"color_shift"`
	Generation int32   `json:"generation"`
}

// ProjectileState holds one projectile's state.
type ProjectileState struct {
	ID      uint32  `json:"id"`
	OwnerID uint32  `json:"owner_id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	VelX    float32 `json:"vel_x"`
	VelY    float32 `json:"vel_y"`
	Age     float32 `json:"age"`
	Life    float32 `json:"lifetime"`
}

// ShipState holds the reference actor's state.
type ShipState struct {
	ID       uint32  `json:"id"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	VelX     float32 `json:"vel_x"`
	VelY     float32 `json:"vel_y"`
	Heading  float32 `json:"heading"`
	Cooldown float32 `json:"cooldown"`
}

// EffectSet holds the active effects on one entity.
type EffectSet struct {
	EntityID uint32        `json:"entity_id"`
	Effects  []EffectState `json:"effects"`
}

// EffectState is the JSON-serializable form of an active status effect.
type EffectState struct {
	Type         uint8   `json:"type"`
	Category     uint8   `json:"category"`
	Stacking     uint8   `json:"stacking"`
	Magnitude    float32 `json:"magnitude"`
	Duration     float32 `json:"duration"`
	TickInterval float32 `json:"tick_interval"`
	Remaining    float32 `json:"remaining"`
	SincePulse   float32 `json:"since_pulse"`
}

// EffectStateOf converts an active effect to its JSON form.
func EffectStateOf(ae systems.ActiveEffect) EffectState {
	return EffectState{
		Type:         uint8(ae.Type),
		Category:     uint8(ae.Category),
		Stacking:     uint8(ae.Stacking),
		Magnitude:    ae.Magnitude,
		Duration:     ae.Duration,
		TickInterval: ae.TickInterval,
		Remaining:    ae.Remaining,
		SincePulse:   ae.SincePulse,
	}
}

// ToActive converts the JSON form back to an active effect.
func (es EffectState) ToActive() systems.ActiveEffect {
	return systems.ActiveEffect{
		Effect: systems.Effect{
			Type:         systems.EffectType(es.Type),
			Category:     systems.Category(es.Category),
			Stacking:     systems.StackMode(es.Stacking),
			Magnitude:    es.Magnitude,
			Duration:     es.Duration,
			TickInterval: es.TickInterval,
		},
		Remaining:  es.Remaining,
		SincePulse: es.SincePulse,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Highlight != nil {
		// Sanitize highlight type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Highlight.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
