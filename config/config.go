// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/rubble/genetics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Arena       ArenaConfig       `yaml:"arena"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Pools       PoolsConfig       `yaml:"pools"`
	Ship        ShipConfig        `yaml:"ship"`
	Projectiles ProjectilesConfig `yaml:"projectiles"`
	Effects     EffectsConfig     `yaml:"effects"`
	Fracture    FractureConfig    `yaml:"fracture"`
	Sizes       []SizeConfig      `yaml:"sizes"`
	Waves       WavesConfig       `yaml:"waves"`
	Autopilot   AutopilotConfig   `yaml:"autopilot"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Preset selects a named difficulty overlay applied after file merging.
	// Presets are pure data overrides, never behavior forks.
	Preset string `yaml:"preset"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ArenaConfig holds play-area dimensions in world units.
// The arena is toroidal for movement; spawn placement stays inside Margin.
type ArenaConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Margin float64 `yaml:"margin"` // boundary margin for spawn placement
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// PoolsConfig holds fixed per-kind entity pool capacities.
type PoolsConfig struct {
	Fragments   int `yaml:"fragments"`
	Projectiles int `yaml:"projectiles"`
	Ships       int `yaml:"ships"`
}

// ShipConfig holds player ship handling parameters.
type ShipConfig struct {
	Radius    float64 `yaml:"radius"`
	Accel     float64 `yaml:"accel"`     // thrust acceleration, units/s^2
	Drag      float64 `yaml:"drag"`      // per-tick velocity retention factor
	TurnRate  float64 `yaml:"turn_rate"` // radians per second
	MaxSpeed  float64 `yaml:"max_speed"`
	Knockback float64 `yaml:"knockback"` // impulse on fragment impact
}

// ProjectilesConfig holds projectile pool and flight parameters.
type ProjectilesConfig struct {
	Cooldown        float64 `yaml:"cooldown"`         // per-owner fire cooldown, seconds
	Lifetime        float64 `yaml:"lifetime"`         // seconds before silent expiry
	MuzzleSpeed     float64 `yaml:"muzzle_speed"`
	SpawnOffset     float64 `yaml:"spawn_offset"`     // distance ahead of the muzzle
	DespawnMargin   float64 `yaml:"despawn_margin"`   // distance past arena edge before expiry
	InheritVelocity float64 `yaml:"inherit_velocity"` // fraction of shooter velocity added
	Radius          float64 `yaml:"radius"`
}

// EffectsConfig holds status-effect tuning.
type EffectsConfig struct {
	BurnOnHit     bool    `yaml:"burn_on_hit"`    // surviving fragments catch fire when shot
	BurnMagnitude float64 `yaml:"burn_magnitude"` // damage per burn pulse
	BurnDuration  float64 `yaml:"burn_duration"`
	BurnInterval  float64 `yaml:"burn_interval"` // seconds between burn pulses

	ImpactStunDuration  float64 `yaml:"impact_stun_duration"`  // ship stun on fragment impact
	ImpactSlowMagnitude float64 `yaml:"impact_slow_magnitude"` // ship speed factor while slowed
	ImpactSlowDuration  float64 `yaml:"impact_slow_duration"`
}

// FractureConfig holds destruction-cascade parameters.
type FractureConfig struct {
	Genetics             bool           `yaml:"genetics"`
	SpeedMin             float64        `yaml:"speed_min"` // offspring scatter speed range
	SpeedMax             float64        `yaml:"speed_max"`
	ScatterDegrees       float64        `yaml:"scatter_degrees"` // half-angle of the scatter cone
	PositionJitter       float64        `yaml:"position_jitter"` // offspring spawn offset range
	ParentVelocityFactor float64        `yaml:"parent_velocity_factor"`
	Variance             VarianceConfig `yaml:"variance"`
}

// VarianceConfig holds per-trait mutation rates as fractions.
type VarianceConfig struct {
	Speed float64 `yaml:"speed"`
	Size  float64 `yaml:"size"`
	Mass  float64 `yaml:"mass"`
}

// SizeConfig defines the archetype for one fragment size class.
type SizeConfig struct {
	Size   int     `yaml:"size"`
	Radius float64 `yaml:"radius"`
	Health float64 `yaml:"health"`
	Points int     `yaml:"points"`
	Shade  uint8   `yaml:"shade"` // grayscale base color before lineage tint
}

// WavesConfig holds wave progression and safe-haven placement parameters.
type WavesConfig struct {
	BaseCount     int     `yaml:"base_count"`
	CountStep     int     `yaml:"count_step"`
	CountCap      int     `yaml:"count_cap"`
	ScriptedWaves int     `yaml:"scripted_waves"` // waves following the base formula
	ExtendedStep  int     `yaml:"extended_step"`  // extra count per wave past the scripted set
	ExtendedCap   int     `yaml:"extended_cap"`
	SpeedStep     float64 `yaml:"speed_step"`
	SpeedCap      float64 `yaml:"speed_cap"` // 0 = uncapped

	DriftMin float64 `yaml:"drift_min"` // spawned object speed range before multiplier
	DriftMax float64 `yaml:"drift_max"`

	SafeRadius        float64 `yaml:"safe_radius"`
	SafetyMargin      float64 `yaml:"safety_margin"`
	PlacementAttempts int     `yaml:"placement_attempts"`
	SpawnDelay        float64 `yaml:"spawn_delay"` // seconds between wave clear and next spawn

	Survival            bool    `yaml:"survival"`
	SurvivalSpeedFactor float64 `yaml:"survival_speed_factor"`
	SurvivalCountFactor float64 `yaml:"survival_count_factor"`
	SurvivalSafeRadius  float64 `yaml:"survival_safe_radius"`
}

// AutopilotConfig holds demo-pilot steering parameters.
type AutopilotConfig struct {
	Enabled      bool    `yaml:"enabled"`
	AimTolerance float64 `yaml:"aim_tolerance"` // max heading error before firing, radians
	Throttle     float64 `yaml:"throttle"`
	CenterBias   float64 `yaml:"center_bias"` // distance from center before steering home
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	SnapshotInterval    float64 `yaml:"snapshot_interval"` // seconds, 0 = disabled
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32          float32            // Physics.DT as float32
	ScreenW32     float32            // Screen.Width as float32
	ScreenH32     float32            // Screen.Height as float32
	ArenaW32      float32            // Arena.Width as float32
	ArenaH32      float32            // Arena.Height as float32
	ScatterRad    float32            // Fracture.ScatterDegrees in radians
	SizeByClass   [4]SizeConfig      // archetypes indexed by size class 1..3
	MaxSizeRadius float32            // largest possible trait-scaled fragment radius
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	return InitPreset(path, "")
}

// InitPreset is Init with an explicit preset name overriding the config file's.
func InitPreset(path, preset string) error {
	cfg, err := LoadPreset(path, preset)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// MustInitPreset is like InitPreset but panics on error.
func MustInitPreset(path, preset string) {
	if err := InitPreset(path, preset); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	return LoadPreset(path, "")
}

// LoadPreset is Load with an explicit preset name overriding the config file's.
func LoadPreset(path, preset string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if preset != "" {
		cfg.Preset = preset
	}
	if err := cfg.applyPreset(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// applyPreset overlays the named difficulty preset onto the loaded values.
func (c *Config) applyPreset() error {
	switch c.Preset {
	case "", "genetic":
		// Embedded defaults are the genetic/evolving preset.
	case "classic":
		c.Fracture.Genetics = false
		c.Effects.BurnOnHit = false
	case "hard":
		c.Fracture.Genetics = true
		c.Fracture.SpeedMin = 25
		c.Fracture.SpeedMax = 60
		c.Effects.BurnOnHit = true
		c.Waves.Survival = true
	default:
		return fmt.Errorf("unknown preset %q (valid: classic, genetic, hard)", c.Preset)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.ArenaW32 = float32(c.Arena.Width)
	c.Derived.ArenaH32 = float32(c.Arena.Height)
	c.Derived.ScatterRad = float32(c.Fracture.ScatterDegrees * math.Pi / 180.0)

	// Synthesize the classic size table if none specified
	if len(c.Sizes) == 0 {
		c.Sizes = []SizeConfig{
			{Size: 3, Radius: 8.0, Health: 3, Points: 20, Shade: 170},
			{Size: 2, Radius: 4.0, Health: 2, Points: 50, Shade: 192},
			{Size: 1, Radius: 2.0, Health: 1, Points: 100, Shade: 224},
		}
	}

	var maxRadius float64
	for _, s := range c.Sizes {
		if s.Size >= 1 && s.Size < len(c.Derived.SizeByClass) {
			c.Derived.SizeByClass[s.Size] = s
		}
		if s.Radius > maxRadius {
			maxRadius = s.Radius
		}
	}
	// Largest archetype radius scaled by the max heritable size modifier.
	c.Derived.MaxSizeRadius = float32(maxRadius * genetics.SizeModMax)

	if c.Waves.PlacementAttempts <= 0 {
		c.Waves.PlacementAttempts = 50
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
