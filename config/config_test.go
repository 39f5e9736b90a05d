package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Arena.Width != 160 || cfg.Arena.Height != 144 {
		t.Errorf("arena = %dx%d, want 160x144", cfg.Arena.Width, cfg.Arena.Height)
	}
	if cfg.Projectiles.Cooldown != 0.15 {
		t.Errorf("projectile cooldown = %f, want 0.15", cfg.Projectiles.Cooldown)
	}
	if cfg.Projectiles.Lifetime != 2.0 {
		t.Errorf("projectile lifetime = %f, want 2.0", cfg.Projectiles.Lifetime)
	}
	if !cfg.Fracture.Genetics {
		t.Errorf("genetics disabled in defaults, want enabled")
	}
	if cfg.Derived.DT32 <= 0.016 || cfg.Derived.DT32 >= 0.017 {
		t.Errorf("derived DT32 = %f, want ~1/60", cfg.Derived.DT32)
	}
}

func TestSizeTableDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		size   int
		radius float64
		health float64
		points int
	}{
		{3, 8.0, 3, 20},
		{2, 4.0, 2, 50},
		{1, 2.0, 1, 100},
	}

	for _, tc := range tests {
		got := cfg.Derived.SizeByClass[tc.size]
		if got.Radius != tc.radius || got.Health != tc.health || got.Points != tc.points {
			t.Errorf("size %d archetype = {r:%f hp:%f pts:%d}, want {r:%f hp:%f pts:%d}",
				tc.size, got.Radius, got.Health, got.Points, tc.radius, tc.health, tc.points)
		}
	}

	// Largest radius scaled by the size-mod ceiling.
	if cfg.Derived.MaxSizeRadius < 10.3 || cfg.Derived.MaxSizeRadius > 10.5 {
		t.Errorf("MaxSizeRadius = %f, want 8.0*1.3", cfg.Derived.MaxSizeRadius)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name         string
		preset       string
		wantGenetics bool
		wantSpeedMin float64
		wantSurvival bool
	}{
		{"default is genetic", "", true, 15, false},
		{"genetic", "genetic", true, 15, false},
		{"classic", "classic", false, 15, false},
		{"hard", "hard", true, 25, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadPreset("", tc.preset)
			if err != nil {
				t.Fatalf("LoadPreset failed: %v", err)
			}
			if cfg.Fracture.Genetics != tc.wantGenetics {
				t.Errorf("genetics = %v, want %v", cfg.Fracture.Genetics, tc.wantGenetics)
			}
			if cfg.Fracture.SpeedMin != tc.wantSpeedMin {
				t.Errorf("speed min = %f, want %f", cfg.Fracture.SpeedMin, tc.wantSpeedMin)
			}
			if cfg.Waves.Survival != tc.wantSurvival {
				t.Errorf("survival = %v, want %v", cfg.Waves.Survival, tc.wantSurvival)
			}
		})
	}
}

func TestUnknownPresetRejected(t *testing.T) {
	if _, err := LoadPreset("", "nightmare"); err == nil {
		t.Errorf("LoadPreset with unknown preset succeeded, want error")
	}
}

func TestFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	body := "waves:\n  safe_radius: 55\narena:\n  width: 320\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", path, err)
	}
	if cfg.Waves.SafeRadius != 55 {
		t.Errorf("safe radius = %f, want 55 from overlay", cfg.Waves.SafeRadius)
	}
	if cfg.Arena.Width != 320 {
		t.Errorf("arena width = %d, want 320 from overlay", cfg.Arena.Width)
	}
	// Untouched values keep their defaults.
	if cfg.Arena.Height != 144 {
		t.Errorf("arena height = %d, want default 144", cfg.Arena.Height)
	}
}
