package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Anchor.Y != 5 {
		t.Errorf("expected anchor y 5, got %f", cfg.Anchor.Y)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if len(cfg.Bodies) != 3 {
		t.Errorf("expected 3 bodies, got %d", len(cfg.Bodies))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSettings(t *testing.T) {
	cfg := DefaultConfig()
	mu := 0.02
	cfg.Bodies[0].Mass = 2
	cfg.Bodies[0].Friction = &mu

	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.Ramp.B.X() != cfg.Anchor.X+ramp.Span {
		t.Errorf("B.x = %f", s.Ramp.B.X())
	}
	line := s.Bodies[0]
	if line.Kind != ramp.Line {
		t.Fatalf("first body kind %s", line.Kind)
	}
	if line.Params.Mass != 2 {
		t.Errorf("mass = %f, want 2", line.Params.Mass)
	}
	if line.Params.Mu != 0.02 || line.Params.MuRamp != 0.04 {
		t.Errorf("friction = %f/%f", line.Params.Mu, line.Params.MuRamp)
	}
	if s.Bodies[1].Params.Mu != 0.008 {
		t.Errorf("parabola default friction = %f", s.Bodies[1].Params.Mu)
	}
}

func TestSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
		want error
	}{
		{"anchor below finish", func(c *Config) { c.Anchor.Y = 0.5 }, dynamo.ErrDegenerateAnchors},
		{"unknown curve", func(c *Config) { c.Bodies[0].Curve = "spiral" }, dynamo.ErrUnknownCurve},
		{"bad restitution", func(c *Config) { c.Collision.Restitution = 1.5 }, dynamo.ErrParameterBounds},
		{"duplicate names", func(c *Config) { c.Bodies[1].Name = c.Bodies[0].Name }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			_, err := cfg.Settings()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.yaml")

	cfg := DefaultConfig()
	cfg.Anchor.Y = 8
	cfg.Separation = 1.5
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Anchor.Y != 8 || loaded.Separation != 1.5 {
		t.Errorf("round trip lost values: %+v", loaded.Anchor)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.yaml")
	data := "anchor:\n  y: 6\nbodies:\n  - curve: cycloid\n  - curve: line\n    mass: 2\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Anchor.X != 1 || cfg.Anchor.Y != 6 {
		t.Errorf("anchor = %+v", cfg.Anchor)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("dt = %f", cfg.Dt)
	}
	if len(cfg.Bodies) != 2 || cfg.Bodies[0].Name != "Cycloid" {
		t.Errorf("bodies = %+v", cfg.Bodies)
	}
	if _, err := cfg.Settings(); err != nil {
		t.Errorf("settings: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("steep")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Anchor.Y != 9 {
		t.Errorf("expected anchor y 9, got %f", cfg.Anchor.Y)
	}

	cfg.Bodies[0].Name = "changed"
	if Presets["steep"].Bodies[0].Name == "changed" {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestSanitize(t *testing.T) {
	cfg := &Config{Anchor: AnchorConfig{X: -2, Y: 0.5}}
	cfg.Sanitize()

	if cfg.Anchor.X != 1 || cfg.Anchor.Y != 5 {
		t.Errorf("anchor = %+v, want defaults", cfg.Anchor)
	}
	if cfg.Dt != DefaultDt || cfg.Duration != DefaultDuration {
		t.Errorf("dt %f duration %f", cfg.Dt, cfg.Duration)
	}
	if len(cfg.Bodies) != 3 {
		t.Errorf("expected default bodies, got %d", len(cfg.Bodies))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sanitized config invalid: %v", err)
	}
}
