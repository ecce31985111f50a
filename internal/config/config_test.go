package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/oceansim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Time.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.StepCount() != 1080 {
		t.Errorf("expected 1080 steps, got %d", cfg.StepCount())
	}
	if cfg.Output.Step != -1 {
		t.Errorf("expected final-state output, got step %d", cfg.Output.Step)
	}
}

func TestStepCount(t *testing.T) {
	tests := []struct {
		dt, duration float64
		steps        int
		expected     int
	}{
		{10, 100, 0, 10},
		{30, 100, 0, 4},
		{0.1, 0.3, 0, 3},
		{10, 100, 7, 7},
		{0, 100, 0, 0},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Time.Dt, cfg.Time.Duration, cfg.Time.Steps = tt.dt, tt.duration, tt.steps
		if got := cfg.StepCount(); got != tt.expected {
			t.Errorf("dt=%g duration=%g steps=%d: expected %d, got %d",
				tt.dt, tt.duration, tt.steps, tt.expected, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(c *Config)
	}{
		{"time.dt", func(c *Config) { c.Time.Dt = 0 }},
		{"time.duration", func(c *Config) { c.Time.Duration = 0 }},
		{"physics.linear_drag", func(c *Config) { c.Physics.LinearDrag = -1 }},
		{"physics.open_relaxation", func(c *Config) { c.Physics.OpenRelaxation = 1.5 }},
		{"initial.kind", func(c *Config) { c.Initial.Kind = "meteor" }},
		{"grid.coarsen", func(c *Config) { c.Grid.Coarsen = 0 }},
		{"output.scale", func(c *Config) { c.Output.Scale = 0 }},
		{"output.field", func(c *Config) { c.Output.Field = "salinity" }},
		{"output.palette", func(c *Config) { c.Output.Palette = "neon" }},
		{"output.step", func(c *Config) { c.Output.Step = 5000 }},
		{"stability.courant_limit", func(c *Config) { c.Stability.CourantLimit = 0 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)

		err := cfg.Validate()
		var cfgErr *dynamo.InvalidConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected invalid configuration, got %v", tt.field, err)
			continue
		}
		if cfgErr.Field != tt.field {
			t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("impulse")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Initial.Kind != "impulse" || cfg.Initial.Amplitude != 1 {
		t.Errorf("unexpected initial condition %+v", cfg.Initial)
	}
	if cfg.Forcing.WindStressX != 0 {
		t.Error("impulse preset should have no wind")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
time:
  dt: 12
  max_wall_clock: 90s
forcing:
  wind_stress_y: 0.3
output:
  field: vorticity
gauge:
  i: 3
  j: 4
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Time.Dt != 12 || cfg.Time.MaxWallClock != 90*time.Second {
		t.Errorf("unexpected time section %+v", cfg.Time)
	}
	if cfg.Time.Duration != DefaultDuration {
		t.Error("unset duration should keep its default")
	}
	if cfg.Forcing.WindStressY != 0.3 || cfg.Forcing.WindStressX != 0.1 {
		t.Errorf("unexpected forcing %+v", cfg.Forcing)
	}
	if cfg.Gauge == nil || cfg.Gauge.I != 3 {
		t.Errorf("expected gauge at i=3, got %+v", cfg.Gauge)
	}
	if cfg.Output.Field != "vorticity" || cfg.Output.Scale != DefaultScale {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calm.yaml")
	if err := os.WriteFile(path, []byte("forcing:\n  wind_stress_x: 0.1\ngauge:\n  i: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("storm")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forcing.WindStressX != 0.1 || cfg.Forcing.WindStressY != 0.4 {
		t.Errorf("unexpected forcing %+v", cfg.Forcing)
	}
	if cfg.Time.Dt != 15 || cfg.Output.Field != "speed" {
		t.Errorf("preset values lost: dt=%g field=%s", cfg.Time.Dt, cfg.Output.Field)
	}
	if cfg.Gauge.I != 5 || cfg.Gauge.J != -1 {
		t.Errorf("unexpected gauge %+v", *cfg.Gauge)
	}
	if base.Gauge.I != 44 || base.Forcing.WindStressX != 0.8 {
		t.Error("LoadOver modified the base config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("seiche")
	cfg.Time.MaxWallClock = time.Minute

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Initial != cfg.Initial || loaded.Time != cfg.Time || *loaded.Gauge != *cfg.Gauge {
		t.Errorf("round trip changed config: %+v vs %+v", loaded, cfg)
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.SetParam("physics.quadratic_drag", 0.004); err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.QuadraticDrag != 0.004 {
		t.Errorf("expected 0.004, got %f", cfg.Physics.QuadraticDrag)
	}
	if v, _ := cfg.GetParam("physics.quadratic_drag"); v != 0.004 {
		t.Errorf("GetParam returned %f", v)
	}
	if err := cfg.SetParam("physics.viscosity", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if len(ParamKeys()) != len(params) {
		t.Error("ParamKeys should list every parameter")
	}
}

func TestClone(t *testing.T) {
	cfg := GetPreset("storm")
	cp := cfg.Clone()
	cp.Gauge.I = 1
	cp.Time.Dt = 1

	if cfg.Gauge.I == 1 || cfg.Time.Dt == 1 {
		t.Error("clone shares state with original")
	}
}
