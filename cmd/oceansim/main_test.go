package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newRunCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestBuildConfigPrecedence(t *testing.T) {
	cfg, label, err := buildConfig(newRunCommand(t, "--preset", "storm", "--dt", "10"))
	if err != nil {
		t.Fatal(err)
	}
	if label != "storm" {
		t.Errorf("expected storm label, got %s", label)
	}
	if cfg.Time.Dt != 10 {
		t.Errorf("flag should override preset dt, got %g", cfg.Time.Dt)
	}
	if cfg.Output.Field != "speed" {
		t.Errorf("unset flags must keep preset values, got field %s", cfg.Output.Field)
	}
}

func TestBuildConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bay.yaml")
	if err := os.WriteFile(path, []byte("time:\n  dt: 12\noutput:\n  field: vorticity\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, label, err := buildConfig(newRunCommand(t, "--config", path, "--field", "speed"))
	if err != nil {
		t.Fatal(err)
	}
	if label != "bay" {
		t.Errorf("expected label from file name, got %s", label)
	}
	if cfg.Time.Dt != 12 || cfg.Output.Field != "speed" {
		t.Errorf("unexpected config dt=%g field=%s", cfg.Time.Dt, cfg.Output.Field)
	}
}

func TestBuildConfigFileOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gale.yaml")
	if err := os.WriteFile(path, []byte("time:\n  dt: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, label, err := buildConfig(newRunCommand(t, "--preset", "storm", "--config", path))
	if err != nil {
		t.Fatal(err)
	}
	if label != "gale" {
		t.Errorf("expected label from file name, got %s", label)
	}
	if cfg.Time.Dt != 12 {
		t.Errorf("file should override preset dt, got %g", cfg.Time.Dt)
	}
	if cfg.Output.Field != "speed" || cfg.Forcing.WindStressX != 0.8 {
		t.Errorf("preset values lost: field=%s wind=%g", cfg.Output.Field, cfg.Forcing.WindStressX)
	}
}

func TestBuildConfigUnknownPreset(t *testing.T) {
	if _, _, err := buildConfig(newRunCommand(t, "--preset", "hurricane")); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		spec    string
		key     string
		lo, hi  float64
		wantErr bool
	}{
		{"forcing.wind_stress_x=0.1:0.4", "forcing.wind_stress_x", 0.1, 0.4, false},
		{"time.dt=5:5", "time.dt", 5, 5, false},
		{"time.dt=5", "", 0, 0, true},
		{"time.dt=9:1", "", 0, 0, true},
		{"time.dt", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			key, r, err := parseRange(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRange(%q) error = %v", tt.spec, err)
			}
			if tt.wantErr {
				return
			}
			if key != tt.key || r[0] != tt.lo || r[1] != tt.hi {
				t.Errorf("got %s %v", key, r)
			}
		})
	}
}
