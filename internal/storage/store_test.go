package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/mesh"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runID, err := st.Allocate("seiche")
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta := &RunMetadata{
		ID:          runID,
		Label:       "seiche",
		Timestamp:   time.Now(),
		Dt:          20,
		Steps:       3,
		Termination: "completed",
		Mesh:        mesh.Summary{Nx: 48, Ny: 32, Pockets: 1},
		Metrics:     map[string]float64{"energy": 1.5},
	}
	times := []float64{0, 20, 40, 60}
	series := map[string][]float64{
		"volume": {1, 1, 1, 1},
		"gauge":  {0.3, 0.2, 0.1, 0},
	}

	if err := st.Save(meta, config.GetPreset("seiche"), times, series); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Label != "seiche" || loaded.Mesh.Nx != 48 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", loaded.Metrics["energy"])
	}

	gotTimes, gotSeries, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(gotTimes) != 4 || gotTimes[3] != 60 {
		t.Errorf("unexpected times %v", gotTimes)
	}
	if g := gotSeries["gauge"]; len(g) != 4 || g[0] != 0.3 {
		t.Errorf("unexpected gauge series %v", g)
	}

	cfg, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Initial.Kind != "tilt" {
		t.Errorf("expected stored seiche config, got %+v", cfg.Initial)
	}
}

func TestAllocateUnique(t *testing.T) {
	st := New(t.TempDir())
	seen := map[string]bool{}
	for k := 0; k < 5; k++ {
		id, err := st.Allocate("run")
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}

func TestListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for k, label := range []string{"old", "new"} {
		id, err := st.Allocate(label)
		if err != nil {
			t.Fatal(err)
		}
		meta := &RunMetadata{ID: id, Label: label, Timestamp: base.Add(time.Duration(k) * time.Hour)}
		if err := st.Save(meta, nil, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	// directories without metadata are skipped
	if err := os.Mkdir(filepath.Join(st.BaseDir(), "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Label != "new" {
		t.Errorf("unexpected listing %+v", runs)
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v %v", runs, err)
	}
}
