package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogOpenCreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestCatalogRecordAndQuery(t *testing.T) {
	c := openTemp(t)

	entries := []Entry{
		{RunID: "calm_1", Label: "calm", Source: "default-basin", Nx: 48, Ny: 32, Steps: 1080, Termination: "completed", Field: "elevation"},
		{RunID: "storm_1", Label: "storm", Source: "default-basin", Nx: 48, Ny: 32, Steps: 2160, Termination: "completed", Field: "speed", MaxSpeed: 1.2},
		{RunID: "storm_2", Label: "storm", Source: "gebco.nc", Nx: 10, Ny: 10, Steps: 17, Termination: "diverged", Field: "speed"},
	}
	for _, e := range entries {
		if _, err := c.Record(e); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	recent, err := c.Recent(10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(recent))
	}
	if recent[0].RunID != "storm_2" {
		t.Errorf("expected newest run first, got %s", recent[0].RunID)
	}

	storms, err := c.ByLabel("storm")
	if err != nil {
		t.Fatal(err)
	}
	if len(storms) != 2 {
		t.Errorf("expected 2 storm runs, got %d", len(storms))
	}

	e, err := c.ByRunID("storm_1")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil || e.MaxSpeed != 1.2 || e.Steps != 2160 {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}
}

func TestCatalogMissingRun(t *testing.T) {
	c := openTemp(t)
	e, err := c.ByRunID("nope")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Errorf("expected nil entry, got %+v", e)
	}
}

func TestCatalogReplaceAndDelete(t *testing.T) {
	c := openTemp(t)

	if _, err := c.Record(Entry{RunID: "r", Label: "a", Termination: "aborted"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Record(Entry{RunID: "r", Label: "a", Termination: "completed"}); err != nil {
		t.Fatal(err)
	}

	all, _ := c.Recent(0)
	if len(all) != 1 || all[0].Termination != "completed" {
		t.Errorf("expected single replaced row, got %+v", all)
	}

	if err := c.Delete("r"); err != nil {
		t.Fatal(err)
	}
	all, _ = c.Recent(0)
	if len(all) != 0 {
		t.Errorf("expected empty catalog, got %d rows", len(all))
	}
}

func TestCatalogPersistsAcrossOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	c, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Record(Entry{RunID: "keep", Label: "calm"}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	e, err := c.ByRunID("keep")
	if err != nil || e == nil {
		t.Fatalf("expected persisted run, got %v %v", e, err)
	}
}
