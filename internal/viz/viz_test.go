package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/render"
	"github.com/san-kum/oceansim/internal/sim"
	"github.com/san-kum/oceansim/internal/storage"
)

func uniformMesh(t *testing.T, nx, ny int) *mesh.Mesh {
	t.Helper()
	g, err := bathymetry.Uniform(nx, ny, 100, 1000)
	if err != nil {
		t.Fatal(err)
	}
	m, err := mesh.Build(g, mesh.Options{Coarsen: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFieldMapShape(t *testing.T) {
	m := uniformMesh(t, 10, 10)
	values := make([]float64, m.Cells())
	pal, _ := render.LookupPalette("balance")

	tests := []struct {
		width     int
		wantLines int
		wantCols  int
	}{
		{20, 5, 10},
		{10, 5, 10},
		{5, 3, 5},
		{3, 2, 3},
	}

	for _, tt := range tests {
		out := FieldMap(values, m, pal, -1, 1, tt.width)
		lines := strings.Split(out, "\n")
		if len(lines) != tt.wantLines {
			t.Errorf("width %d: got %d lines, want %d", tt.width, len(lines), tt.wantLines)
		}
		for _, line := range lines {
			if w := lipgloss.Width(line); w != tt.wantCols {
				t.Errorf("width %d: line width %d, want %d", tt.width, w, tt.wantCols)
			}
		}
	}
}

func TestFieldMapRejectsMismatch(t *testing.T) {
	m := uniformMesh(t, 4, 4)
	pal, _ := render.LookupPalette("gray")
	if out := FieldMap(make([]float64, 3), m, pal, 0, 1, 10); out != "" {
		t.Errorf("expected empty map, got %q", out)
	}
}

func TestDownsample(t *testing.T) {
	values := []float64{1, 3, 5, 7, 9, 11}
	got := Downsample(values, 3)
	want := []float64{2, 6, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("bucket %d: got %g, want %g", k, got[k], want[k])
		}
	}
	if short := Downsample(values, 10); len(short) != len(values) {
		t.Errorf("short series should be unchanged, got %v", short)
	}
}

func TestPlot(t *testing.T) {
	out := Plot("volume", []float64{0, 1, 0, -1, 0}, 20, 5)
	if !strings.Contains(out, "volume") {
		t.Errorf("caption missing from plot:\n%s", out)
	}
	if out := Plot("empty", nil, 20, 5); !strings.Contains(out, "no data") {
		t.Errorf("unexpected empty plot %q", out)
	}
}

type recorder struct {
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgressThrottles(t *testing.T) {
	rec := &recorder{}
	p := NewProgress(rec, 100, 10)

	s := dynamo.NewState(4)
	for step := 0; step <= 100; step++ {
		s.Step = step
		p.OnStep(s)
	}
	if len(rec.msgs) != 11 {
		t.Fatalf("expected 11 updates, got %d", len(rec.msgs))
	}
	last := rec.msgs[10].(ProgressMsg)
	if last.Step != 100 || last.Preview != "" {
		t.Errorf("unexpected last update %+v", last)
	}
}

func TestProgressPreview(t *testing.T) {
	m := uniformMesh(t, 6, 6)
	rec := &recorder{}
	p := NewProgress(rec, 1, 0)
	p.Attach(m)

	s := dynamo.NewState(m.Cells())
	s.Eta[m.Index(3, 3)] = 0.5
	p.OnStep(s)

	msg := rec.msgs[0].(ProgressMsg)
	if msg.MaxEta != 0.5 || msg.Preview == "" {
		t.Errorf("unexpected update %+v", msg)
	}
}

func TestWatchModel(t *testing.T) {
	canceled := false
	var model tea.Model = NewWatchModel("test", 50, func() { canceled = true })

	model, _ = model.Update(ProgressMsg{Step: 25, Time: 500, MaxEta: 0.2})
	view := model.View()
	if !strings.Contains(view, "25/50") {
		t.Errorf("progress missing from view:\n%s", view)
	}

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !canceled {
		t.Error("quitting should cancel the run")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}

	model, cmd = model.Update(DoneMsg{Err: errors.New("boom")})
	wm := model.(WatchModel)
	if !wm.Done() || wm.Err() == nil || cmd == nil {
		t.Errorf("expected finished model with error, got %+v", wm)
	}
}

func TestPanels(t *testing.T) {
	res := &experiment.Result{
		RunID:        "calm_1",
		Steps:        10,
		SimTime:      200,
		WallTime:     1500 * time.Millisecond,
		Termination:  sim.Completed,
		Metrics:      map[string]float64{"volume_drift": 1e-9},
		SeichePeriod: 7200,
		Mesh:         mesh.Summary{Nx: 48, Ny: 32, Source: "default-basin"},
	}
	out := ResultPanel("calm", res)
	for _, want := range []string{"calm_1", "volume_drift", "48x32", "seiche period"} {
		if !strings.Contains(out, want) {
			t.Errorf("result panel missing %q:\n%s", want, out)
		}
	}

	meta := &storage.RunMetadata{ID: "storm_2", Label: "storm", Termination: "diverged", Error: "dynamo: numerical instability"}
	out = MetadataPanel(meta)
	for _, want := range []string{"storm_2", "diverged", "numerical instability"} {
		if !strings.Contains(out, want) {
			t.Errorf("metadata panel missing %q:\n%s", want, out)
		}
	}
}
