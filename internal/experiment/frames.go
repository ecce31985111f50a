package experiment

import (
	"math"

	"github.com/san-kum/oceansim/internal/analysis"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/render"
)

// frameRecorder keeps the output field every n committed steps. Frames are
// rendered after the run so they share a color range.
type frameRecorder struct {
	mesh   *mesh.Mesh
	info   analysis.FieldInfo
	every  int
	values [][]float64
}

func newFrameRecorder(m *mesh.Mesh, field string, every int) *frameRecorder {
	info, _ := analysis.Lookup(field)
	return &frameRecorder{mesh: m, info: info, every: every}
}

func (f *frameRecorder) OnStep(s *dynamo.State) {
	if s.Step%f.every != 0 {
		return
	}
	values, err := analysis.Extract(f.info.Name, f.mesh, s)
	if err != nil {
		return
	}
	f.values = append(f.values, values)
}

func (f *frameRecorder) span(m *mesh.Mesh, diverging bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, values := range f.values {
		a, b := render.AutoRange(values, m, diverging)
		lo = math.Min(lo, a)
		hi = math.Max(hi, b)
	}
	return lo, hi
}
