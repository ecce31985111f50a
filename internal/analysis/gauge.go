package analysis

import (
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

// Gauge records surface elevation at one cell after every committed step.
type Gauge struct {
	I, J   int
	cell   int
	times  []float64
	values []float64
}

// NewGauge places a gauge at cell (i, j); negative indices mean the domain
// center.
func NewGauge(m *mesh.Mesh, i, j int) (*Gauge, error) {
	if i < 0 {
		i = m.Nx / 2
	}
	if j < 0 {
		j = m.Ny / 2
	}
	if i >= m.Nx || j >= m.Ny {
		return nil, dynamo.Invalidf("gauge", "cell (%d,%d) outside %dx%d mesh", i, j, m.Nx, m.Ny)
	}
	c := m.Index(i, j)
	if !m.Wet(c) {
		return nil, dynamo.Invalidf("gauge", "cell (%d,%d) is land", i, j)
	}
	return &Gauge{I: i, J: j, cell: c}, nil
}

func (g *Gauge) OnStep(s *dynamo.State) {
	g.times = append(g.times, s.Time)
	g.values = append(g.values, s.Eta[g.cell])
}

func (g *Gauge) Series() []float64 { return g.values }

// Period estimates the dominant oscillation period from the recorded series.
func (g *Gauge) Period() (float64, error) {
	if len(g.times) < 2 {
		return 0, ErrShortSeries
	}
	dt := (g.times[len(g.times)-1] - g.times[0]) / float64(len(g.times)-1)
	return DominantPeriod(g.values, dt)
}
