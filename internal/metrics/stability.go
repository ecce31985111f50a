package metrics

import (
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/physics"
)

// Linearity is the fraction of observed steps in which every wet cell keeps
// |eta|/H below threshold. The model drops nonlinear terms, so values well
// under one flag runs outside its range of validity.
type Linearity struct {
	name       string
	mesh       *mesh.Mesh
	threshold  float64
	violations int
	samples    int
}

func NewLinearity(m *mesh.Mesh, threshold float64) *Linearity {
	return &Linearity{
		name:      "linearity",
		mesh:      m,
		threshold: threshold,
	}
}

func (l *Linearity) Name() string {
	return l.name
}

func (l *Linearity) Observe(s *dynamo.State) {
	l.samples++
	for c, eta := range s.Eta {
		if !l.mesh.Wet(c) {
			continue
		}
		if math.Abs(eta)/l.mesh.Depth[c] > l.threshold {
			l.violations++
			break
		}
	}
}

func (l *Linearity) Value() float64 {
	if l.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(l.violations)/float64(l.samples)
}

func (l *Linearity) Reset() {
	l.violations = 0
	l.samples = 0
}

// Standard returns the diagnostics recorded for every run.
func Standard(model *physics.ShallowWater) []dynamo.Metric {
	m := model.Mesh()
	return []dynamo.Metric{
		NewVolume(m),
		NewVolumeDrift(m),
		NewEnergy(model),
		NewKinetic(model),
		NewMaxSpeed(),
		NewPeakElevation(),
		NewLinearity(m, 0.1),
	}
}
