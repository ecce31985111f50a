package physics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

// Volume returns the elevation anomaly volume sum(eta*A) in m³.
func Volume(m *mesh.Mesh, s *dynamo.State) float64 {
	return floats.Dot(s.Eta, m.Area)
}

// Energy returns kinetic and potential energy in joules. Kinetic energy is
// summed over faces using the face depth and the mean area of the two
// adjacent cells.
func (w *ShallowWater) Energy(s *dynamo.State) (kinetic, potential float64) {
	m, p := w.mesh, w.params
	nx := m.Nx

	for c := range s.Eta {
		if !m.Wet(c) {
			continue
		}
		potential += 0.5 * p.WaterDensity * p.Gravity * s.Eta[c] * s.Eta[c] * m.Area[c]

		if m.EastOpen[c] {
			a := (m.Area[c] + m.Area[c+1]) / 2
			kinetic += 0.5 * p.WaterDensity * m.EastDepth[c] * s.U[c] * s.U[c] * a
		}
		if m.NorthOpen[c] {
			a := (m.Area[c] + m.Area[c+nx]) / 2
			kinetic += 0.5 * p.WaterDensity * m.NorthDepth[c] * s.V[c] * s.V[c] * a
		}
	}
	return kinetic, potential
}
