package physics

import (
	"math"
	"strings"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

// Initial condition kinds.
const (
	Rest     = "rest"
	Impulse  = "impulse"
	Gaussian = "gaussian"
	Tilt     = "tilt"
)

var InitialKinds = []string{Rest, Impulse, Gaussian, Tilt}

// Initial describes the step-0 disturbance. Velocities always start at zero.
// I and J select the disturbance cell; negative values mean the domain
// center.
type Initial struct {
	Kind      string  `yaml:"kind" json:"kind"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Radius    float64 `yaml:"radius" json:"radius"`
	I         int     `yaml:"i" json:"i"`
	J         int     `yaml:"j" json:"j"`
}

func KnownInitial(kind string) bool {
	for _, k := range InitialKinds {
		if strings.EqualFold(k, kind) {
			return true
		}
	}
	return false
}

// Center resolves the disturbance cell.
func (ic Initial) Center(m *mesh.Mesh) (int, int) {
	i, j := ic.I, ic.J
	if i < 0 {
		i = m.Nx / 2
	}
	if j < 0 {
		j = m.Ny / 2
	}
	return i, j
}

// Apply fills s with the initial state on m.
func (ic Initial) Apply(m *mesh.Mesh, s *dynamo.State) error {
	if s.Len() != m.Cells() {
		return dynamo.ErrDimensionMismatch
	}
	for k := range s.Eta {
		s.Eta[k], s.U[k], s.V[k] = 0, 0, 0
	}
	s.Time, s.Step = 0, 0

	ci, cj := ic.Center(m)
	switch strings.ToLower(ic.Kind) {
	case "", Rest:
		return nil

	case Impulse:
		if ci >= m.Nx || cj >= m.Ny {
			return dynamo.Invalidf("initial", "cell (%d,%d) outside %dx%d mesh", ci, cj, m.Nx, m.Ny)
		}
		c := m.Index(ci, cj)
		if !m.Wet(c) {
			return dynamo.Invalidf("initial", "cell (%d,%d) is land", ci, cj)
		}
		s.Eta[c] = ic.Amplitude

	case Gaussian:
		if ic.Radius <= 0 {
			return dynamo.Invalidf("initial.radius", "must be positive for a gaussian, got %g", ic.Radius)
		}
		if ci >= m.Nx || cj >= m.Ny {
			return dynamo.Invalidf("initial", "cell (%d,%d) outside %dx%d mesh", ci, cj, m.Nx, m.Ny)
		}
		center := m.Index(ci, cj)
		for c := range s.Eta {
			if !m.Wet(c) {
				continue
			}
			i, j := m.Coord(c)
			x := float64(i-ci) * (m.Dx[c] + m.Dx[center]) / 2
			y := float64(j-cj) * (m.Dy[c] + m.Dy[center]) / 2
			s.Eta[c] = ic.Amplitude * math.Exp(-(x*x+y*y)/(2*ic.Radius*ic.Radius))
		}

	case Tilt:
		span := float64(m.Nx - 1)
		if span < 1 {
			span = 1
		}
		for c := range s.Eta {
			if !m.Wet(c) {
				continue
			}
			i, _ := m.Coord(c)
			s.Eta[c] = ic.Amplitude * (2*float64(i)/span - 1)
		}

	default:
		return dynamo.Invalidf("initial.kind", "unknown kind %q", ic.Kind)
	}
	return nil
}
