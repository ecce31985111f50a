package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

const (
	Elevation = "elevation"
	Speed     = "speed"
	U         = "u"
	V         = "v"
	Vorticity = "vorticity"
	Depth     = "depth"
)

// FieldInfo describes a renderable field.
type FieldInfo struct {
	Name        string
	Units       string
	Diverging   bool
	Description string
}

var Fields = []FieldInfo{
	{Elevation, "m", true, "sea surface elevation anomaly"},
	{Speed, "m/s", false, "current speed at cell centers"},
	{U, "m/s", true, "eastward velocity at cell centers"},
	{V, "m/s", true, "northward velocity at cell centers"},
	{Vorticity, "1/s", true, "relative vorticity dv/dx - du/dy"},
	{Depth, "m", false, "mesh depth"},
}

func Lookup(name string) (FieldInfo, bool) {
	for _, f := range Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Extract computes a cell-centered field from s. Land cells are zero.
func Extract(name string, m *mesh.Mesh, s *dynamo.State) ([]float64, error) {
	info, ok := Lookup(name)
	if !ok {
		return nil, dynamo.Invalidf("output.field", "unknown field %q", name)
	}
	if s.Len() != m.Cells() {
		return nil, dynamo.ErrDimensionMismatch
	}

	out := make([]float64, m.Cells())
	switch info.Name {
	case Elevation:
		copy(out, s.Eta)
	case Depth:
		copy(out, m.Depth)
	case U:
		u, _ := centered(m, s)
		copy(out, u)
	case V:
		_, v := centered(m, s)
		copy(out, v)
	case Speed:
		u, v := centered(m, s)
		for c := range out {
			out[c] = math.Hypot(u[c], v[c])
		}
	case Vorticity:
		vorticity(m, s, out)
	}

	for c := range out {
		if !m.Wet(c) {
			out[c] = 0
		}
	}
	return out, nil
}

// centered averages each cell's two bounding faces.
func centered(m *mesh.Mesh, s *dynamo.State) ([]float64, []float64) {
	n := m.Cells()
	u, v := make([]float64, n), make([]float64, n)
	for c := 0; c < n; c++ {
		if !m.Wet(c) {
			continue
		}
		i, j := m.Coord(c)
		west, south := 0.0, 0.0
		if i > 0 {
			west = s.U[c-1]
		}
		if j > 0 {
			south = s.V[c-m.Nx]
		}
		u[c] = (s.U[c] + west) / 2
		v[c] = (s.V[c] + south) / 2
	}
	return u, v
}

func vorticity(m *mesh.Mesh, s *dynamo.State, out []float64) {
	u, v := centered(m, s)
	for c := range out {
		if !m.Wet(c) {
			continue
		}
		i, j := m.Coord(c)
		dvdx := derivative(m, v, c, i-1, j, i+1, j, m.Dx[c])
		dudy := derivative(m, u, c, i, j-1, i, j+1, m.Dy[c])
		out[c] = dvdx - dudy
	}
}

// derivative differences f across c using whichever wet neighbours exist.
func derivative(m *mesh.Mesh, f []float64, c, i0, j0, i1, j1 int, d float64) float64 {
	lo, hi := c, c
	if i0 >= 0 && j0 >= 0 && m.Wet(m.Index(i0, j0)) {
		lo = m.Index(i0, j0)
	}
	if i1 < m.Nx && j1 < m.Ny && m.Wet(m.Index(i1, j1)) {
		hi = m.Index(i1, j1)
	}

	steps := 0.0
	if lo != c {
		steps++
	}
	if hi != c {
		steps++
	}
	if steps == 0 {
		return 0
	}
	return (f[hi] - f[lo]) / (steps * d)
}
