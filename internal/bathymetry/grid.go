package bathymetry

import (
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
)

// CoordSystem tells how grid coordinates map to metric distances.
type CoordSystem int

const (
	// Geographic coordinates are degrees of latitude and longitude.
	Geographic CoordSystem = iota
	// Projected coordinates are already meters.
	Projected
)

func (c CoordSystem) String() string {
	switch c {
	case Geographic:
		return "geographic"
	case Projected:
		return "projected"
	default:
		return "unknown"
	}
}

// Decoded is raw provider output before validation. Depth is row-major with
// len(Lat) rows of len(Lon) values each.
type Decoded struct {
	Depth []float64
	Lat   []float64
	Lon   []float64

	Coords CoordSystem

	// Elevation marks Depth as heights above sea level (GEBCO convention).
	Elevation bool

	Source string
}

// Grid is validated bathymetry. Depth is positive below sea level and zero
// on land; Lat and Lon are ascending.
type Grid struct {
	Nx, Ny int
	Depth  []float64
	Wet    []bool
	Lat    []float64
	Lon    []float64
	Coords CoordSystem
	Source string
}

// New validates decoded data and builds a Grid. Descending coordinate axes
// are flipped together with the data.
func New(d *Decoded) (*Grid, error) {
	if d == nil {
		return nil, dynamo.Malformedf("no decoded data")
	}

	nx, ny := len(d.Lon), len(d.Lat)
	if nx == 0 || ny == 0 {
		return nil, dynamo.Malformedf("empty coordinate arrays (%d lat, %d lon)", ny, nx)
	}
	if len(d.Depth) != nx*ny {
		return nil, dynamo.Malformedf("depth has %d values, coordinates describe %dx%d", len(d.Depth), nx, ny)
	}

	flipLat, err := direction("lat", d.Lat)
	if err != nil {
		return nil, err
	}
	flipLon, err := direction("lon", d.Lon)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		Nx:     nx,
		Ny:     ny,
		Depth:  make([]float64, nx*ny),
		Wet:    make([]bool, nx*ny),
		Lat:    make([]float64, ny),
		Lon:    make([]float64, nx),
		Coords: d.Coords,
		Source: d.Source,
	}

	for j := 0; j < ny; j++ {
		sj := j
		if flipLat {
			sj = ny - 1 - j
		}
		g.Lat[j] = d.Lat[sj]

		for i := 0; i < nx; i++ {
			si := i
			if flipLon {
				si = nx - 1 - i
			}

			v := d.Depth[sj*nx+si]
			if d.Elevation {
				v = -v
			}

			c := j*nx + i
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
				g.Depth[c] = v
				g.Wet[c] = true
			}
		}
	}
	for i := 0; i < nx; i++ {
		si := i
		if flipLon {
			si = nx - 1 - i
		}
		g.Lon[i] = d.Lon[si]
	}

	if g.WetCount() == 0 {
		return nil, dynamo.Malformedf("all %d cells are land", nx*ny)
	}

	return g, nil
}

// direction reports whether a coordinate axis is strictly descending and
// rejects non-finite or non-monotonic axes.
func direction(name string, axis []float64) (bool, error) {
	for k, v := range axis {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, dynamo.Malformedf("%s[%d] is not finite", name, k)
		}
	}
	if len(axis) < 2 {
		return false, nil
	}

	descending := axis[1] < axis[0]
	for k := 1; k < len(axis); k++ {
		step := axis[k] - axis[k-1]
		if step == 0 || (step < 0) != descending {
			return false, dynamo.Malformedf("%s is not strictly monotonic at index %d", name, k)
		}
	}
	return descending, nil
}

func (g *Grid) Index(i, j int) int {
	return j*g.Nx + i
}

func (g *Grid) At(i, j int) float64 {
	return g.Depth[g.Index(i, j)]
}

func (g *Grid) IsWet(i, j int) bool {
	return g.Wet[g.Index(i, j)]
}

func (g *Grid) WetCount() int {
	n := 0
	for _, w := range g.Wet {
		if w {
			n++
		}
	}
	return n
}

func (g *Grid) MaxDepth() float64 {
	deepest := 0.0
	for _, d := range g.Depth {
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}
