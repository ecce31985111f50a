package mesh

import (
	"math"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/dynamo"
)

// Build derives a mesh from a grid: crop to the region, coarsen, classify
// cells, compute metric geometry and face tables, then label pockets.
func Build(g *bathymetry.Grid, opts Options) (*Mesh, error) {
	if g == nil {
		return nil, dynamo.Malformedf("no grid")
	}

	i0, i1, j0, j1 := 0, g.Nx-1, 0, g.Ny-1
	if !opts.Region.IsZero() {
		var ok bool
		if i0, i1, ok = span(g.Lon, opts.Region.LonMin, opts.Region.LonMax); !ok {
			return nil, &dynamo.EmptyDomainError{Reason: "region selects no columns"}
		}
		if j0, j1, ok = span(g.Lat, opts.Region.LatMin, opts.Region.LatMax); !ok {
			return nil, &dynamo.EmptyDomainError{Reason: "region selects no rows"}
		}
	}

	factor := opts.Coarsen
	if factor < 1 {
		factor = 1
	}

	m := coarsen(g, i0, i1, j0, j1, factor)
	classify(m)

	if m.Count(Interior) == 0 {
		return nil, &dynamo.EmptyDomainError{Reason: "mesh has no interior sea cell"}
	}

	geometry(m)
	faces(m)
	m.Pockets = label(m)

	return m, nil
}

// span finds the contiguous index range of an ascending axis inside [lo, hi].
func span(axis []float64, lo, hi float64) (int, int, bool) {
	if lo > hi {
		lo, hi = hi, lo
	}
	first, last := -1, -1
	for k, v := range axis {
		if v >= lo && v <= hi {
			if first < 0 {
				first = k
			}
			last = k
		}
	}
	return first, last, first >= 0
}

// coarsen aggregates factor by factor blocks of the cropped grid. A block is
// sea when at least half its cells are sea; its depth is the mean over the
// sea cells only.
func coarsen(g *bathymetry.Grid, i0, i1, j0, j1, factor int) *Mesh {
	w, h := i1-i0+1, j1-j0+1
	nx := (w + factor - 1) / factor
	ny := (h + factor - 1) / factor

	m := &Mesh{
		Nx:     nx,
		Ny:     ny,
		Coords: g.Coords,
		Source: g.Source,
		Depth:  make([]float64, nx*ny),
		Class:  make([]Class, nx*ny),
		X:      make([]float64, nx),
		Y:      make([]float64, ny),
	}

	for bi := 0; bi < nx; bi++ {
		lo, hi := i0+bi*factor, min(i0+(bi+1)*factor, i1+1)
		m.X[bi] = mean(g.Lon[lo:hi])
	}
	for bj := 0; bj < ny; bj++ {
		lo, hi := j0+bj*factor, min(j0+(bj+1)*factor, j1+1)
		m.Y[bj] = mean(g.Lat[lo:hi])
	}

	for bj := 0; bj < ny; bj++ {
		for bi := 0; bi < nx; bi++ {
			cells, sea, sum := 0, 0, 0.0
			for j := j0 + bj*factor; j < min(j0+(bj+1)*factor, j1+1); j++ {
				for i := i0 + bi*factor; i < min(i0+(bi+1)*factor, i1+1); i++ {
					cells++
					if g.IsWet(i, j) {
						sea++
						sum += g.At(i, j)
					}
				}
			}
			if sea > 0 && 2*sea >= cells {
				m.Depth[bj*nx+bi] = sum / float64(sea)
			}
		}
	}

	return m
}

// classify derives the cell classes from the mask: land-adjacent sea cells
// are closed boundaries, remaining sea cells on the domain edge are open.
func classify(m *Mesh) {
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			c := m.Index(i, j)
			if m.Depth[c] <= 0 {
				m.Depth[c] = 0
				m.Class[c] = Land
				continue
			}

			switch {
			case m.landAt(i-1, j) || m.landAt(i+1, j) || m.landAt(i, j-1) || m.landAt(i, j+1):
				m.Class[c] = ClosedBoundary
			case i == 0 || j == 0 || i == m.Nx-1 || j == m.Ny-1:
				m.Class[c] = OpenBoundary
			default:
				m.Class[c] = Interior
			}
		}
	}
}

// landAt reports a land neighbour; positions outside the domain are not land.
func (m *Mesh) landAt(i, j int) bool {
	if i < 0 || j < 0 || i >= m.Nx || j >= m.Ny {
		return false
	}
	return m.Depth[m.Index(i, j)] <= 0
}

func geometry(m *Mesh) {
	n := m.Cells()
	m.Dx = make([]float64, n)
	m.Dy = make([]float64, n)
	m.Area = make([]float64, n)

	geographic := m.Coords == bathymetry.Geographic
	for j := 0; j < m.Ny; j++ {
		dy := spacing(m.Y, j)
		coslat := 1.0
		if geographic {
			dy = EarthRadius * dy * math.Pi / 180
			coslat = math.Cos(m.Y[j] * math.Pi / 180)
		}

		for i := 0; i < m.Nx; i++ {
			dx := spacing(m.X, i)
			if geographic {
				dx = EarthRadius * coslat * dx * math.Pi / 180
			}
			c := m.Index(i, j)
			m.Dx[c] = dx
			m.Dy[c] = dy
			m.Area[c] = dx * dy
		}
	}
}

// spacing is the centered coordinate difference at k, one-sided at the ends.
func spacing(axis []float64, k int) float64 {
	n := len(axis)
	switch {
	case n < 2:
		return 1
	case k == 0:
		return axis[1] - axis[0]
	case k == n-1:
		return axis[n-1] - axis[n-2]
	default:
		return (axis[k+1] - axis[k-1]) / 2
	}
}

func faces(m *Mesh) {
	n := m.Cells()
	m.EastOpen = make([]bool, n)
	m.EastDist = make([]float64, n)
	m.EastLen = make([]float64, n)
	m.EastDepth = make([]float64, n)
	m.NorthOpen = make([]bool, n)
	m.NorthDist = make([]float64, n)
	m.NorthLen = make([]float64, n)
	m.NorthDepth = make([]float64, n)

	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			c := m.Index(i, j)
			if !m.Wet(c) {
				continue
			}
			if i+1 < m.Nx && m.Wet(c+1) {
				e := c + 1
				m.EastOpen[c] = true
				m.EastDist[c] = (m.Dx[c] + m.Dx[e]) / 2
				m.EastLen[c] = (m.Dy[c] + m.Dy[e]) / 2
				m.EastDepth[c] = (m.Depth[c] + m.Depth[e]) / 2
			}
			if j+1 < m.Ny && m.Wet(c+m.Nx) {
				nn := c + m.Nx
				m.NorthOpen[c] = true
				m.NorthDist[c] = (m.Dy[c] + m.Dy[nn]) / 2
				m.NorthLen[c] = (m.Dx[c] + m.Dx[nn]) / 2
				m.NorthDepth[c] = (m.Depth[c] + m.Depth[nn]) / 2
			}
		}
	}
}

// label assigns a pocket id to each connected group of wet cells using a
// 4-neighbour flood fill, and returns the number of pockets.
func label(m *Mesh) int {
	m.Pocket = make([]int, m.Cells())
	for c := range m.Pocket {
		m.Pocket[c] = -1
	}

	pockets := 0
	stack := make([]int, 0, 64)
	for start := range m.Pocket {
		if !m.Wet(start) || m.Pocket[start] >= 0 {
			continue
		}

		m.Pocket[start] = pockets
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			i, j := m.Coord(c)
			for _, nb := range [4][2]int{{i - 1, j}, {i + 1, j}, {i, j - 1}, {i, j + 1}} {
				if nb[0] < 0 || nb[1] < 0 || nb[0] >= m.Nx || nb[1] >= m.Ny {
					continue
				}
				k := m.Index(nb[0], nb[1])
				if m.Wet(k) && m.Pocket[k] < 0 {
					m.Pocket[k] = pockets
					stack = append(stack, k)
				}
			}
		}
		pockets++
	}
	return pockets
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
