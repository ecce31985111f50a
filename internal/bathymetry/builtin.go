package bathymetry

import (
	"fmt"

	"github.com/san-kum/oceansim/internal/dynamo"
)

const (
	basinNx      = 48
	basinNy      = 32
	basinSpacing = 2000.0
)

// FromRows builds a projected grid from depth rows (rows[0] is the southern
// edge) with uniform spacing in meters.
func FromRows(rows [][]float64, spacing float64, source string) (*Grid, error) {
	d := &Decoded{
		Coords: Projected,
		Source: source,
	}
	if len(rows) > 0 {
		d.Lon = axis(len(rows[0]), spacing)
	}
	d.Lat = axis(len(rows), spacing)

	for j, row := range rows {
		if len(row) != len(d.Lon) {
			return nil, dynamo.Malformedf("row %d has %d values, want %d", j, len(row), len(d.Lon))
		}
		d.Depth = append(d.Depth, row...)
	}

	return New(d)
}

// Uniform builds a flat nx by ny projected grid.
func Uniform(nx, ny int, depth, spacing float64) (*Grid, error) {
	rows := make([][]float64, ny)
	for j := range rows {
		rows[j] = make([]float64, nx)
		for i := range rows[j] {
			rows[j][i] = depth
		}
	}
	return FromRows(rows, spacing, fmt.Sprintf("uniform-%dx%d", nx, ny))
}

// DefaultBasin returns the built-in enclosed basin: a bowl with a shallow
// western shelf and a small island, surrounded by land.
func DefaultBasin() *Grid {
	rows := make([][]float64, basinNy)
	for j := range rows {
		rows[j] = make([]float64, basinNx)
		for i := range rows[j] {
			rows[j][i] = basinDepth(i, j)
		}
	}

	g, err := FromRows(rows, basinSpacing, "default-basin")
	if err != nil {
		panic(fmt.Sprintf("bathymetry: default basin: %v", err))
	}
	return g
}

func basinDepth(i, j int) float64 {
	if i == 0 || j == 0 || i == basinNx-1 || j == basinNy-1 {
		return 0
	}

	x := (float64(i)+0.5)/basinNx*2 - 1
	y := (float64(j)+0.5)/basinNy*2 - 1

	r2 := x*x + y*y
	if r2 >= 0.92 {
		return 0
	}

	// island
	if dx, dy := x-0.35, y-0.15; dx*dx+dy*dy < 0.015 {
		return 0
	}

	d := 20 + 180*(1-r2)
	if x < -0.45 {
		d = 20 + 0.35*(d-20)
	}
	return d
}

func axis(n int, spacing float64) []float64 {
	a := make([]float64, n)
	for k := range a {
		a[k] = (float64(k) + 0.5) * spacing
	}
	return a
}
