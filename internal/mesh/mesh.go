// Package mesh derives the computational mesh the ocean model steps on: a
// cropped and optionally coarsened copy of the bathymetry with metric cell
// geometry, boundary classification and Arakawa C-grid face tables.
package mesh

import (
	"math"

	"github.com/san-kum/oceansim/internal/bathymetry"
)

// EarthRadius in meters.
const EarthRadius = 6371e3

type Class uint8

const (
	Land Class = iota
	Interior
	OpenBoundary
	ClosedBoundary
)

func (c Class) String() string {
	switch c {
	case Land:
		return "land"
	case Interior:
		return "interior"
	case OpenBoundary:
		return "open"
	case ClosedBoundary:
		return "closed"
	default:
		return "unknown"
	}
}

// Bounds selects a region by inclusive coordinate limits. The zero value
// selects everything.
type Bounds struct {
	LatMin float64 `yaml:"lat_min" json:"lat_min"`
	LatMax float64 `yaml:"lat_max" json:"lat_max"`
	LonMin float64 `yaml:"lon_min" json:"lon_min"`
	LonMax float64 `yaml:"lon_max" json:"lon_max"`
}

func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

type Options struct {
	Region  Bounds
	Coarsen int
}

// Mesh is the computational mesh. Per-cell slices have Nx*Ny entries in
// row-major order with row 0 in the south.
//
// Face tables follow the C-grid layout: entry c of the East* slices describes
// the face between c and its eastern neighbour, entry c of the North* slices
// the face between c and its northern neighbour.
type Mesh struct {
	Nx, Ny int
	Coords bathymetry.CoordSystem
	Source string

	Depth []float64
	Class []Class

	// Cell-center coordinates, X per column and Y per row.
	X []float64
	Y []float64

	// Metric cell widths and area in meters.
	Dx   []float64
	Dy   []float64
	Area []float64

	EastOpen  []bool
	EastDist  []float64
	EastLen   []float64
	EastDepth []float64

	NorthOpen  []bool
	NorthDist  []float64
	NorthLen   []float64
	NorthDepth []float64

	Pocket  []int
	Pockets int
}

func (m *Mesh) Cells() int {
	return m.Nx * m.Ny
}

func (m *Mesh) Index(i, j int) int {
	return j*m.Nx + i
}

func (m *Mesh) Coord(c int) (i, j int) {
	return c % m.Nx, c / m.Nx
}

func (m *Mesh) Wet(c int) bool {
	return m.Class[c] != Land
}

func (m *Mesh) Count(class Class) int {
	n := 0
	for _, c := range m.Class {
		if c == class {
			n++
		}
	}
	return n
}

// Summary is a compact description of a mesh for logs and run metadata.
type Summary struct {
	Nx       int     `json:"nx"`
	Ny       int     `json:"ny"`
	Wet      int     `json:"wet"`
	Interior int     `json:"interior"`
	Open     int     `json:"open"`
	Closed   int     `json:"closed"`
	Pockets  int     `json:"pockets"`
	MinDx    float64 `json:"min_dx"`
	MaxDepth float64 `json:"max_depth"`
	Coords   string  `json:"coords"`
	Source   string  `json:"source"`
}

func (m *Mesh) Summary() Summary {
	s := Summary{
		Nx:       m.Nx,
		Ny:       m.Ny,
		Interior: m.Count(Interior),
		Open:     m.Count(OpenBoundary),
		Closed:   m.Count(ClosedBoundary),
		Pockets:  m.Pockets,
		MinDx:    math.Inf(1),
		Coords:   m.Coords.String(),
		Source:   m.Source,
	}
	s.Wet = s.Interior + s.Open + s.Closed

	for c := range m.Class {
		if !m.Wet(c) {
			continue
		}
		s.MinDx = math.Min(s.MinDx, math.Min(m.Dx[c], m.Dy[c]))
		s.MaxDepth = math.Max(s.MaxDepth, m.Depth[c])
	}
	if math.IsInf(s.MinDx, 1) {
		s.MinDx = 0
	}
	return s
}
