package render

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

type Options struct {
	Palette *Palette

	// Min and Max fix the color range; equal values derive it from the data.
	Min, Max float64

	// Scale is the pixel size of one cell.
	Scale int
}

// Frame is a rendered raster together with the value range it maps.
type Frame struct {
	Image    *image.RGBA
	Min, Max float64
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	return &Renderer{opts: opts}
}

// Render maps values onto the mesh with north up. Land cells are drawn with
// LandColor.
func (r *Renderer) Render(values []float64, m *mesh.Mesh) (*Frame, error) {
	if r.opts.Palette == nil {
		return nil, fmt.Errorf("render: no palette")
	}
	if len(values) != m.Cells() {
		return nil, fmt.Errorf("render: %w: %d values for %d cells", dynamo.ErrDimensionMismatch, len(values), m.Cells())
	}

	lo, hi := r.opts.Min, r.opts.Max
	if lo == hi {
		lo, hi = AutoRange(values, m, r.opts.Palette.Diverging)
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	s := r.opts.Scale
	img := image.NewRGBA(image.Rect(0, 0, m.Nx*s, m.Ny*s))
	span := hi - lo

	for j := 0; j < m.Ny; j++ {
		py := (m.Ny - 1 - j) * s
		for i := 0; i < m.Nx; i++ {
			c := m.Index(i, j)
			col := LandColor
			if m.Wet(c) {
				col = r.opts.Palette.Color((values[c] - lo) / span)
			}

			for dy := 0; dy < s; dy++ {
				base := img.PixOffset(i*s, py+dy)
				for dx := 0; dx < s; dx++ {
					px := base + 4*dx
					img.Pix[px+0] = col.R
					img.Pix[px+1] = col.G
					img.Pix[px+2] = col.B
					img.Pix[px+3] = col.A
				}
			}
		}
	}

	return &Frame{Image: img, Min: lo, Max: hi}, nil
}

// AutoRange derives a color range from the finite values of wet cells.
// Diverging ranges are symmetric around zero. The range is never empty.
func AutoRange(values []float64, m *mesh.Mesh, diverging bool) (float64, float64) {
	wet := make([]float64, 0, len(values))
	for c, v := range values {
		if m.Wet(c) && !math.IsNaN(v) && !math.IsInf(v, 0) {
			wet = append(wet, v)
		}
	}
	if len(wet) == 0 {
		return -1, 1
	}

	lo, hi := floats.Min(wet), floats.Max(wet)
	if diverging {
		a := math.Max(math.Abs(lo), math.Abs(hi))
		if a == 0 {
			a = 1
		}
		return -a, a
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}
