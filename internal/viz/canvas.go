package viz

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/render"
)

// Upper half block: the foreground paints the northern cell of a pair, the
// background the southern one.
const halfBlock = "▀"

// FieldMap draws values as a north-up color map at most maxWidth characters
// wide. Each character covers two rows of sampled cells.
func FieldMap(values []float64, m *mesh.Mesh, pal *render.Palette, lo, hi float64, maxWidth int) string {
	if len(values) != m.Cells() || maxWidth < 1 {
		return ""
	}
	stride := (m.Nx + maxWidth - 1) / maxWidth
	if stride < 1 {
		stride = 1
	}
	cols := (m.Nx + stride - 1) / stride
	rows := (m.Ny + stride - 1) / stride

	span := hi - lo
	if span == 0 {
		span = 1
	}
	sample := func(col, row int) color.RGBA {
		i := min(col*stride+stride/2, m.Nx-1)
		// row 0 is the northern edge
		j := max(m.Ny-1-(row*stride+stride/2), 0)
		c := m.Index(i, j)
		if !m.Wet(c) {
			return render.LandColor
		}
		return pal.Color((values[c] - lo) / span)
	}

	var b strings.Builder
	for row := 0; row < rows; row += 2 {
		for col := 0; col < cols; col++ {
			style := lipgloss.NewStyle().Foreground(hex(sample(col, row)))
			if row+1 < rows {
				style = style.Background(hex(sample(col, row+1)))
			}
			b.WriteString(style.Render(halfBlock))
		}
		if row+2 < rows {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
