// Package render turns scalar fields on a mesh into color-mapped rasters and
// writes them through image sinks.
package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const lutSize = 256

// LandColor is the fixed fill for land cells.
var LandColor = color.RGBA{R: 0x9a, G: 0x96, B: 0x8e, A: 0xff}

// Palette maps normalized values in [0, 1] to colors through a lookup table
// interpolated in CIE-Lab space.
type Palette struct {
	Name      string
	Diverging bool
	lut       [lutSize]color.RGBA
}

// NewPalette builds a palette from two or more hex color stops spaced
// evenly over [0, 1].
func NewPalette(name string, diverging bool, stops ...string) (*Palette, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("render: palette %s needs at least 2 stops", name)
	}

	cols := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("render: palette %s stop %q: %w", name, s, err)
		}
		cols[i] = c
	}

	p := &Palette{Name: name, Diverging: diverging}
	segments := float64(len(cols) - 1)
	for k := 0; k < lutSize; k++ {
		t := float64(k) / (lutSize - 1) * segments
		seg := int(math.Min(math.Floor(t), segments-1))
		c := cols[seg].BlendLab(cols[seg+1], t-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		p.lut[k] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return p, nil
}

func mustPalette(name string, diverging bool, stops ...string) *Palette {
	p, err := NewPalette(name, diverging, stops...)
	if err != nil {
		panic(err)
	}
	return p
}

var palettes = map[string]*Palette{
	"balance": mustPalette("balance", true, "#1b2a6b", "#3f7fc4", "#f4f4f2", "#d9714c", "#7d1620"),
	"ocean":   mustPalette("ocean", false, "#03051a", "#0b3d91", "#1f78b4", "#4fc3f7", "#e0f7fa"),
	"thermal": mustPalette("thermal", false, "#04082e", "#5b1a8a", "#c4325a", "#f68d45", "#fbfa9c"),
	"viridis": mustPalette("viridis", false, "#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"),
	"deep":    mustPalette("deep", false, "#e0f3f8", "#74add1", "#2c6aa8", "#08306b"),
	"gray":    mustPalette("gray", false, "#000000", "#ffffff"),
}

func LookupPalette(name string) (*Palette, bool) {
	p, ok := palettes[strings.ToLower(name)]
	return p, ok
}

func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultPalette picks a palette for a field kind.
func DefaultPalette(field string, diverging bool) *Palette {
	switch {
	case diverging:
		return palettes["balance"]
	case field == "depth":
		return palettes["deep"]
	default:
		return palettes["thermal"]
	}
}

// Color maps t to a color, clamping to the palette extremes. NaN maps to
// the low end.
func (p *Palette) Color(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return p.lut[int(t*(lutSize-1)+0.5)]
}

// GIFPalette returns at most 256 colors covering the palette and LandColor.
func (p *Palette) GIFPalette() color.Palette {
	pal := make(color.Palette, 0, lutSize)
	pal = append(pal, LandColor)
	for k := 0; k < lutSize-1; k++ {
		pal = append(pal, p.lut[k*(lutSize-1)/(lutSize-2)])
	}
	return pal
}
