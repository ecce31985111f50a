package render

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

func testMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	g, err := bathymetry.FromRows([][]float64{
		{0, 10, 10, 10},
		{10, 10, 10, 10},
		{10, 10, 10, 10},
	}, 100, "test")
	if err != nil {
		t.Fatal(err)
	}
	m, err := mesh.Build(g, mesh.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPaletteClamps(t *testing.T) {
	p, ok := LookupPalette("balance")
	if !ok {
		t.Fatal("balance palette missing")
	}

	if p.Color(-3) != p.Color(0) || p.Color(math.NaN()) != p.Color(0) {
		t.Error("values below range should clamp to the low end")
	}
	if p.Color(12) != p.Color(1) {
		t.Error("values above range should clamp to the high end")
	}
	if p.Color(0) == p.Color(1) {
		t.Error("palette extremes should differ")
	}
}

func TestPaletteStops(t *testing.T) {
	p, err := NewPalette("bw", false, "#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if c := p.Color(0); c.R != 0 || c.G != 0 || c.B != 0 || c.A != 0xff {
		t.Errorf("expected black, got %v", c)
	}
	if c := p.Color(1); c.R != 0xff || c.G != 0xff || c.B != 0xff {
		t.Errorf("expected white, got %v", c)
	}

	if _, err := NewPalette("one", false, "#000000"); err == nil {
		t.Error("expected error for a single stop")
	}
	if _, err := NewPalette("bad", false, "#000000", "nope"); err == nil {
		t.Error("expected error for an invalid hex stop")
	}
}

func TestPaletteNames(t *testing.T) {
	names := PaletteNames()
	if !sort.StringsAreSorted(names) {
		t.Error("names should be sorted")
	}
	if len(names) < 4 {
		t.Errorf("expected several palettes, got %v", names)
	}
	if _, ok := LookupPalette("nope"); ok {
		t.Error("unexpected palette")
	}
	if len(palettes["ocean"].GIFPalette()) != 256 {
		t.Error("gif palette should have 256 entries")
	}
}

func TestRenderOrientationAndLand(t *testing.T) {
	m := testMesh(t)
	values := make([]float64, m.Cells())
	values[m.Index(3, 2)] = 5 // north-east corner

	p, _ := LookupPalette("gray")
	f, err := NewRenderer(Options{Palette: p, Scale: 2}).Render(values, m)
	if err != nil {
		t.Fatal(err)
	}

	if b := f.Image.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("expected 8x6 image, got %v", b)
	}
	// south-west land cell is drawn at the bottom left
	if f.Image.RGBAAt(1, 5) != LandColor {
		t.Errorf("expected land color, got %v", f.Image.RGBAAt(1, 5))
	}
	if f.Image.RGBAAt(7, 0) != p.Color(1) {
		t.Errorf("expected max color at top right, got %v", f.Image.RGBAAt(7, 0))
	}
	if f.Image.RGBAAt(2, 5) != p.Color(0) {
		t.Errorf("expected min color, got %v", f.Image.RGBAAt(2, 5))
	}
	if f.Min != 0 || f.Max != 5 {
		t.Errorf("expected range [0,5], got [%f,%f]", f.Min, f.Max)
	}
}

func TestRenderFixedRangeClamps(t *testing.T) {
	m := testMesh(t)
	values := make([]float64, m.Cells())
	values[m.Index(1, 1)] = 100

	p, _ := LookupPalette("ocean")
	f, err := NewRenderer(Options{Palette: p, Min: -1, Max: 1}).Render(values, m)
	if err != nil {
		t.Fatal(err)
	}
	if f.Image.RGBAAt(1, 1) != p.Color(1) {
		t.Error("out of range value should clamp to the top color")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	m := testMesh(t)
	values := make([]float64, m.Cells())
	for c := range values {
		values[c] = math.Sin(float64(c))
	}

	p, _ := LookupPalette("balance")
	r := NewRenderer(Options{Palette: p, Scale: 3})
	a, _ := r.Render(values, m)
	b, _ := r.Render(values, m)

	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("rendering the same values twice gave different pixels")
	}
}

func TestRenderErrors(t *testing.T) {
	m := testMesh(t)

	if _, err := NewRenderer(Options{}).Render(make([]float64, m.Cells()), m); err == nil {
		t.Error("expected error without palette")
	}

	p, _ := LookupPalette("gray")
	_, err := NewRenderer(Options{Palette: p}).Render([]float64{1}, m)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestAutoRange(t *testing.T) {
	m := testMesh(t)
	values := make([]float64, m.Cells())
	values[0] = -50 // land, ignored
	values[m.Index(1, 1)] = -0.2
	values[m.Index(2, 1)] = 0.5

	lo, hi := AutoRange(values, m, true)
	if lo != -0.5 || hi != 0.5 {
		t.Errorf("expected symmetric [-0.5,0.5], got [%f,%f]", lo, hi)
	}
	lo, hi = AutoRange(values, m, false)
	if lo != -0.2 || hi != 0.5 {
		t.Errorf("expected [-0.2,0.5], got [%f,%f]", lo, hi)
	}
	lo, hi = AutoRange(make([]float64, m.Cells()), m, true)
	if lo != -1 || hi != 1 {
		t.Errorf("expected [-1,1] for a flat field, got [%f,%f]", lo, hi)
	}
}

func TestSinks(t *testing.T) {
	dir := t.TempDir()
	m := testMesh(t)
	p, _ := LookupPalette("viridis")

	frames := make([]image.Image, 0, 3)
	for k := 0; k < 3; k++ {
		values := make([]float64, m.Cells())
		values[m.Index(k+1, 1)] = 1
		f, err := NewRenderer(Options{Palette: p, Scale: 4}).Render(values, m)
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, f.Image)
	}

	pngPath := filepath.Join(dir, "nested", "frame.png")
	if err := (PNGSink{}).Write(pngPath, frames[0]); err != nil {
		t.Fatalf("png: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != frames[0].Bounds() {
		t.Errorf("png bounds %v, want %v", img.Bounds(), frames[0].Bounds())
	}

	gifPath := filepath.Join(dir, "anim.gif")
	if err := (GIFSink{Delay: 5}).WriteAnimation(gifPath, frames, p.GIFPalette()); err != nil {
		t.Fatalf("gif: %v", err)
	}
	g, err := os.Open(gifPath)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 3 || anim.Delay[0] != 5 {
		t.Errorf("expected 3 frames with delay 5, got %d frames", len(anim.Image))
	}
}
