package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
)

// Sink persists a single raster.
type Sink interface {
	Write(path string, img image.Image) error
}

// AnimationSink persists an ordered sequence of rasters.
type AnimationSink interface {
	WriteAnimation(path string, frames []image.Image, pal color.Palette) error
}

type PNGSink struct{}

func (PNGSink) Write(path string, img image.Image) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("render: encode png: %w", err)
	}
	return f.Close()
}

// GIFSink writes looping animations. Delay is in hundredths of a second.
type GIFSink struct {
	Delay int
}

func (g GIFSink) WriteAnimation(path string, frames []image.Image, pal color.Palette) error {
	if len(frames) == 0 {
		return fmt.Errorf("render: no frames")
	}
	delay := g.Delay
	if delay <= 0 {
		delay = 8
	}

	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		b := frame.Bounds()
		p := image.NewPaletted(b, pal)
		draw.Draw(p, b, frame, b.Min, draw.Src)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return fmt.Errorf("render: encode gif: %w", err)
	}
	return f.Close()
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return f, nil
}
