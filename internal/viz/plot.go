package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// Plot charts values, averaging them down to at most width points.
func Plot(name string, values []float64, width, height int) string {
	if len(values) == 0 {
		return Subtle.Render(fmt.Sprintf("%s: no data", name))
	}
	return asciigraph.Plot(Downsample(values, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name),
	)
}

// PlotMany charts several equally long series on shared axes.
func PlotMany(caption string, names []string, series [][]float64, width, height int) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, Downsample(s, width))
		}
	}
	if len(data) == 0 {
		return Subtle.Render(fmt.Sprintf("%s: no data", caption))
	}
	colors := []asciigraph.AnsiColor{asciigraph.DodgerBlue, asciigraph.Orange, asciigraph.Green, asciigraph.Red}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors[:min(len(data), len(colors))]...),
		asciigraph.SeriesLegends(names[:min(len(data), len(names))]...),
	)
}

// Downsample averages consecutive buckets so that at most n points remain.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for k := range out {
		lo := k * len(values) / n
		hi := (k + 1) * len(values) / n
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[k] = sum / float64(hi-lo)
	}
	return out
}
