package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/storage"
)

type Field struct {
	Label string
	Value string
}

// RenderPanel draws a titled box of label/value rows.
func RenderPanel(title string, fields []Field) string {
	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, Title.Render(title))
	for _, f := range fields {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			MetricLabel.Render(f.Label), MetricValue.Render(f.Value)))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func meshFields(s mesh.Summary) []Field {
	return []Field{
		{"grid", fmt.Sprintf("%dx%d %s (%s)", s.Nx, s.Ny, s.Coords, s.Source)},
		{"cells", fmt.Sprintf("%d wet, %d interior, %d open, %d closed", s.Wet, s.Interior, s.Open, s.Closed)},
		{"pockets", fmt.Sprintf("%d", s.Pockets)},
		{"spacing", fmt.Sprintf("%.0f m min, %.0f m max depth", s.MinDx, s.MaxDepth)},
	}
}

func metricFields(metrics map[string]float64) []Field {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{name, fmt.Sprintf("%.6g", metrics[name])})
	}
	return fields
}

func ResultPanel(label string, res *experiment.Result) string {
	fields := []Field{
		{"status", Status(res.Termination.String())},
		{"steps", fmt.Sprintf("%d (%.0f s simulated, %s wall)", res.Steps, res.SimTime, res.WallTime.Round(1e6))},
	}
	if res.RunID != "" {
		fields = append(fields, Field{"run", res.RunID})
	}
	if res.ImagePath != "" {
		fields = append(fields, Field{"image", res.ImagePath})
		fields = append(fields, Field{"range", fmt.Sprintf("%.4g .. %.4g", res.RangeMin, res.RangeMax)})
	}
	if res.AnimationPath != "" {
		fields = append(fields, Field{"animation", res.AnimationPath})
	}
	if res.SeichePeriod > 0 {
		fields = append(fields, Field{"seiche period", fmt.Sprintf("%.0f s (%.2f h)", res.SeichePeriod, res.SeichePeriod/3600)})
	}
	fields = append(fields, meshFields(res.Mesh)...)
	fields = append(fields, metricFields(res.Metrics)...)
	return RenderPanel(label, fields)
}

func MetadataPanel(meta *storage.RunMetadata) string {
	fields := []Field{
		{"label", meta.Label},
		{"created", meta.Timestamp.Format("2006-01-02 15:04:05")},
		{"status", Status(meta.Termination)},
		{"steps", fmt.Sprintf("%d x %.4g s = %.0f s", meta.Steps, meta.Dt, meta.SimTime)},
		{"field", meta.Field},
	}
	if meta.Error != "" {
		fields = append(fields, Field{"error", meta.Error})
	}
	if meta.ImagePath != "" {
		fields = append(fields, Field{"image", meta.ImagePath})
	}
	if meta.AnimationPath != "" {
		fields = append(fields, Field{"animation", meta.AnimationPath})
	}
	if meta.SeichePeriod > 0 {
		fields = append(fields, Field{"seiche period", fmt.Sprintf("%.0f s", meta.SeichePeriod)})
	}
	fields = append(fields, meshFields(meta.Mesh)...)
	fields = append(fields, metricFields(meta.Metrics)...)
	return RenderPanel(meta.ID, fields)
}
