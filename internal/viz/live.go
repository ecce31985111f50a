package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/oceansim/internal/analysis"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/render"
)

const (
	barWidth        = 40
	historyCapacity = 600
	previewWidth    = 48
)

// ProgressMsg reports a committed step to the watch view.
type ProgressMsg struct {
	Step     int
	Time     float64
	MaxEta   float64
	MaxSpeed float64
	Preview  string
}

// DoneMsg ends the watch view with the outcome of the run.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Progress is an observer forwarding roughly updates messages per run to a
// Sender. It renders a preview of the surface when attached to a mesh.
type Progress struct {
	sender  Sender
	every   int
	total   int
	mesh    *mesh.Mesh
	palette *render.Palette
}

func NewProgress(sender Sender, total, updates int) *Progress {
	every := 1
	if updates > 0 && total > updates {
		every = total / updates
	}
	return &Progress{
		sender:  sender,
		every:   every,
		total:   total,
		palette: render.DefaultPalette(analysis.Elevation, true),
	}
}

func (p *Progress) Attach(m *mesh.Mesh) { p.mesh = m }

func (p *Progress) OnStep(s *dynamo.State) {
	if s.Step%p.every != 0 && s.Step != p.total {
		return
	}

	maxEta, _ := s.Eta.MaxAbs()
	maxU, _ := s.U.MaxAbs()
	maxV, _ := s.V.MaxAbs()
	msg := ProgressMsg{
		Step:     s.Step,
		Time:     s.Time,
		MaxEta:   maxEta,
		MaxSpeed: max(maxU, maxV),
	}
	if p.mesh != nil {
		lim := maxEta
		if lim == 0 {
			lim = 1
		}
		msg.Preview = FieldMap(s.Eta, p.mesh, p.palette, -lim, lim, previewWidth)
	}
	p.sender.Send(msg)
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// WatchModel follows a run started elsewhere. Quitting cancels the run.
type WatchModel struct {
	label       string
	total       int
	cancel      context.CancelFunc
	start       time.Time
	last        ProgressMsg
	etaHistory  []float64
	showPreview bool
	done        bool
	result      *experiment.Result
	err         error
}

func NewWatchModel(label string, total int, cancel context.CancelFunc) WatchModel {
	return WatchModel{
		label:       label,
		total:       total,
		cancel:      cancel,
		start:       time.Now(),
		showPreview: true,
	}
}

func (m WatchModel) Init() tea.Cmd { return nil }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "p":
			m.showPreview = !m.showPreview
		}

	case ProgressMsg:
		m.last = msg
		m.etaHistory = append(m.etaHistory, msg.MaxEta)
		if len(m.etaHistory) > historyCapacity {
			m.etaHistory = m.etaHistory[len(m.etaHistory)-historyCapacity:]
		}

	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m WatchModel) Done() bool { return m.done }

func (m WatchModel) Result() *experiment.Result { return m.result }

func (m WatchModel) Err() error { return m.err }

func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("oceansim · " + m.label))
	b.WriteString("\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.last.Step) / float64(m.total)
	}
	fmt.Fprintf(&b, "%s %3.0f%%  step %d/%d  t=%.0fs  %s\n",
		ProgressBar(pct, barWidth), pct*100, m.last.Step, m.total, m.last.Time,
		Subtle.Render(time.Since(m.start).Round(time.Second).String()))

	fmt.Fprintf(&b, "%s%s   %s%s\n",
		MetricLabel.Render("max |eta|"), MetricValue.Render(fmt.Sprintf("%.4f m", m.last.MaxEta)),
		MetricLabel.Render("max speed"), MetricValue.Render(fmt.Sprintf("%.4f m/s", m.last.MaxSpeed)))
	b.WriteString(SparklineChart(m.etaHistory, barWidth))
	b.WriteString("\n")

	if m.showPreview && m.last.Preview != "" {
		b.WriteString("\n")
		b.WriteString(m.last.Preview)
		b.WriteString("\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString(StatusDiverged.Render("error: " + m.err.Error()))
		} else {
			b.WriteString(StatusCompleted.Render("done"))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q: cancel · p: toggle preview"))
	return b.String()
}
