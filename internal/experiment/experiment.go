package experiment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/oceansim/internal/analysis"
	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/catalog"
	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/metrics"
	"github.com/san-kum/oceansim/internal/physics"
	"github.com/san-kum/oceansim/internal/render"
	"github.com/san-kum/oceansim/internal/sim"
	"github.com/san-kum/oceansim/internal/storage"
)

// DefaultImagePath is used when neither the configuration nor a store names
// an output location.
const DefaultImagePath = "output/ocean_state.png"

// Experiment owns one run: its grid, mesh, engine and buffers.
type Experiment struct {
	cfg       *config.Config
	label     string
	logger    *log.Logger
	sink      render.Sink
	animSink  render.AnimationSink
	store     *storage.Store
	catalog   *catalog.Catalog
	observers []dynamo.Observer
}

type Option func(*Experiment)

// MeshAttacher is implemented by observers that need the mesh before the
// first step.
type MeshAttacher interface {
	Attach(m *mesh.Mesh)
}

func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithSink(s render.Sink) Option {
	return func(e *Experiment) { e.sink = s }
}

func WithAnimationSink(s render.AnimationSink) Option {
	return func(e *Experiment) { e.animSink = s }
}

// WithStore persists every run into its own directory under the store.
func WithStore(s *storage.Store) Option {
	return func(e *Experiment) { e.store = s }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Experiment) { e.catalog = c }
}

// WithObserver registers an observer notified after every committed step.
func WithObserver(o dynamo.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// WithLabel names the run in storage and the catalog.
func WithLabel(label string) Option {
	return func(e *Experiment) { e.label = label }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Experiment{
		cfg:      cfg.Clone(),
		label:    "run",
		logger:   log.New(io.Discard),
		sink:     render.PNGSink{},
		animSink: render.GIFSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) Config() *config.Config { return e.cfg }

type Result struct {
	RunID         string
	ImagePath     string
	AnimationPath string

	Steps       int
	SimTime     float64
	WallTime    time.Duration
	Termination sim.Phase

	Metrics map[string]float64
	Times   []float64
	Series  map[string][]float64

	// GaugeCell is the gauge location; SeichePeriod is zero when no gauge
	// was configured or the series was too short.
	GaugeCell    [2]int
	SeichePeriod float64

	Mesh     mesh.Summary
	RangeMin float64
	RangeMax float64
}

// GaugeSeries is the key of the tide gauge series in Result.Series.
const GaugeSeries = "gauge"

// Run executes the configured simulation against the grid supplied by p. A
// nil provider, or one that reports no data, runs on the built-in basin.
//
// Diverged and aborted runs return a Result carrying the diagnostics
// gathered so far together with the error; nothing is rendered for them.
func (e *Experiment) Run(ctx context.Context, p bathymetry.Provider) (*Result, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Time.MaxWallClock > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Time.MaxWallClock)
		defer cancel()
	}

	grid, err := bathymetry.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("grid loaded", "source", grid.Source, "nx", grid.Nx, "ny", grid.Ny, "wet", grid.WetCount())

	m, err := mesh.Build(grid, mesh.Options{Region: cfg.Grid.Region, Coarsen: cfg.Grid.Coarsen})
	if err != nil {
		return nil, err
	}
	summary := m.Summary()
	e.logger.Info("mesh built", "nx", m.Nx, "ny", m.Ny, "wet", summary.Wet, "pockets", summary.Pockets)

	model := physics.NewShallowWater(m, cfg.Physics, cfg.Wind())
	simulator := sim.New(model)
	simCfg := sim.Config{
		Dt:           cfg.Time.Dt,
		Steps:        cfg.StepCount(),
		CourantLimit: cfg.Stability.CourantLimit,
		MaxElevation: cfg.Stability.MaxElevation,
		MaxSpeed:     cfg.Stability.MaxSpeed,
		RecordEvery:  cfg.RecordEvery,
		OutputStep:   cfg.Output.Step,
		Workers:      cfg.Workers,
	}
	if err := simulator.Validate(simCfg); err != nil {
		return nil, err
	}

	x0 := dynamo.NewState(m.Cells())
	if err := cfg.Initial.Apply(m, x0); err != nil {
		return nil, err
	}

	for _, mt := range metrics.Standard(model) {
		simulator.AddMetric(mt)
	}

	var gauge *analysis.Gauge
	if cfg.Gauge != nil {
		gauge, err = analysis.NewGauge(m, cfg.Gauge.I, cfg.Gauge.J)
		if err != nil {
			return nil, err
		}
		simulator.AddObserver(gauge)
	}

	var frames *frameRecorder
	if cfg.Output.AnimateEvery > 0 {
		frames = newFrameRecorder(m, cfg.Output.Field, cfg.Output.AnimateEvery)
		simulator.AddObserver(frames)
	}
	for _, obs := range e.observers {
		if a, ok := obs.(MeshAttacher); ok {
			a.Attach(m)
		}
		simulator.AddObserver(obs)
	}

	runID := ""
	if e.store != nil {
		runID, err = e.store.Allocate(e.label)
		if err != nil {
			return nil, err
		}
	}

	e.logger.Info("simulation started", "run", runID, "steps", simCfg.Steps, "dt", simCfg.Dt, "workers", simCfg.Workers)
	start := time.Now()
	res, runErr := simulator.Run(ctx, x0, simCfg)
	if res == nil {
		return nil, runErr
	}

	result := &Result{
		RunID:       runID,
		Steps:       res.StepsTaken,
		SimTime:     res.Time,
		WallTime:    time.Since(start),
		Termination: res.Phase,
		Metrics:     res.Metrics,
		Times:       res.Times,
		Series:      res.Series,
		Mesh:        summary,
	}
	if gauge != nil {
		result.GaugeCell = [2]int{gauge.I, gauge.J}
		result.Series[GaugeSeries] = gauge.Series()
		if period, err := gauge.Period(); err == nil {
			result.SeichePeriod = period
		}
	}

	if runErr != nil {
		e.logger.Error("simulation failed", "run", runID, "phase", res.Phase, "step", res.StepsTaken, "err", runErr)
		if err := e.persist(result, grid.Source, runErr); err != nil {
			e.logger.Warn("cannot persist failed run", "run", runID, "err", err)
			return result, errors.Join(runErr, err)
		}
		return result, runErr
	}
	e.logger.Info("simulation completed", "run", runID, "steps", res.StepsTaken, "sim_time", res.Time, "wall", result.WallTime)

	if err := e.renderOutput(result, m, res.Output); err != nil {
		return result, err
	}
	if frames != nil && len(frames.values) > 0 {
		if err := e.renderAnimation(result, m, frames); err != nil {
			return result, err
		}
	}

	if err := e.persist(result, grid.Source, nil); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Experiment) palette(info analysis.FieldInfo) *render.Palette {
	if pal, ok := render.LookupPalette(e.cfg.Output.Palette); ok {
		return pal
	}
	return render.DefaultPalette(info.Name, info.Diverging)
}

func (e *Experiment) imagePath(runID string) string {
	switch {
	case e.cfg.Output.Path != "":
		return e.cfg.Output.Path
	case e.store != nil:
		return filepath.Join(e.store.Dir(runID), filepath.Base(DefaultImagePath))
	default:
		return DefaultImagePath
	}
}

func (e *Experiment) animationPath(imagePath string) string {
	if e.cfg.Output.AnimationPath != "" {
		return e.cfg.Output.AnimationPath
	}
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".gif"
}

func (e *Experiment) renderOutput(result *Result, m *mesh.Mesh, state *dynamo.State) error {
	if state == nil {
		return errors.New("experiment: no output state")
	}
	info, _ := analysis.Lookup(e.cfg.Output.Field)
	values, err := analysis.Extract(info.Name, m, state)
	if err != nil {
		return err
	}

	r := render.NewRenderer(render.Options{
		Palette: e.palette(info),
		Min:     e.cfg.Output.Min,
		Max:     e.cfg.Output.Max,
		Scale:   e.cfg.Output.Scale,
	})
	frame, err := r.Render(values, m)
	if err != nil {
		return err
	}

	path := e.imagePath(result.RunID)
	if err := e.sink.Write(path, frame.Image); err != nil {
		return err
	}
	result.ImagePath = path
	result.RangeMin, result.RangeMax = frame.Min, frame.Max
	e.logger.Info("image written", "path", path, "field", info.Name, "min", frame.Min, "max", frame.Max)
	return nil
}

// renderAnimation draws every recorded frame against one shared color range.
func (e *Experiment) renderAnimation(result *Result, m *mesh.Mesh, frames *frameRecorder) error {
	info := frames.info
	pal := e.palette(info)

	lo, hi := e.cfg.Output.Min, e.cfg.Output.Max
	if lo == hi {
		lo, hi = frames.span(m, info.Diverging)
	}

	r := render.NewRenderer(render.Options{Palette: pal, Min: lo, Max: hi, Scale: e.cfg.Output.Scale})
	images := make([]image.Image, 0, len(frames.values))
	for _, values := range frames.values {
		frame, err := r.Render(values, m)
		if err != nil {
			return err
		}
		images = append(images, frame.Image)
	}

	path := e.animationPath(result.ImagePath)
	if err := e.animSink.WriteAnimation(path, images, pal.GIFPalette()); err != nil {
		return err
	}
	result.AnimationPath = path
	e.logger.Info("animation written", "path", path, "frames", len(images))
	return nil
}

func (e *Experiment) persist(result *Result, source string, runErr error) error {
	if e.store == nil && e.catalog == nil {
		return nil
	}

	termination := result.Termination.String()
	if e.store != nil {
		meta := &storage.RunMetadata{
			ID:            result.RunID,
			Label:         e.label,
			Timestamp:     time.Now(),
			Source:        source,
			Dt:            e.cfg.Time.Dt,
			Steps:         result.Steps,
			SimTime:       result.SimTime,
			WallTime:      result.WallTime.Seconds(),
			Termination:   termination,
			Field:         e.cfg.Output.Field,
			Palette:       e.cfg.Output.Palette,
			RangeMin:      result.RangeMin,
			RangeMax:      result.RangeMax,
			ImagePath:     result.ImagePath,
			AnimationPath: result.AnimationPath,
			SeichePeriod:  result.SeichePeriod,
			Mesh:          result.Mesh,
			Metrics:       result.Metrics,
		}
		if runErr != nil {
			meta.Error = runErr.Error()
		}
		if err := e.store.Save(meta, e.cfg, result.Times, result.Series); err != nil {
			return err
		}
	}

	if e.catalog != nil {
		runID := result.RunID
		if runID == "" {
			runID = fmt.Sprintf("%s_%d", e.label, time.Now().UnixNano())
		}
		_, err := e.catalog.Record(catalog.Entry{
			RunID:       runID,
			Label:       e.label,
			Source:      source,
			Nx:          result.Mesh.Nx,
			Ny:          result.Mesh.Ny,
			Wet:         result.Mesh.Wet,
			Steps:       result.Steps,
			SimTime:     result.SimTime,
			Termination: termination,
			Field:       e.cfg.Output.Field,
			ImagePath:   result.ImagePath,
			MaxSpeed:    result.Metrics["max_speed"],
			VolumeDrift: result.Metrics["volume_drift"],
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RunSimulation runs cfg against p and returns the path of the rendered
// image.
func RunSimulation(ctx context.Context, p bathymetry.Provider, cfg *config.Config) (string, error) {
	res, err := New(cfg).Run(ctx, p)
	if err != nil {
		return "", err
	}
	return res.ImagePath, nil
}
