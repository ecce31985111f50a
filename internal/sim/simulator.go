package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/physics"
)

// Simulator drives a shallow-water model through the engine state machine:
// Initialized, Stepping, then Completed, Diverged or Aborted.
type Simulator struct {
	model     *physics.ShallowWater
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	phase     Phase
}

func New(model *physics.ShallowWater) *Simulator {
	return &Simulator{
		model:     model,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Phase() Phase { return s.phase }

// Validate checks cfg against the model, including the Courant criterion.
func (s *Simulator) Validate(cfg Config) error {
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return dynamo.Invalidf("time.dt", "must be positive, got %g", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return dynamo.Invalidf("time.steps", "must be positive, got %d", cfg.Steps)
	}
	if cfg.CourantLimit <= 0 {
		return dynamo.Invalidf("stability.courant_limit", "must be positive, got %g", cfg.CourantLimit)
	}
	if cfg.OutputStep > cfg.Steps {
		return dynamo.Invalidf("output.step", "step %d is past the last step %d", cfg.OutputStep, cfg.Steps)
	}

	cr, at := s.model.Courant(cfg.Dt)
	if cr > cfg.CourantLimit {
		m := s.model.Mesh()
		i, j := m.Coord(at)
		return dynamo.Invalidf("time.dt", "courant number %.3f at cell (%d,%d) exceeds %.3f; use dt <= %.3gs",
			cr, i, j, cfg.CourantLimit, s.model.MaxStableDt(cfg.CourantLimit))
	}
	return nil
}

// Run steps x0 until cfg.Steps, divergence or cancellation. x0 is not
// modified. On divergence and cancellation the returned result carries the
// phase and the diagnostics recorded so far, but no final state.
func (s *Simulator) Run(ctx context.Context, x0 *dynamo.State, cfg Config) (*Result, error) {
	s.phase = Initialized
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}

	m := s.model.Mesh()
	if x0.Len() != m.Cells() {
		return nil, fmt.Errorf("%w: state has %d cells, mesh has %d", dynamo.ErrDimensionMismatch, x0.Len(), m.Cells())
	}

	s.model.SetWorkers(cfg.Workers)

	result := &Result{
		Times:   make([]float64, 0, cfg.Steps+1),
		Series:  make(map[string][]float64, len(s.metrics)),
		Metrics: make(map[string]float64, len(s.metrics)),
	}

	cur := x0.Clone()
	for c := range cur.Eta {
		if !m.Wet(c) {
			cur.Eta[c], cur.U[c], cur.V[c] = 0, 0, 0
		}
	}
	if !cur.IsValid() {
		return nil, dynamo.Invalidf("initial", "initial state has non-finite values")
	}
	next := dynamo.NewState(cur.Len())

	for _, mt := range s.metrics {
		mt.Reset()
	}
	s.commit(result, cur, cfg)

	s.phase = Stepping
	for cur.Step < cfg.Steps {
		select {
		case <-ctx.Done():
			s.phase = Aborted
			s.finish(result, cur)
			return result, fmt.Errorf("%w at step %d: %w", dynamo.ErrAborted, cur.Step, ctx.Err())
		default:
		}

		s.model.Step(cur, next, cfg.Dt)

		if err := check(next, cur, cfg); err != nil {
			s.phase = Diverged
			s.finish(result, cur)
			return result, err
		}

		cur, next = next, cur
		s.commit(result, cur, cfg)
	}

	s.phase = Completed
	s.finish(result, cur)
	result.Final = cur
	if result.Output == nil {
		result.Output = cur
	}
	return result, nil
}

// commit records a newly committed state.
func (s *Simulator) commit(r *Result, cur *dynamo.State, cfg Config) {
	r.Times = append(r.Times, cur.Time)
	for _, mt := range s.metrics {
		mt.Observe(cur)
		r.Series[mt.Name()] = append(r.Series[mt.Name()], mt.Value())
	}
	for _, obs := range s.observers {
		obs.OnStep(cur)
	}

	if cfg.RecordEvery > 0 && cur.Step%cfg.RecordEvery == 0 {
		r.Snapshots = append(r.Snapshots, cur.Clone())
	}
	if cfg.OutputStep >= 0 && cur.Step == cfg.OutputStep {
		r.Output = cur.Clone()
	}
}

func (s *Simulator) finish(r *Result, cur *dynamo.State) {
	r.Phase = s.phase
	r.StepsTaken = cur.Step
	r.Time = cur.Time
	for _, mt := range s.metrics {
		r.Metrics[mt.Name()] = mt.Value()
	}
	if s.phase != Completed {
		r.Output = nil
	}
}

// check scans a candidate state and reports the first offending value.
func check(next, cur *dynamo.State, cfg Config) error {
	fields := []struct {
		name  string
		data  dynamo.Field
		bound float64
	}{
		{"eta", next.Eta, cfg.MaxElevation},
		{"u", next.U, cfg.MaxSpeed},
		{"v", next.V, cfg.MaxSpeed},
	}

	for _, f := range fields {
		if f.bound <= 0 && f.data.IsValid() {
			continue
		}
		for c, v := range f.data {
			if math.IsNaN(v) || math.IsInf(v, 0) || (f.bound > 0 && math.Abs(v) > f.bound) {
				return &dynamo.NumericalInstabilityError{
					LastStableStep: cur.Step,
					Time:           cur.Time,
					Field:          f.name,
					Cell:           c,
					Value:          v,
				}
			}
		}
	}
	return nil
}
