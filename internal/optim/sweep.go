package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/experiment"
)

// Sweep is a full grid over numeric configuration parameters.
type Sweep struct {
	paramNames []string
	ranges     [][]float64
}

func NewSweep(params []string, ranges [][]float64) (*Sweep, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	probe := config.DefaultConfig()
	for k, name := range params {
		if _, err := probe.GetParam(name); err != nil {
			return nil, fmt.Errorf("optim: %w", err)
		}
		if len(ranges[k]) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", name)
		}
	}
	return &Sweep{paramNames: params, ranges: ranges}, nil
}

// ParseAxis reads "key=v1,v2,..." or "key=lo:hi:n" (n evenly spaced values).
func ParseAxis(spec string) (string, []float64, error) {
	key, list, ok := strings.Cut(spec, "=")
	if !ok || key == "" || list == "" {
		return "", nil, fmt.Errorf("optim: bad axis %q, want key=v1,v2 or key=lo:hi:n", spec)
	}

	if parts := strings.Split(list, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("optim: bad range %q", list)
		}
		if n == 1 {
			return key, []float64{lo}, nil
		}
		return key, floats.Span(make([]float64, n), lo, hi), nil
	}

	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: bad value %q for %s", field, key)
		}
		values = append(values, v)
	}
	return key, values, nil
}

// Combinations enumerates the grid with the last parameter varying fastest.
func (s *Sweep) Combinations() []map[string]float64 {
	var out []map[string]float64
	s.combine(0, make(map[string]float64), &out)
	return out
}

func (s *Sweep) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(s.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := s.paramNames[depth]
	for _, val := range s.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		s.combine(depth+1, newParams, out)
	}
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Label  string
	Value  float64
	Result *experiment.Result
	Err    error
}

// Search runs every combination as an isolated experiment and returns the
// trials ordered by metric, smallest first. Failed trials sort last.
func (s *Sweep) Search(
	ctx context.Context,
	p bathymetry.Provider,
	base *config.Config,
	metricName string,
	workers int,
	opts ...experiment.Option,
) ([]Trial, error) {
	combos := s.Combinations()
	jobs := make([]experiment.Job, 0, len(combos))
	for k, params := range combos {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, fmt.Errorf("optim: %w", err)
			}
		}
		jobs = append(jobs, experiment.Job{Label: fmt.Sprintf("sweep%03d", k), Config: cfg})
	}

	outcomes := experiment.Ensemble(ctx, p, jobs, workers, opts...)

	trials := make([]Trial, len(outcomes))
	for k, o := range outcomes {
		t := Trial{Params: combos[k], Label: o.Label, Result: o.Result, Err: o.Err, Value: math.Inf(1)}
		if o.Err == nil {
			v, ok := o.Result.Metrics[metricName]
			if !ok {
				return nil, fmt.Errorf("optim: unknown metric %q", metricName)
			}
			t.Value = v
		}
		trials[k] = t
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Value < trials[j].Value
	})
	return trials, nil
}
