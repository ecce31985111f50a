package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/sim"
)

// Scenario is a scripted batch of runs on one grid.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Workers     int           `yaml:"workers"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from the defaults, a preset or a config file, then
// applies numeric overrides keyed like config.ParamKeys.
type ScenarioRun struct {
	Label  string             `yaml:"label"`
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	Steps  int                `yaml:"steps"`
	Field  string             `yaml:"field"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("automation: %s: no runs", path)
	}

	return &scenario, nil
}

// Jobs resolves every run into an experiment job.
func (s *Scenario) Jobs() ([]experiment.Job, error) {
	jobs := make([]experiment.Job, 0, len(s.Runs))

	for i, run := range s.Runs {
		cfg := config.DefaultConfig()
		switch {
		case run.Config != "":
			loaded, err := config.Load(run.Config)
			if err != nil {
				return nil, fmt.Errorf("run %d: %w", i+1, err)
			}
			cfg = loaded
		case run.Preset != "":
			cfg = config.GetPreset(run.Preset)
			if cfg == nil {
				return nil, fmt.Errorf("run %d: unknown preset %q", i+1, run.Preset)
			}
		}

		keys := make([]string, 0, len(run.Params))
		for k := range run.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := cfg.SetParam(k, run.Params[k]); err != nil {
				return nil, fmt.Errorf("run %d: %w", i+1, err)
			}
		}
		if run.Steps > 0 {
			cfg.Time.Steps = run.Steps
		}
		if run.Field != "" {
			cfg.Output.Field = run.Field
		}

		label := run.Label
		if label == "" {
			label = fmt.Sprintf("%s_%d", s.Name, i+1)
		}
		jobs = append(jobs, experiment.Job{Label: label, Config: cfg})
	}

	return jobs, nil
}

// RunScenario executes all runs of a scenario concurrently.
func RunScenario(ctx context.Context, scenario *Scenario, p bathymetry.Provider, opts ...experiment.Option) ([]experiment.Outcome, error) {
	jobs, err := scenario.Jobs()
	if err != nil {
		return nil, err
	}
	return experiment.Ensemble(ctx, p, jobs, scenario.Workers, opts...), nil
}

// MonteCarloConfig samples numeric parameters uniformly within their ranges.
type MonteCarloConfig struct {
	Base      *config.Config
	Ranges    map[string][2]float64
	NumTrials int
	Seed      int64
	Workers   int
}

type MonteCarloResult struct {
	TrialID int
	Params  map[string]float64
	Phase   sim.Phase
	Metrics map[string]float64
	Err     error

	// Stable is true when the run completed.
	Stable bool
}

// RunMonteCarlo runs NumTrials perturbed copies of the base configuration.
// A zero seed draws one from the clock.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, p bathymetry.Provider, opts ...experiment.Option) ([]MonteCarloResult, error) {
	base := cfg.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	keys := make([]string, 0, len(cfg.Ranges))
	for k := range cfg.Ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	jobs := make([]experiment.Job, 0, cfg.NumTrials)
	params := make([]map[string]float64, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		c := base.Clone()
		sample := make(map[string]float64, len(keys))
		for _, k := range keys {
			r := cfg.Ranges[k]
			v := r[0] + rng.Float64()*(r[1]-r[0])
			if err := c.SetParam(k, v); err != nil {
				return nil, fmt.Errorf("automation: %w", err)
			}
			sample[k] = v
		}
		jobs = append(jobs, experiment.Job{Label: fmt.Sprintf("mc%03d", trial), Config: c})
		params = append(params, sample)
	}

	outcomes := experiment.Ensemble(ctx, p, jobs, cfg.Workers, opts...)

	results := make([]MonteCarloResult, len(outcomes))
	for trial, o := range outcomes {
		r := MonteCarloResult{TrialID: trial, Params: params[trial], Err: o.Err}
		if o.Result != nil {
			r.Phase = o.Result.Termination
			r.Metrics = o.Result.Metrics
			r.Stable = o.Err == nil && o.Result.Termination == sim.Completed
		}
		results[trial] = r
	}

	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
