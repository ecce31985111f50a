package experiment

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/config"
)

type Job struct {
	Label  string
	Config *config.Config
}

type Outcome struct {
	Label  string
	Result *Result
	Err    error
}

// Ensemble runs each job as an independent Experiment on at most workers
// goroutines. Outcomes are returned in job order. Jobs without an output path
// and without a store write to output/<label>.png.
func Ensemble(ctx context.Context, p bathymetry.Provider, jobs []Job, workers int, opts ...Option) []Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]Outcome, len(jobs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for k, job := range jobs {
		wg.Add(1)
		go func(k int, job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			jobOpts := append(append([]Option{}, opts...), WithLabel(job.Label))
			e := New(job.Config, jobOpts...)
			if e.store == nil && e.cfg.Output.Path == "" {
				e.cfg.Output.Path = filepath.Join(filepath.Dir(DefaultImagePath), job.Label+".png")
			}

			res, err := e.Run(ctx, p)
			out[k] = Outcome{Label: job.Label, Result: res, Err: err}
		}(k, job)
	}

	wg.Wait()
	return out
}
