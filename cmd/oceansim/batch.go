package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/oceansim/internal/automation"
	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/export"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/viz"
)

var (
	mcRanges []string
	mcTrials int
	mcSeed   int64

	svgSeries string
	svgPath   string
)

func registerBatchCommands(root *cobra.Command) {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of several runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&gridPath, "grid", "", "bathymetry NetCDF file (default: built-in basin)")
	scenarioCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run randomly perturbed copies of a configuration",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringArrayVar(&mcRanges, "range", nil, "parameter range key=lo:hi (repeatable)")
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 10, "number of trials")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = clock)")
	monteCarloCmd.Flags().IntVar(&sweepWorkers, "parallel", 0, "concurrent runs (0 = all CPUs)")

	meshCmd := &cobra.Command{
		Use:   "mesh",
		Short: "build the computational mesh and summarize it",
		Args:  cobra.NoArgs,
		RunE:  describeMesh,
	}
	addRunFlags(meshCmd)
	meshCmd.Flags().StringVar(&svgPath, "svg", "", "write the cell classification as SVG")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "export a diagnostic series of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&svgSeries, "series", "volume", "series to draw")
	svgCmd.Flags().StringVar(&svgPath, "out", "", "output path (default: <run dir>/<series>.svg)")

	root.AddCommand(scenarioCmd, monteCarloCmd, meshCmd, svgCmd)
}

func printOutcomes(outcomes []experiment.Outcome) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tRUN\tSTATUS\tSTEPS\tIMAGE\tERROR")
	failed := 0
	for _, o := range outcomes {
		run, status, steps, image, msg := "-", "failed", 0, "-", ""
		if o.Result != nil {
			status = o.Result.Termination.String()
			steps = o.Result.Steps
			if o.Result.RunID != "" {
				run = o.Result.RunID
			}
			if o.Result.ImagePath != "" {
				image = o.Result.ImagePath
			}
		}
		if o.Err != nil {
			failed++
			msg = o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", o.Label, run, status, steps, image, msg)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(outcomes))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	provider, err := experiment.NewRegistry().Provider(gridPath, bathymetry.Variables{})
	if err != nil {
		return err
	}
	opts, closer, err := runOptions(logger)
	defer closer()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("scenario started", "name", scenario.Name, "runs", len(scenario.Runs))
	outcomes, err := automation.RunScenario(ctx, scenario, provider, opts...)
	if err != nil {
		return err
	}
	return printOutcomes(outcomes)
}

func parseRange(spec string) (string, [2]float64, error) {
	key, span, ok := strings.Cut(spec, "=")
	lo, hi, ok2 := strings.Cut(span, ":")
	if !ok || !ok2 {
		return "", [2]float64{}, fmt.Errorf("bad range %q, want key=lo:hi", spec)
	}
	a, err1 := strconv.ParseFloat(lo, 64)
	b, err2 := strconv.ParseFloat(hi, 64)
	if err1 != nil || err2 != nil || b < a {
		return "", [2]float64{}, fmt.Errorf("bad range %q, want key=lo:hi", spec)
	}
	return key, [2]float64{a, b}, nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	if len(mcRanges) == 0 {
		return fmt.Errorf("at least one --range is required")
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	base, _, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ranges := make(map[string][2]float64, len(mcRanges))
	for _, spec := range mcRanges {
		key, r, err := parseRange(spec)
		if err != nil {
			return err
		}
		ranges[key] = r
	}

	provider, err := experiment.NewRegistry().Provider(base.Grid.Path, base.Grid.Variables)
	if err != nil {
		return err
	}
	opts, closer, err := runOptions(logger)
	defer closer()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:      base,
		Ranges:    ranges,
		NumTrials: mcTrials,
		Seed:      mcSeed,
		Workers:   sweepWorkers,
	}, provider, opts...)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ranges))
	for k := range ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\t"+strings.Join(keys, "\t")+"\tSTATUS\tMAX SPEED")
	for _, r := range results {
		row := strconv.Itoa(r.TrialID)
		for _, k := range keys {
			row += fmt.Sprintf("\t%.4g", r.Params[k])
		}
		status := r.Phase.String()
		if r.Err != nil && r.Metrics == nil {
			status = "rejected"
		}
		fmt.Fprintf(w, "%s\t%s\t%.4g\n", row, status, r.Metrics["max_speed"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func describeMesh(cmd *cobra.Command, args []string) error {
	cfg, label, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	provider, err := experiment.NewRegistry().Provider(cfg.Grid.Path, cfg.Grid.Variables)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	grid, err := bathymetry.Load(ctx, provider)
	if err != nil {
		return err
	}
	m, err := mesh.Build(grid, mesh.Options{Region: cfg.Grid.Region, Coarsen: cfg.Grid.Coarsen})
	if err != nil {
		return err
	}

	s := m.Summary()
	fields := []viz.Field{
		{Label: "grid", Value: fmt.Sprintf("%dx%d %s (%s)", s.Nx, s.Ny, s.Coords, s.Source)},
		{Label: "cells", Value: fmt.Sprintf("%d wet, %d interior, %d open, %d closed", s.Wet, s.Interior, s.Open, s.Closed)},
		{Label: "pockets", Value: strconv.Itoa(s.Pockets)},
		{Label: "min spacing", Value: fmt.Sprintf("%.0f m", s.MinDx)},
		{Label: "max depth", Value: fmt.Sprintf("%.1f m", s.MaxDepth)},
	}
	fmt.Println(viz.RenderPanel(label, fields))

	if svgPath != "" {
		if err := export.WriteFile(svgPath, export.MeshSVG(m, float64(cfg.Output.Scale))); err != nil {
			return err
		}
		fmt.Printf("mesh written to %s\n", svgPath)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := openStore()

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	values, ok := series[svgSeries]
	if !ok {
		return fmt.Errorf("unknown series %q", svgSeries)
	}

	svg := export.SeriesSVG(times, values, 800, 300, "#00ccff")
	if svg == "" {
		return fmt.Errorf("series %q has too few samples", svgSeries)
	}

	path := svgPath
	if path == "" {
		path = filepath.Join(st.Dir(runID), svgSeries+".svg")
	}
	if err := export.WriteFile(path, svg); err != nil {
		return err
	}
	fmt.Printf("series written to %s\n", path)
	return nil
}
