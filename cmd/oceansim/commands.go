package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/oceansim/internal/analysis"
	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/optim"
	"github.com/san-kum/oceansim/internal/render"
	"github.com/san-kum/oceansim/internal/storage"
	"github.com/san-kum/oceansim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, label, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	provider, err := experiment.NewRegistry().Provider(cfg.Grid.Path, cfg.Grid.Variables)
	if err != nil {
		return err
	}

	opts, closer, err := runOptions(logger)
	defer closer()
	if err != nil {
		return err
	}
	opts = append(opts, experiment.WithLabel(label))

	ctx, stop := signalContext()
	defer stop()

	res, err := experiment.New(cfg, opts...).Run(ctx, provider)
	if res != nil {
		fmt.Println(viz.ResultPanel(label, res))
	}
	return err
}

func watchSimulation(cmd *cobra.Command, args []string) error {
	cfg, label, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	provider, err := experiment.NewRegistry().Provider(cfg.Grid.Path, cfg.Grid.Variables)
	if err != nil {
		return err
	}

	// log lines would tear the terminal view
	opts, closer, err := runOptions(log.New(io.Discard))
	defer closer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	total := cfg.StepCount()
	p := tea.NewProgram(viz.NewWatchModel(label, total, cancel))
	progress := viz.NewProgress(p, total, 200)
	opts = append(opts, experiment.WithLabel(label), experiment.WithObserver(progress))

	done := make(chan viz.DoneMsg, 1)
	go func() {
		res, err := experiment.New(cfg, opts...).Run(ctx, provider)
		msg := viz.DoneMsg{Result: res, Err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return err
	}

	outcome := <-done
	if outcome.Result != nil {
		fmt.Println(viz.ResultPanel(label, outcome.Result))
	}
	return outcome.Err
}

func listRuns(cmd *cobra.Command, args []string) error {
	_, cat, closer, err := persistence()
	defer closer()
	if err != nil {
		return err
	}

	runs, err := cat.Recent(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCREATED\tGRID\tSTEPS\tSIM TIME\tSTATUS\tMAX SPEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.0fs\t%s\t%.4f\n",
			run.RunID,
			run.Label,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Nx, run.Ny,
			run.Steps,
			run.SimTime,
			run.Termination,
			run.MaxSpeed,
		)
	}

	return w.Flush()
}

func openStore() *storage.Store {
	return storage.New(filepath.Join(dataDir, "runs"))
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := openStore().Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.MetadataPanel(meta))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names := make([]string, 0, len(series))
	if seriesName != "" {
		if _, ok := series[seriesName]; !ok {
			return fmt.Errorf("unknown series %q", seriesName)
		}
		names = append(names, seriesName)
	} else {
		for name := range series {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d over %.0f s\n\n", len(times), times[len(times)-1]-times[0])

	for _, name := range names {
		fmt.Println(viz.Plot(name, series[name], 80, 10))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := openStore()
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	name := seriesName
	if name == "" {
		name = "peak_elevation"
		if _, ok := series[experiment.GaugeSeries]; ok {
			name = experiment.GaugeSeries
		}
	}
	data, ok := series[name]
	if !ok {
		return fmt.Errorf("unknown series %q", name)
	}
	if len(times) < 2 || len(data) < 2 {
		return fmt.Errorf("no data")
	}
	sampleDt := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	ps, n := analysis.PowerSpectrum(data)
	fmt.Printf("frequency analysis: %s (%s)\n\n", runID, name)
	fmt.Println(viz.Plot(fmt.Sprintf("amplitude spectrum (%s), bin = %.3g mHz", name, 1000/(float64(n)*sampleDt)),
		ps[:max(len(ps)/4, 1)], 80, 15))
	fmt.Println()

	period, err := analysis.DominantPeriod(data, sampleDt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant period: %.1f s (%.3f h)\n", period, period/3600)
	fmt.Printf("frequency: %.4f mHz\n", 1000/period)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := openStore().Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tINITIAL\tWIND\tDT\tDURATION\tFIELD")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t(%.2f, %.2f)\t%.0fs\t%.1fh\t%s\n",
			name,
			cfg.Initial.Kind,
			cfg.Forcing.WindStressX, cfg.Forcing.WindStressY,
			cfg.Time.Dt,
			cfg.Time.Duration/3600,
			cfg.Output.Field,
		)
	}
	return w.Flush()
}

func listFields(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tUNITS\tDEFAULT PALETTE\tDESCRIPTION")
	for _, f := range analysis.Fields {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Units, render.DefaultPalette(f.Name, f.Diverging).Name, f.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npalettes: %v\n", render.PaletteNames())
	fmt.Printf("sweep parameters: %v\n", config.ParamKeys())
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(axes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	base, _, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(axes))
	ranges := make([][]float64, 0, len(axes))
	for _, spec := range axes {
		key, values, err := optim.ParseAxis(spec)
		if err != nil {
			return err
		}
		names = append(names, key)
		ranges = append(ranges, values)
	}
	sweep, err := optim.NewSweep(names, ranges)
	if err != nil {
		return err
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

	logger.Info("sweep started", "points", len(sweep.Combinations()), "metric", metricName)
	trials, err := sweep.Search(ctx, provider, base, metricName, sweepWorkers, opts...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "RANK\tRUN"
	for _, name := range names {
		header += "\t" + name
	}
	fmt.Fprintln(w, header+"\t"+metricName+"\tSTATUS")

	for k, tr := range trials {
		run, status := tr.Label, "failed"
		if tr.Result != nil {
			status = tr.Result.Termination.String()
			if tr.Result.RunID != "" {
				run = tr.Result.RunID
			}
		}
		row := fmt.Sprintf("%d\t%s", k+1, run)
		for _, name := range names {
			row += fmt.Sprintf("\t%g", tr.Params[name])
		}
		fmt.Fprintf(w, "%s\t%.6g\t%s\n", row, tr.Value, status)
	}
	return w.Flush()
}
