package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/oceansim/internal/catalog"
	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/experiment"
	"github.com/san-kum/oceansim/internal/storage"
)

var (
	dataDir  string
	logLevel string

	configFile   string
	preset       string
	gridPath     string
	dt           float64
	duration     float64
	steps        int
	coarsen      int
	workers      int
	windX        float64
	windY        float64
	initialKind  string
	amplitude    float64
	field        string
	palette      string
	outputPath   string
	scale        int
	animateEvery int
	noStore      bool

	limit      int
	seriesName string

	axes         []string
	metricName   string
	sweepWorkers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "oceansim",
		Short:         "shallow-water ocean simulation over bathymetry grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".oceansim", "data directory for runs and the catalog")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and render the output field",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run a simulation with live terminal progress",
		Args:  cobra.NoArgs,
		RunE:  watchSimulation,
	}
	addRunFlags(watchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list catalogued runs",
		RunE:  listRuns,
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot diagnostic series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&seriesName, "series", "", "series to plot (default: all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and dominant period of a series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&seriesName, "series", "", "series to analyze (default: gauge, else peak_elevation)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list renderable fields and palettes",
		RunE:  listFields,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over configuration parameters",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "parameter axis key=v1,v2 or key=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "max_speed", "metric to rank by, smallest first")
	sweepCmd.Flags().IntVar(&sweepWorkers, "parallel", 0, "concurrent runs (0 = all CPUs)")

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, showCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, fieldsCmd, sweepCmd)
	registerBatchCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")
	f.StringVar(&gridPath, "grid", "", "bathymetry NetCDF file (default: built-in basin)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "time step in seconds")
	f.Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration in seconds")
	f.IntVar(&steps, "steps", 0, "number of steps (overrides duration)")
	f.IntVar(&coarsen, "coarsen", 1, "coarsening factor")
	f.IntVar(&workers, "workers", 0, "row workers (0 = all CPUs)")
	f.Float64Var(&windX, "wind-x", 0, "eastward wind stress (N/m²)")
	f.Float64Var(&windY, "wind-y", 0, "northward wind stress (N/m²)")
	f.StringVar(&initialKind, "initial", "", "initial condition (rest, impulse, gaussian, tilt)")
	f.Float64Var(&amplitude, "amplitude", 0, "initial disturbance amplitude (m)")
	f.StringVar(&field, "field", config.DefaultField, "output field")
	f.StringVar(&palette, "palette", "", "color palette")
	f.StringVar(&outputPath, "output", "", "output image path")
	f.IntVar(&scale, "scale", config.DefaultScale, "pixels per cell")
	f.IntVar(&animateEvery, "animate-every", 0, "record a GIF frame every N steps")
	f.BoolVar(&noStore, "no-store", false, "do not persist the run")
}

func newLogger() (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "oceansim",
	})
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}

// buildConfig resolves defaults, then the preset, then the config file, then
// explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	label := "run"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		label = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("grid") {
		cfg.Grid.Path = gridPath
	}
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("duration") {
		cfg.Time.Duration = duration
	}
	if flags.Changed("steps") {
		cfg.Time.Steps = steps
	}
	if flags.Changed("coarsen") {
		cfg.Grid.Coarsen = coarsen
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("wind-x") {
		cfg.Forcing.WindStressX = windX
	}
	if flags.Changed("wind-y") {
		cfg.Forcing.WindStressY = windY
	}
	if flags.Changed("initial") {
		cfg.Initial.Kind = initialKind
	}
	if flags.Changed("amplitude") {
		cfg.Initial.Amplitude = amplitude
	}
	if flags.Changed("field") {
		cfg.Output.Field = field
	}
	if flags.Changed("palette") {
		cfg.Output.Palette = palette
	}
	if flags.Changed("output") {
		cfg.Output.Path = outputPath
	}
	if flags.Changed("scale") {
		cfg.Output.Scale = scale
	}
	if flags.Changed("animate-every") {
		cfg.Output.AnimateEvery = animateEvery
	}

	return cfg, label, nil
}

// persistence opens the run store and catalog under the data directory. The
// returned closer is never nil.
func persistence() (*storage.Store, *catalog.Catalog, func(), error) {
	st := storage.New(filepath.Join(dataDir, "runs"))
	if err := st.Init(); err != nil {
		return nil, nil, func() {}, err
	}
	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		return nil, nil, func() {}, err
	}
	return st, cat, func() { cat.Close() }, nil
}

// runOptions assembles the experiment options shared by run, watch and sweep.
func runOptions(logger *log.Logger) ([]experiment.Option, func(), error) {
	opts := []experiment.Option{experiment.WithLogger(logger)}
	if noStore {
		return opts, func() {}, nil
	}
	st, cat, closer, err := persistence()
	if err != nil {
		return nil, closer, err
	}
	opts = append(opts, experiment.WithStore(st), experiment.WithCatalog(cat))
	return opts, closer, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
