package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/san-kum/glideopt/internal/config"
	"github.com/san-kum/glideopt/internal/experiment"
	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/log"
	"github.com/san-kum/glideopt/internal/optim"
	"github.com/san-kum/glideopt/internal/storage"
	"github.com/san-kum/glideopt/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logDir   string

	configFile  string
	preset      string
	objective   string
	seed        int64
	population  int
	generations int
	workers     int
	horizon     float64
	altitude    float64
	floor       float64
	lift        float64
	outFile     string
	noSave      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "glideopt",
		Short:        "glide trajectory optimizer",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".glideopt", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for the rotating JSON log")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "search for the best lift schedule",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	addConfigFlags(optimizeCmd)
	optimizeCmd.Flags().StringVar(&objective, "objective", config.DefaultObjective, "objective to maximize")
	optimizeCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	optimizeCmd.Flags().IntVar(&population, "population", optim.DefaultPopulationSize, "population size")
	optimizeCmd.Flags().IntVar(&generations, "generations", optim.DefaultGenerationsPerLevel, "generations per level of detail")
	optimizeCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluators (0 uses GOMAXPROCS)")
	optimizeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "fly a constant lift coefficient without searching",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	addConfigFlags(simulateCmd)
	simulateCmd.Flags().Float64Var(&lift, "lift", 0.6, "lift coefficient")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "re-simulate a stored policy",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a run's trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or write one as a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the named preset to this YAML file")

	objectivesCmd := &cobra.Command{
		Use:   "objectives",
		Short: "list objectives",
		RunE:  listObjectives,
	}

	rootCmd.AddCommand(optimizeCmd, simulateCmd, replayCmd, listCmd, showCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, objectivesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&horizon, "horizon", config.DefaultHorizon, "flight horizon in seconds")
	cmd.Flags().Float64Var(&altitude, "altitude", config.DefaultAltitude, "initial altitude in metres")
	cmd.Flags().Float64Var(&floor, "floor", 0, "altitude floor in metres")
}

// loadConfig applies the preset, then the config file, then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("horizon") {
		cfg.Simulation.Horizon = horizon
	}
	if flags.Changed("altitude") {
		cfg.Initial.Altitude = altitude
	}
	if flags.Changed("floor") {
		cfg.Simulation.Floor = floor
	}
	if flags.Changed("objective") {
		cfg.Objective = objective
	}
	if flags.Changed("seed") {
		cfg.Search.Seed = seed
	}
	if flags.Changed("population") {
		cfg.Search.PopulationSize = population
		cfg.Search.EliteCount = min(cfg.Search.EliteCount, population/10)
		cfg.Search.NewRandomCount = min(cfg.Search.NewRandomCount, population/10)
	}
	if flags.Changed("generations") {
		cfg.Search.GenerationsPerLevel = generations
	}
	if flags.Changed("workers") {
		cfg.Search.Workers = workers
	}
	if flags.Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-dir") || cfg.Log.Dir == "" {
		cfg.Log.Dir = logDir
	}
	return cfg, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.Log.Level, cfg.Log.Dir, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	exp, err := experiment.New(cfg, experiment.NewRegistry(), optim.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task := exp.Start(ctx)
	for p := range task.Progress() {
		fmt.Fprintf(os.Stderr, "\r%s %5.1f%%  k=%d  gen=%d  best=%.4g  mean=%.4g",
			viz.ProgressBar(p.Fraction, 30), 100*p.Fraction, p.Level, p.Generation, p.BestScore, p.MeanScore)
	}
	fmt.Fprintln(os.Stderr)

	res, err := task.Wait()
	if err != nil {
		return err
	}
	if res.Canceled {
		logger.Warn("search interrupted, keeping best policy so far", "generations", res.Generations)
	}

	runID := ""
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		history := make([]storage.Float, len(res.History))
		for i, v := range res.History {
			history[i] = storage.Float(v)
		}
		meta := storage.RunMetadata{
			Objective:   cfg.Objective,
			Score:       storage.Float(res.Best.Score),
			Seed:        res.Seed,
			Generations: res.Generations,
			Evaluations: res.Evaluations,
			Canceled:    res.Canceled,
			Elapsed:     res.Elapsed.Seconds(),
			History:     history,
			Config:      cfg,
		}
		rec := storage.PolicyRecord{Policy: res.Best.Policy, Params: exp.Params(), Initial: exp.Initial()}
		runID, err = st.Save(meta, res.Trajectory, rec)
		if err != nil {
			return err
		}
		logger.Info("run saved", "run", runID, "dir", dataDir)
	}

	status := viz.StatusDone.Render("complete")
	if res.Canceled {
		status = viz.StatusCanceled.Render("canceled")
	}
	metrics := []viz.Metric{
		{Label: "status", Value: status},
		{Label: "objective", Value: cfg.Objective},
		viz.Metricf("score", "%.6g", res.Best.Score),
		viz.Metricf("seed", "%d", res.Seed),
		viz.Metricf("generations", "%d", res.Generations),
		viz.Metricf("evaluations", "%d", res.Evaluations),
		viz.Metricf("elapsed", "%v", res.Elapsed.Round(time.Millisecond)),
		{Label: "history", Value: viz.Sparkline(res.History, 40)},
	}
	metrics = append(metrics, trajectoryMetrics(res.Trajectory)...)
	if runID != "" {
		metrics = append(metrics, viz.Metric{Label: "run id", Value: runID})
	}
	fmt.Println(viz.Summary("optimization", metrics))
	return nil
}

func trajectoryMetrics(traj glide.Trajectory) []viz.Metric {
	final := traj.Final()
	return []viz.Metric{
		viz.Metricf("steps", "%d", traj.Len()),
		{Label: "end", Value: traj.End.String()},
		viz.Metricf("time aloft", "%.2f s", final.Time),
		viz.Metricf("distance", "%.1f m", final.Dist2D),
		viz.Metricf("path length", "%.1f m", final.Dist3D),
		viz.Metricf("final altitude", "%.1f m", final.Y),
		viz.Metricf("final speed", "%.2f m/s", final.Speed),
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}
	traj, _, err := exp.SimulateConstant(lift)
	if err != nil {
		return err
	}

	metrics := []viz.Metric{
		viz.Metricf("lift", "%.3f", lift),
		viz.Metricf("drag", "%.4f", exp.Params().Polar.Drag(lift)),
		viz.Metricf(cfg.Objective, "%.6g", exp.Scorer().Score(traj)),
	}
	fmt.Println(viz.Summary("constant-lift flight", append(metrics, trajectoryMetrics(traj)...)))
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rec, err := st.LoadPolicy(runID)
	if err != nil {
		return err
	}

	traj := rec.Policy.Simulate(rec.Params, rec.Initial)
	metrics := []viz.Metric{{Label: "run", Value: meta.ID}}
	if scorer, err := experiment.NewRegistry().GetObjective(meta.Objective); err == nil {
		metrics = append(metrics,
			viz.Metricf("stored score", "%.6g", float64(meta.Score)),
			viz.Metricf("replayed score", "%.6g", scorer.Score(traj)))
	}
	fmt.Println(viz.Summary("replay", append(metrics, trajectoryMetrics(traj)...)))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tOBJECTIVE\tSCORE\tGENS\tEND\tCANCELED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%d\t%s\t%t\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Objective,
			float64(run.Score),
			run.Generations,
			run.End,
			run.Canceled,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	history := make([]float64, len(meta.History))
	for i, v := range meta.History {
		history[i] = float64(v)
	}
	metrics := []viz.Metric{
		{Label: "time", Value: meta.Timestamp.Format(time.RFC3339)},
		{Label: "objective", Value: meta.Objective},
		viz.Metricf("score", "%.6g", float64(meta.Score)),
		viz.Metricf("seed", "%d", meta.Seed),
		viz.Metricf("samples", "%d", meta.Samples),
		viz.Metricf("generations", "%d", meta.Generations),
		viz.Metricf("evaluations", "%d", meta.Evaluations),
		viz.Metricf("elapsed", "%.2f s", meta.Elapsed),
		viz.Metricf("canceled", "%t", meta.Canceled),
		{Label: "history", Value: viz.Sparkline(history, 40)},
	}
	fmt.Println(viz.Summary(meta.ID, append(metrics, trajectoryMetrics(traj)...)))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("objective: %s\n", meta.Objective)
	fmt.Printf("samples: %d\n\n", traj.Len())

	for _, chart := range viz.PlotTrajectory(traj, viz.TrajectorySeries) {
		fmt.Println(chart)
		fmt.Println()
	}

	history := make([]float64, len(meta.History))
	for i, v := range meta.History {
		history[i] = float64(v)
	}
	if chart := viz.PlotHistory(history); chart != "" {
		fmt.Println(chart)
	}
	return nil
}

// output opens outFile, or stdout when it is empty.
func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportCSV(f, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	f, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(f, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		if outFile == "" {
			return fmt.Errorf("--out is required to write a preset")
		}
		return config.Save(outFile, cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMASS\tAREA\tMAX L/D\tHORIZON\tALTITUDE\tOBJECTIVE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.0f kg\t%.1f m²\t%.0f\t%.0f s\t%.0f m\t%s\n",
			name,
			cfg.Aircraft.Mass,
			cfg.Aircraft.PlanformArea,
			cfg.Aircraft.MaxLiftOverDrag,
			cfg.Simulation.Horizon,
			cfg.Initial.Altitude,
			cfg.Objective,
		)
	}
	return w.Flush()
}

func listObjectives(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, o := range experiment.NewRegistry().ListObjectives() {
		fmt.Fprintf(w, "%s\t%s\n", o.Name, o.Description)
	}
	return w.Flush()
}
