package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/san-kum/tempctrl/internal/analysis"
	"github.com/san-kum/tempctrl/internal/automation"
	"github.com/san-kum/tempctrl/internal/config"
	"github.com/san-kum/tempctrl/internal/experiment"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/metrics"
	"github.com/san-kum/tempctrl/internal/optim"
	"github.com/san-kum/tempctrl/internal/rl"
	"github.com/san-kum/tempctrl/internal/storage"
	"github.com/san-kum/tempctrl/internal/viz"
)

const (
	envDataDir = "TEMPCTRL_DATA"
	envAddr    = "TEMPCTRL_ADDR"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	steps      int
	controller string
	kp         float64
	ki         float64
	kd         float64
	gain       float64
	heat       float64
	verbose    bool

	runs      int
	seedStart int64

	kpGrid string
	kiGrid string
	kdGrid string

	addr    string
	outPath string

	band      float64
	sweepName string
	sweepMin  float64
	sweepMax  float64
	sweepN    int
)

func main() {
	// a missing .env is fine; flags and defaults still apply
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "tempctrl",
		Short:         "thermal process environments for reinforcement learning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr(envDataDir, ".tempctrl"), "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one episode with a baseline controller and store it",
		RunE:  runEpisode,
	}
	envFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", 0, "episode seed (0 uses the config seed)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run episodes over consecutive seeds in parallel",
		RunE:  runEnsemble,
	}
	envFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of episodes")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "first seed")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search PID gains for the highest mean return",
		RunE:  runTune,
	}
	envFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&kpGrid, "kp-grid", "10,20,40,80", "comma separated kp values")
	tuneCmd.Flags().StringVar(&kiGrid, "ki-grid", "0,0.001,0.01", "comma separated ki values")
	tuneCmd.Flags().StringVar(&kdGrid, "kd-grid", "0", "comma separated kd values")
	tuneCmd.Flags().IntVar(&runs, "runs", 3, "episodes per candidate")
	tuneCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "first seed")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the environment to an agent over TCP (JSON lines)",
		RunE:  runServe,
	}
	envFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", envOr(envAddr, "127.0.0.1:5555"), "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list environment presets",
		RunE:  listPresets,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and spectrum of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&band, "band", experiment.InBand, "settling band around the set-point")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every episode of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one physical parameter (k, m, C, A, d)",
		RunE:  runSweep,
	}
	envFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepName, "param", "m", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 30, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 6, "number of values")
	sweepCmd.Flags().Int64Var(&seed, "seed", 1, "episode seed")

	rootCmd.AddCommand(runCmd, ensembleCmd, tuneCmd, serveCmd, listCmd, plotCmd, analyzeCmd,
		exportJSONCmd, exportCSVCmd, presetsCmd, scenarioCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Bad.Render("error:"), err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().IntVar(&steps, "steps", 0, "step limit when the config has no cap")
	cmd.Flags().StringVar(&controller, "controller", "", "none, constant, random, pid or feedback")
	cmd.Flags().Float64Var(&kp, "kp", 0, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", 0, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", 0, "pid kd")
	cmd.Flags().Float64Var(&gain, "gain", 0, "state feedback gain")
	cmd.Flags().Float64Var(&heat, "heat", 0, "constant heater demand in watts")
}

// loadConfig layers preset, config file and flags in that order.
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
		cfg, err = config.LoadOver(cfg, configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("controller") {
		cfg.Controller.Kind = controller
	}
	if f.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if f.Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if f.Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if f.Changed("gain") {
		cfg.Controller.Gain = gain
	}
	if f.Changed("heat") {
		cfg.Controller.Heat = heat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configName() string {
	switch {
	case preset != "":
		return preset
	case configFile != "":
		name := configFile
		if i := strings.LastIndexAny(name, `/\`); i >= 0 {
			name = name[i+1:]
		}
		return strings.TrimSuffix(name, ".yaml")
	default:
		return "tempctrl"
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runEpisode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("seed") || seed == 0 {
		seed = cfg.Seed
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(viz.Subtle.Render(fmt.Sprintf("running %s (%s, %s, %s)...", configName(), cfg.ActionSpace, cfg.Reward, cfg.Controller.Kind)))
	start := time.Now()

	result, err := experiment.New(cfg).Run(ctx, seed, steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(configName(), cfg, result)
	if err != nil {
		return err
	}

	fmt.Println(viz.KV("run id", runID))
	fmt.Println(viz.KV("completed in", elapsed.Round(time.Millisecond)))
	fmt.Println(viz.KV("steps", result.Steps()))
	fmt.Println(viz.Metrics("metrics", result.Metrics))
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runs <= 0 {
		return errors.New("runs must be positive")
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := experiment.New(cfg).Ensemble(ctx, runs, seedStart, steps)
	if err != nil {
		return err
	}

	returns := metrics.Summarize(experiment.Returns(results))
	inBand := make([]float64, len(results))
	for i, r := range results {
		inBand[i] = r.Metrics["in_band"]
	}
	band := metrics.Summarize(inBand)

	fmt.Println(viz.KV("episodes", len(results)))
	fmt.Println(viz.KV("completed in", time.Since(start).Round(time.Millisecond)))
	fmt.Println(viz.Metrics("return", map[string]float64{
		"mean": returns.Mean, "std": returns.StdDev, "min": returns.Min, "max": returns.Max,
	}))
	fmt.Println(viz.Metrics("in_band", map[string]float64{
		"mean": band.Mean, "std": band.StdDev, "min": band.Min, "max": band.Max,
	}))
	return nil
}

func parseGrid(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("grid value %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty grid %q", s)
	}
	return out, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := []string{"kp", "ki", "kd"}
	ranges := make([][]float64, len(names))
	for i, s := range []string{kpGrid, kiGrid, kdGrid} {
		if ranges[i], err = parseGrid(s); err != nil {
			return err
		}
	}

	g := optim.NewGridSearch(names, ranges)
	g.Steps = steps
	g.Seeds = make([]int64, runs)
	for i := range g.Seeds {
		g.Seeds[i] = seedStart + int64(i)
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, score, err := g.Search(ctx, optim.PIDBuilder(experiment.New(cfg)), "return")
	if err != nil {
		return err
	}
	best["mean_return"] = score
	fmt.Println(viz.Metrics("best pid gains", best))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	factory := func() (gym.Env, error) {
		return registry.NewEnv(cfg)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return rl.NewServer(factory, slog.Default()).ListenAndServe(ctx, addr)
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
	fmt.Fprintln(w, "ID\tTIME\tSEED\tSTEPS\tRETURN\tACTIONS\tREWARD")

	for _, run := range runs {
		actions, rw := "-", "-"
		if run.Config != nil {
			actions, rw = run.Config.ActionSpace, run.Config.Reward
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Steps,
			run.Return,
			actions,
			rw,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(tr.Observations) == 0 {
		return fmt.Errorf("no data to plot")
	}

	can := make([]float64, len(tr.Observations))
	ambient := make([]float64, len(tr.Observations))
	for i, o := range tr.Observations {
		can[i], ambient[i] = o[0], o[1]
	}

	fmt.Println(viz.KV("run", meta.ID))
	fmt.Println(viz.KV("samples", len(tr.Observations)))
	fmt.Println()
	fmt.Println(viz.Plot("temperature (C)", viz.Series{Name: "can", Data: can}, viz.Series{Name: "ambient", Data: ambient}))
	fmt.Println()
	fmt.Println(viz.Plot("heater power (W)", viz.Series{Name: "heat", Data: tr.Heat}))
	fmt.Println()
	fmt.Println(viz.Plot("reward", viz.Series{Name: "reward", Data: tr.Rewards}))
	return nil
}

func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(out, args[0]); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportCSV(out, args[0]); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMS\tACTIONS\tREWARD\tAMBIENT\tSTEP\tINTEG\tCAP")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			name, p.ThermalParams, p.ActionSpace, p.Reward, p.Ambient, p.Timestep, p.Integrator, p.MaxSteps)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(tr.Observations) < 2 {
		return fmt.Errorf("run %s has too few samples", meta.ID)
	}

	setpoint := config.DefaultSetpoint
	if meta.Config != nil {
		setpoint = meta.Config.Setpoint
	}
	temps := make([]float64, len(tr.Observations))
	errs := make([]float64, len(tr.Observations))
	for i, o := range tr.Observations {
		temps[i] = o[0]
		errs[i] = o[0] - setpoint
	}

	r := analysis.StepResponseOf(tr.Times, temps, setpoint, band)
	dt := tr.Times[1] - tr.Times[0]
	_, power := analysis.PowerSpectrum(errs, dt)

	settled := viz.Bad.Render("no")
	if r.Settled {
		settled = viz.Good.Render("yes")
	}
	fmt.Println(viz.KV("run", meta.ID))
	fmt.Println(viz.KV("settled", settled))
	fmt.Println(viz.Metrics("step response", map[string]float64{
		"rise_time_s":     r.RiseTime,
		"overshoot_c":     r.Overshoot,
		"settling_time_s": r.SettlingTime,
		"steady_error_c":  r.SteadyStateError,
		"dominant_period": analysis.DominantPeriod(errs, dt),
	}))
	if len(power) > 1 {
		fmt.Println(viz.Plot("tracking error spectrum", viz.Series{Name: "power", Data: power[1:]}))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, slog.Default())
	for _, r := range results {
		runID, saveErr := st.Save(r.Name, r.Config, r.Result)
		if saveErr != nil {
			return saveErr
		}
		fmt.Println(viz.KV(r.Name, fmt.Sprintf("%s  return %.4f  steps %d", runID, r.Result.Return, r.Result.Steps())))
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepName,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepN,
		Seed:      seed,
		Steps:     steps,
	}, slog.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_T\tRETURN\tIN_BAND\tSTEPS\n", strings.ToUpper(sweepName))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.3f\t%.4f\t%.3f\t%d\n", r.ParamValue, r.FinalTemp, r.Return, r.InBand, r.Steps)
	}
	return w.Flush()
}
