package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/config"
	"github.com/san-kum/gravlab/internal/export"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/ic"
	"github.com/san-kum/gravlab/internal/integrate"
	"github.com/san-kum/gravlab/internal/metrics"
	"github.com/san-kum/gravlab/internal/run"
	"github.com/san-kum/gravlab/internal/storage"
	"github.com/san-kum/gravlab/internal/tui"
	"github.com/san-kum/gravlab/internal/viz"
)

var (
	dataDir string
	workers int

	scheme         string
	numBodies      int
	eps            float64
	dt             float64
	eta            float64
	dtMax          float64
	dtMin          float64
	duration       float64
	sampleInterval float64
	seed           int64
	runs           int

	forceTier   string
	integTier   string
	diagTier    string
	approxRsqrt bool
	noPotential bool

	configFile string
	preset     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gravlab",
		Short: "gravitational n-body simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravlab", "data directory")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "force evaluation workers (0 = all cpus)")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "ensemble size (seed sweep)")

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "benchmark stepping throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchProblem,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, presetsCmd, exportJSONCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scheme, "scheme", "leapfrog", "integration scheme (leapfrog, hermite)")
	cmd.Flags().IntVar(&numBodies, "n", config.DefaultN, "number of bodies")
	cmd.Flags().Float64Var(&eps, "eps", config.DefaultEps, "plummer softening length")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "leapfrog timestep")
	cmd.Flags().Float64Var(&eta, "eta", config.DefaultEta, "hermite accuracy parameter")
	cmd.Flags().Float64Var(&dtMax, "dt-max", config.DefaultDtMax, "hermite coarsest block step")
	cmd.Flags().Float64Var(&dtMin, "dt-min", config.DefaultDtMin, "hermite finest block step")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&sampleInterval, "sample", config.DefaultSampleInterval, "diagnostics sampling interval")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&forceTier, "force-tier", "mid", "force precision tier (low, mid, high)")
	cmd.Flags().StringVar(&integTier, "integrate-tier", "mid", "integration precision tier")
	cmd.Flags().StringVar(&diagTier, "diag-tier", "high", "diagnostics precision tier")
	cmd.Flags().BoolVar(&approxRsqrt, "approx-rsqrt", false, "approximate reciprocal sqrt (low force tier only)")
	cmd.Flags().BoolVar(&noPotential, "no-potential", false, "skip potential energy at samples")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and flags, in that
// order of increasing precedence, then validates the result.
func resolveConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Problem = problem

	if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
		cfg = p
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		fileCfg.Problem = problem
		cfg = fileCfg
	}

	f := cmd.Flags()
	if f.Changed("scheme") || cfg.Scheme == "" {
		cfg.Scheme = scheme
	}
	if f.Changed("n") {
		cfg.N = numBodies
	}
	if f.Changed("eps") {
		cfg.Eps = eps
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("eta") {
		cfg.Eta = eta
	}
	if f.Changed("dt-max") {
		cfg.DtMax = dtMax
	}
	if f.Changed("dt-min") {
		cfg.DtMin = dtMin
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("sample") {
		cfg.SampleInterval = sampleInterval
	}
	if f.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if f.Changed("force-tier") {
		cfg.Precision.Force = forceTier
	}
	if f.Changed("integrate-tier") {
		cfg.Precision.Integrate = integTier
	}
	if f.Changed("diag-tier") {
		cfg.Precision.Diagnostics = diagTier
	}
	if f.Changed("approx-rsqrt") {
		cfg.ApproxRsqrt = approxRsqrt
	}
	if f.Changed("no-potential") {
		cfg.Potential = !noPotential
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func selectBackend(cmd *cobra.Command) {
	if cmd.Flags().Changed("workers") || cmd.InheritedFlags().Changed("workers") {
		compute.SetBackend(compute.NewPool(workers))
		return
	}
	compute.AutoSelect()
}

// buildRunner assembles system, evaluator, stepper and runner for one
// realization of the configured problem.
func buildRunner(cfg *config.Config, seed int64) (*run.Runner, error) {
	sys, err := ic.ByName(cfg.Problem, cfg.N, cfg.Eps, seed)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	eval, err := force.New(compute.GetBackend(), policy.Force, cfg.ApproxRsqrt)
	if err != nil {
		return nil, err
	}

	var stepper integrate.Stepper
	switch cfg.Scheme {
	case "hermite":
		stepper = integrate.NewHermite(sys, eval, policy.Integrate, cfg.Eta, cfg.DtMax, cfg.DtMin)
	default:
		stepper = integrate.NewLeapfrog(sys, eval, policy.Integrate, cfg.Dt)
	}

	r := run.New(sys, stepper, eval, policy.Diagnostics)
	r.AddMetric(metrics.NewEnergyDrift())
	r.AddMetric(metrics.NewMomentumDrift())
	r.AddMetric(metrics.NewAngularMomentumDrift())
	r.AddMetric(metrics.NewVirialMean())
	return r, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	selectBackend(cmd)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runCfg := run.Config{
		Duration:       cfg.Duration,
		SampleInterval: cfg.SampleInterval,
		MaxStalls:      cfg.MaxStalls,
		CheckFinite:    true,
		WithPot:        cfg.Potential,
	}

	if runs < 1 {
		runs = 1
	}
	ensemble := make([]map[string]float64, 0, runs)

	for i := 0; i < runs; i++ {
		runSeed := cfg.Seed + int64(i)
		r, err := buildRunner(cfg, runSeed)
		if err != nil {
			return err
		}

		fmt.Printf("running %s (%s, seed %d)...\n", cfg.Problem, cfg.Scheme, runSeed)
		start := time.Now()
		result, err := r.Run(context.Background(), runCfg)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		runCopy := *cfg
		runCopy.Seed = runSeed
		runID, err := st.Save(&runCopy, result)
		if err != nil {
			return err
		}

		fmt.Printf("completed in %v\n", elapsed)
		fmt.Printf("run id: %s\n", runID)
		fmt.Printf("steps: %d\n", result.Steps)
		for _, warning := range result.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}
		fmt.Println("metrics:")
		for name, val := range result.Metrics {
			fmt.Printf("  %s: %.6g\n", name, val)
		}
		fmt.Println()
		ensemble = append(ensemble, result.Metrics)
	}

	if len(ensemble) > 1 {
		printEnsemble(ensemble)
	}
	return nil
}

func printEnsemble(ensemble []map[string]float64) {
	mean := map[string]float64{}
	for _, m := range ensemble {
		for name, val := range m {
			mean[name] += val
		}
	}
	fmt.Printf("ensemble means over %d runs:\n", len(ensemble))
	for name := range mean {
		fmt.Printf("  %s: %.6g\n", name, mean[name]/float64(len(ensemble)))
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	selectBackend(cmd)

	m, err := tui.NewModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stored, err := st.List()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tSCHEME\tTIME\tN\tDURATION\tSTEPS\tDRIFT")
	for _, meta := range stored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%d\t%.3g\n",
			meta.ID,
			meta.Problem,
			meta.Scheme,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.N,
			meta.Duration,
			meta.Steps,
			meta.Metrics["energy_drift"],
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
	sums, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.RunHeader(meta.ID, meta.Problem, meta.Scheme))
	fmt.Println()
	fmt.Println(viz.EnergyPlot(sums, 80, 10))
	fmt.Println()
	fmt.Println(viz.DriftPlot(sums, 80, 10))
	fmt.Println()
	fmt.Println(viz.VirialPlot(sums, 80, 10))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	sums, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}

	cfg := &config.Config{
		Problem:  meta.Problem,
		Scheme:   meta.Scheme,
		N:        meta.N,
		Eps:      meta.Eps,
		Dt:       meta.Dt,
		Eta:      meta.Eta,
		Duration: meta.Duration,
		Seed:     meta.Seed,
	}
	res := &run.Result{
		Samples:  sums,
		Metrics:  meta.Metrics,
		Steps:    meta.Steps,
		Warnings: meta.Warnings,
	}
	return export.JSON(os.Stdout, cfg, res)
}

func benchProblem(cmd *cobra.Command, args []string) error {
	problem := args[0]
	selectBackend(cmd)

	sizes := []int{16, 64, 256}
	if problem == "kepler" {
		sizes = []int{2}
	}

	fmt.Printf("benchmarking %s (%s backend)\n\n", problem, compute.GetBackend().Name())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tSCHEME\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		for _, sch := range []string{"leapfrog", "hermite"} {
			cfg := config.DefaultConfig()
			cfg.Problem = problem
			cfg.Scheme = sch
			cfg.N = n
			cfg.Seed = 42
			cfg.Duration = 0.25
			cfg.SampleInterval = cfg.Duration // endpoints only
			cfg.Potential = false
			if err := cfg.Validate(); err != nil {
				return err
			}

			r, err := buildRunner(cfg, cfg.Seed)
			if err != nil {
				return err
			}
			start := time.Now()
			result, err := r.Run(context.Background(), run.Config{
				Duration:       cfg.Duration,
				SampleInterval: cfg.SampleInterval,
				MaxStalls:      cfg.MaxStalls,
				CheckFinite:    true,
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.0f\n",
				n, sch, result.Steps, elapsed.Round(time.Millisecond),
				float64(result.Steps)/elapsed.Seconds())
		}
	}
	return w.Flush()
}
