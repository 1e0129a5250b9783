package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurodyn/internal/config"
)

var (
	dataDir  string
	logLevel string

	method      string
	dt          float64
	duration    float64
	size        int
	varType     string
	seed        uint64
	input       float64
	inputStart  float64
	inputStop   float64
	tau         float64
	lags        []float64
	params      []string
	monitors    []string
	configFile  string
	preset      string
	save        bool
	showCode    bool
	codeModel   string
	rateWindow  string
	rateWidth   float64
	coherenceMs float64
	trials      int

	sweepName    string
	sweepFrom    float64
	sweepTo      float64
	sweepSteps   int
	transient    float64
	perturbation float64
	grids        []string
	tuneMetric   string
	tuneTarget   float64
)

// main executes the root command, exiting with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "neurodyn",
		Short:        "neural dynamics simulator with generated integrators",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStoreDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&trials, "trials", 1, "independent trials with consecutive seeds")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run")
	runCmd.Flags().BoolVar(&showCode, "show-code", false, "print the generated step function")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "bifurcation sweep of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParam,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepName, "vary", "input", "swept quantity: input, delay.tau or a model parameter")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 10, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	sweepCmd.Flags().Float64Var(&transient, "transient", 100, "discarded time in ms")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  estimateLyapunov,
	}
	addConfigFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&transient, "transient", 100, "time in ms run before the perturbation")
	lyapunovCmd.Flags().Float64Var(&perturbation, "eps", 1e-8, "perturbation size")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&save, "save", true, "store each run")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search toward a target metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneModel,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grids, "grid", nil, "swept quantity as name=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "mean_rate_hz", "summary metric to match")
	tuneCmd.Flags().Float64Var(&tuneTarget, "target", 0, "target metric value")

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list integration methods",
		Args:  cobra.NoArgs,
		RunE:  listMethods,
	}

	codeCmd := &cobra.Command{
		Use:   "code [method]",
		Short: "print the step function generated for a method",
		Args:  cobra.ExactArgs(1),
		RunE:  printCode,
	}
	codeCmd.Flags().StringVar(&codeModel, "model", "", "model to build (default depends on the method family)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and their parameters",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	measureCmd := &cobra.Command{
		Use:   "measure [run_id]",
		Short: "compute spike and voltage measures of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  measureRun,
	}
	measureCmd.Flags().StringVar(&rateWindow, "window", "gaussian", "firing rate window (gaussian or flat)")
	measureCmd.Flags().Float64Var(&rateWidth, "width", 5, "firing rate window width in ms")
	measureCmd.Flags().Float64Var(&coherenceMs, "bin", 2, "coherence bin in ms")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, sweepCmd, lyapunovCmd, scenarioCmd, tuneCmd, methodsCmd, codeCmd, modelsCmd, listCmd, showCmd, deleteCmd, measureCmd, presetsCmd)
	return rootCmd
}

// addConfigFlags registers the flags resolveConfig reads.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "", "integration method (default: the model's own)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step in ms")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in ms")
	cmd.Flags().IntVar(&size, "size", config.DefaultSize, "population size")
	cmd.Flags().StringVar(&varType, "var-type", "", "state shape: population, scalar or system")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "noise seed (0 picks one from the clock)")
	cmd.Flags().Float64Var(&input, "input", 0, "input current amplitude")
	cmd.Flags().Float64Var(&inputStart, "input-start", 0, "pulse start in ms")
	cmd.Flags().Float64Var(&inputStop, "input-stop", 0, "pulse stop in ms (0 keeps the input on)")
	cmd.Flags().Float64Var(&tau, "tau", 0, "delay of mackey_glass in ms")
	cmd.Flags().Float64SliceVar(&lags, "lags", nil, "per-unit delays of delayed_pair in ms")
	cmd.Flags().StringArrayVar(&params, "param", nil, "model parameter as name=value (repeatable)")
	cmd.Flags().StringSliceVar(&monitors, "monitor", nil, "variables to record")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}
