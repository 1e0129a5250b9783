package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/experiment"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/metrics"
	"github.com/san-kum/neurodyn/internal/runner"
	"github.com/san-kum/neurodyn/internal/storage"
)

// resolveConfig layers the run configuration: preset, then config file,
// then NEURODYN_* environment, then flags set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) == 1 {
		cfg.Model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 1 {
			cfg.Model = args[0]
		}
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("var-type") {
		cfg.VarType = varType
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("input") {
		cfg.Input.Amplitude = input
	}
	if flags.Changed("input-start") {
		cfg.Input.Start = inputStart
	}
	if flags.Changed("input-stop") {
		cfg.Input.Stop = inputStop
	}
	if flags.Changed("tau") {
		cfg.Delay.Tau = tau
	}
	if flags.Changed("lags") {
		cfg.Delay.Lags = lags
	}
	if flags.Changed("monitor") {
		cfg.Monitors = monitors
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("data") {
		cfg.Storage.Dir = dataDir
	}
	if len(params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for _, kv := range params {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("param %q: want name=value", kv)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", name, err)
			}
			cfg.Params[strings.TrimSpace(name)] = v
		}
	}

	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	if trials > 1 {
		return runTrials(cfg, logger)
	}

	opts := []experiment.Option{experiment.WithLogger(logger)}
	if showCode {
		opts = append(opts, experiment.WithShowCode(os.Stdout))
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	model := exp.Model()
	fmt.Println(titleStyle.Render(fmt.Sprintf("running %s", cfg.Model)) +
		subtleStyle.Render(fmt.Sprintf(" (%s, size %d, dt %g ms, %g ms)",
			model.Integrator().Method(), model.Size(), cfg.Dt, cfg.Duration)))
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	summary := exp.Summary(result)

	fmt.Printf("%s in %v, %d steps\n", okStyle.Render("completed"), elapsed.Round(time.Millisecond), result.StepsTaken)
	if len(summary) > 0 {
		fmt.Print(renderValues("metrics", summary))
	}

	if !save {
		return nil
	}
	st := storage.New(cfg.Storage.Dir)
	if err := st.Init(ctx); err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(ctx, storage.RunMetadata{
		Model:    cfg.Model,
		Method:   model.Integrator().Method(),
		Seed:     cfg.Seed,
		Size:     model.Size(),
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Input:    cfg.Input.Amplitude,
		Params:   model.GetParams(),
		Metrics:  summary,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", labelStyle.Render("run id:"), runID)
	return nil
}

// runTrials runs independent seeds concurrently and reports the mean of
// each metric. Trials are not stored.
func runTrials(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := experiment.NewRegistry()
	ens := runner.NewEnsemble(experiment.EnsembleFactory(cfg, reg, experiment.WithLogger(logger)), trials, cfg.Seed)
	ens.SetLimit(runtime.GOMAXPROCS(0))

	fmt.Println(titleStyle.Render(fmt.Sprintf("running %d trials of %s", trials, cfg.Model)) +
		subtleStyle.Render(fmt.Sprintf(" (seeds %d..%d)", cfg.Seed, cfg.Seed+uint64(trials)-1)))
	start := time.Now()
	results, err := ens.Run(ctx, cfg.Duration)
	if err != nil {
		return err
	}

	samples := make(map[string][]float64)
	for _, res := range results {
		summary, err := metrics.Summarize(res, reg.DefaultMetrics(cfg.Model)...)
		if err != nil {
			logger.Warn("some metrics were skipped", "err", err)
		}
		for name, v := range summary {
			samples[name] = append(samples[name], v)
		}
	}
	means := make(map[string]float64, len(samples))
	for name, vs := range samples {
		means[name] = stat.Mean(vs, nil)
	}

	fmt.Printf("%s in %v\n", okStyle.Render("completed"), time.Since(start).Round(time.Millisecond))
	fmt.Print(renderValues("mean metrics", means))
	return nil
}
