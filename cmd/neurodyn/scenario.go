package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurodyn/internal/analysis"
	"github.com/san-kum/neurodyn/internal/automation"
	"github.com/san-kum/neurodyn/internal/experiment"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/optim"
	"github.com/san-kum/neurodyn/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	level := sc.Base.Logging.Level
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	logger := logging.NewLogger(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(titleStyle.Render("scenario "+sc.Name) + subtleStyle.Render(" "+sc.Description))
	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), logger)
	for _, r := range results {
		fmt.Print(renderValues(fmt.Sprintf("%s (%s)", r.Label, r.Config.Model), r.Summary))
	}
	if err != nil {
		return err
	}
	if !save {
		return nil
	}

	dir := sc.Base.Storage.Dir
	if cmd.Flags().Changed("data") {
		dir = dataDir
	}
	st := storage.New(dir)
	if err := st.Init(ctx); err != nil {
		return err
	}
	defer st.Close()
	for _, r := range results {
		id, err := st.Save(ctx, storage.RunMetadata{
			Model:    r.Config.Model,
			Method:   r.Method,
			Seed:     r.Config.Seed,
			Size:     r.Config.Size,
			Dt:       r.Config.Dt,
			Duration: r.Config.Duration,
			Input:    r.Config.Input.Amplitude,
			Params:   r.Config.Params,
			Metrics:  r.Summary,
		}, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", labelStyle.Render(r.Label+":"), id)
	}
	return nil
}

// parseGrid reads name=lo:hi:n into evenly spaced values.
func parseGrid(grid string) (string, []float64, error) {
	name, rng, ok := strings.Cut(grid, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", grid)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", grid)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %s: %w", name, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %s: %w", name, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %s: bad point count %q", name, parts[2])
	}
	return name, analysis.Linspace(lo, hi, n), nil
}

func tuneModel(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(grids) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(grids))
	ranges := make([][]float64, 0, len(grids))
	for _, grid := range grids {
		name, values, err := parseGrid(grid)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(titleStyle.Render(fmt.Sprintf("tuning %s", cfg.Model)) +
		subtleStyle.Render(fmt.Sprintf(" (%d points, %s toward %g)", g.Size(), tuneMetric, tuneTarget)))
	logger := logging.NewLogger("warn", os.Stderr)
	best, score, err := g.Search(ctx, experiment.MetricObjective(cfg, experiment.NewRegistry(), tuneMetric, tuneTarget, experiment.WithLogger(logger)))
	if err != nil {
		return err
	}

	best["|error|"] = score
	fmt.Print(renderValues("best", best))
	return nil
}
