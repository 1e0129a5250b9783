package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurodyn/internal/analysis"
	"github.com/san-kum/neurodyn/internal/experiment"
	"github.com/san-kum/neurodyn/internal/logging"
)

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if sweepSteps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", sweepSteps)
	}
	reg := experiment.NewRegistry()
	monitor := ""
	if len(cfg.Monitors) > 0 {
		monitor = cfg.Monitors[0]
	} else if defaults := reg.DefaultMonitors(cfg.Model); len(defaults) > 0 {
		monitor = defaults[0]
	}
	cfg.Monitors = []string{monitor}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Per-run logs would interleave across workers.
	logger := logging.NewLogger("warn", os.Stderr)
	fmt.Println(titleStyle.Render(fmt.Sprintf("sweeping %s of %s", sweepName, cfg.Model)) +
		subtleStyle.Render(fmt.Sprintf(" (%d values, peaks of %s)", sweepSteps, monitor)))

	points, err := analysis.Bifurcation(ctx,
		experiment.SweepBuilder(cfg, reg, sweepName, experiment.WithLogger(logger)),
		analysis.Sweep{
			Values:    analysis.Linspace(sweepFrom, sweepTo, sweepSteps),
			Monitor:   monitor,
			Transient: transient,
			Record:    cfg.Duration,
		})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(points))
	for _, p := range points {
		vals := make([]string, 0, min(len(p.Values), 8))
		for i, v := range p.Values {
			if i == 8 {
				vals = append(vals, fmt.Sprintf("... %d more", len(p.Values)-8))
				break
			}
			vals = append(vals, fmt.Sprintf("%.4g", v))
		}
		rows = append(rows, []string{fmt.Sprintf("%g", p.Param), fmt.Sprint(len(p.Values)), strings.Join(vals, " ")})
	}
	fmt.Println(renderTable([]string{strings.ToUpper(sweepName), "DISTINCT", "PEAKS"}, rows))
	return nil
}

func estimateLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lambda, err := analysis.Lyapunov(ctx,
		experiment.LyapunovBuilder(cfg, experiment.NewRegistry(), experiment.WithLogger(logger)),
		analysis.LyapunovOptions{
			Transient:    transient,
			Duration:     cfg.Duration,
			Perturbation: perturbation,
		})
	if err != nil {
		return err
	}

	verdict := okStyle.Render("stable")
	if lambda > 0 {
		verdict = warnStyle.Render("chaotic")
	}
	fmt.Printf("%s %s per ms (%s)\n", labelStyle.Render("largest lyapunov exponent:"),
		valueStyle.Render(fmt.Sprintf("%.6g", lambda)), verdict)
	return nil
}
