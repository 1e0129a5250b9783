package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/experiment"
	"github.com/san-kum/neurodyn/internal/integrators"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/measure"
	"github.com/san-kum/neurodyn/internal/metrics"
	"github.com/san-kum/neurodyn/internal/models"
	"github.com/san-kum/neurodyn/internal/storage"
)

func listMethods(cmd *cobra.Command, args []string) error {
	var rows [][]string
	for _, m := range integrators.Catalog() {
		rows = append(rows, []string{m.Name, m.Family, strconv.FormatFloat(m.Order, 'g', -1, 64), strconv.Itoa(m.Stages)})
	}
	fmt.Println(renderTable([]string{"METHOD", "FAMILY", "ORDER", "STAGES"}, rows))
	return nil
}

// codeModelFor picks a model whose integrator family accepts method.
func codeModelFor(method string) string {
	for _, m := range integrators.Catalog() {
		if m.Name != method {
			continue
		}
		if m.Family == integrators.FamilyStochastic {
			return "ou"
		}
		return config.DefaultModel
	}
	return config.DefaultModel
}

func printCode(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Method = args[0]
	cfg.Model = codeModel
	if cfg.Model == "" {
		cfg.Model = codeModelFor(cfg.Method)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	_, err := experiment.NewRegistry().GetModel(cfg, models.Settings{
		Size:     cfg.Size,
		Method:   cfg.Method,
		Dt:       cfg.Dt,
		Logger:   logging.NewLogger(logLevel, os.Stderr),
		ShowCode: os.Stdout,
	})
	return err
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	var rows [][]string
	for _, name := range reg.ListModels() {
		cfg := config.DefaultConfig()
		cfg.Model = name
		m, err := reg.GetModel(cfg, models.Settings{Dt: cfg.Dt})
		if err != nil {
			return err
		}
		entry, _ := reg.Lookup(name)
		rows = append(rows, []string{name, entry.About, m.Integrator().Method(), formatParams(m.GetParams())})
	}
	fmt.Println(renderTable([]string{"MODEL", "DESCRIPTION", "METHOD", "PARAMETERS"}, rows))
	return nil
}

func formatParams(p map[string]float64) string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%g", name, p[name])
	}
	return out
}

func openStore(ctx context.Context) (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(subtleStyle.Render("no runs found"))
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Model,
			run.Method,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(run.Size),
			fmt.Sprintf("%.2fms", run.Duration),
			fmt.Sprintf("%.4fms", run.Dt),
		})
	}
	fmt.Println(renderTable([]string{"ID", "MODEL", "METHOD", "TIME", "SIZE", "DURATION", "DT"}, rows))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("run " + meta.ID))
	field := func(label, value string) {
		fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), value)
	}
	field("model", meta.Model)
	field("method", meta.Method)
	field("time", meta.Timestamp.Local().Format("2006-01-02 15:04:05"))
	field("seed", strconv.FormatUint(meta.Seed, 10))
	field("size", strconv.Itoa(meta.Size))
	field("dt", fmt.Sprintf("%g ms", meta.Dt))
	field("duration", fmt.Sprintf("%g ms", meta.Duration))
	field("steps", strconv.Itoa(meta.Steps))
	field("input", fmt.Sprintf("%g", meta.Input))
	field("monitors", fmt.Sprint(meta.Monitors))
	if len(meta.Params) > 0 {
		field("params", formatParams(meta.Params))
	}
	if len(meta.Metrics) > 0 {
		fmt.Print(renderValues("metrics", meta.Metrics))
	}
	return nil
}

func deleteRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", okStyle.Render("deleted"), args[0])
	return nil
}

func measureRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	res.Dt = meta.Dt

	reg := experiment.NewRegistry()
	ms := reg.DefaultMetrics(meta.Model)
	for i, m := range ms {
		if c, ok := m.(metrics.Coherence); ok {
			c.Bin = coherenceMs
			ms[i] = c
		}
	}
	values, err := metrics.Summarize(res, ms...)
	if err != nil {
		fmt.Println(warnStyle.Render(err.Error()))
	}

	if spikes, err := metrics.Spikes(res, "spike"); err == nil {
		rate, err := measure.FiringRate(spikes, rateWidth, res.Dt, rateWindow)
		switch {
		case errors.Is(err, measure.ErrEmpty):
		case err != nil:
			return err
		default:
			peak := 0.0
			for _, r := range rate {
				peak = max(peak, r)
			}
			values["peak_rate_hz"] = peak
		}
	}

	fmt.Print(renderValues("measures of "+meta.ID, values))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Println(subtleStyle.Render("no presets for model: " + args[0]))
		return nil
	}
	rows := make([][]string, 0, len(presets))
	for _, name := range presets {
		p := config.GetPreset(args[0], name)
		method := p.Method
		if method == "" {
			method = "default"
		}
		rows = append(rows, []string{name, method, fmt.Sprintf("%g", p.Dt), fmt.Sprintf("%g", p.Duration), fmt.Sprintf("%g", p.Input.Amplitude)})
	}
	fmt.Println(renderTable([]string{"PRESET", "METHOD", "DT", "DURATION", "INPUT"}, rows))
	return nil
}
