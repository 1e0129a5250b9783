package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/metrics"
	"github.com/san-kum/neurodyn/internal/models"
	"github.com/san-kum/neurodyn/internal/runner"
)

// Experiment wires a configured model into a runner with its input and
// monitors.
type Experiment struct {
	cfg      *config.Config
	model    models.Model
	runner   *runner.Runner
	monitors []string
	metrics  []metrics.Metric
	logger   *slog.Logger
}

type Option func(*options)

type options struct {
	logger   *slog.Logger
	showCode io.Writer
}

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithShowCode writes the generated step program of the model's
// integrator to w.
func WithShowCode(w io.Writer) Option { return func(o *options) { o.showCode = w } }

func New(cfg *config.Config, reg *Registry, opts ...Option) (*Experiment, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDiscard(o.logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vt, err := dynamo.ParseVarType(cfg.VarType)
	if err != nil {
		return nil, err
	}
	model, err := reg.GetModel(cfg, models.Settings{
		Size:     cfg.Size,
		Method:   cfg.Method,
		Dt:       cfg.Dt,
		Seed:     cfg.Seed,
		VarType:  vt,
		Logger:   o.logger,
		ShowCode: o.showCode,
	})
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:     cfg,
		model:   model,
		runner:  runner.New(runner.Config{Dt: cfg.Dt, Duration: cfg.Duration, ValidateState: true}, o.logger),
		metrics: reg.DefaultMetrics(cfg.Model),
		logger:  o.logger,
	}
	if err := e.runner.Add(cfg.Model, model); err != nil {
		return nil, err
	}
	if err := e.wireInput(); err != nil {
		return nil, err
	}
	if err := e.wireMonitors(reg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) wireInput() error {
	in := e.cfg.Input
	if in.Amplitude == 0 {
		return nil
	}
	s, ok := e.model.(models.Stimulated)
	if !ok {
		return fmt.Errorf("model %s takes no input current", e.cfg.Model)
	}
	if in.Stop == 0 {
		e.runner.AddInput("input", runner.Constant(s.Input(), in.Amplitude))
	} else {
		e.runner.AddInput("input", runner.Pulse(s.Input(), in.Amplitude, in.Start, in.Stop))
	}
	return nil
}

func (e *Experiment) wireMonitors(reg *Registry) error {
	names := e.cfg.Monitors
	if len(names) == 0 {
		names = reg.DefaultMonitors(e.cfg.Model)
	}
	for _, name := range names {
		if _, ok := e.model.Variable(name); !ok {
			return fmt.Errorf("model %s has no variable %q (have %v)", e.cfg.Model, name, e.model.Variables())
		}
		e.runner.AddMonitor(name, func() []float64 {
			v, _ := e.model.Variable(name)
			return v
		})
	}
	e.monitors = names
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*runner.Result, error) {
	e.logger.Info("experiment started",
		"model", e.cfg.Model,
		"method", e.model.Integrator().Method(),
		"size", e.model.Size(),
		"seed", e.cfg.Seed)
	return e.runner.Run(ctx, e.cfg.Duration)
}

// Summary reduces a result to the model's metrics. Metrics that cannot
// be computed are logged and left out.
func (e *Experiment) Summary(res *runner.Result) map[string]float64 {
	out, err := metrics.Summarize(res, e.metrics...)
	if err != nil {
		e.logger.Warn("some metrics were skipped", "err", err)
	}
	return out
}

func (e *Experiment) Model() models.Model    { return e.model }
func (e *Experiment) Runner() *runner.Runner { return e.runner }
func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Monitors() []string     { return append([]string(nil), e.monitors...) }
