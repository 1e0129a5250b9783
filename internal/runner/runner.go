package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/logging"
)

type child struct {
	name string
	sys  System
}

type named[T any] struct {
	name string
	fn   T
}

// Runner drives registered systems along a fixed time grid. Each step it
// applies inputs, updates systems in registration order, advances delay
// buffers and samples monitors. A Runner is not safe for concurrent use.
type Runner struct {
	cfg      Config
	logger   *slog.Logger
	children []child
	index    map[string]int
	delays   []Updater
	inputs   []named[InputFunc]
	monitors []named[MonitorFunc]
	t        float64
}

func New(cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logging.OrDiscard(logger),
		index:  make(map[string]int),
	}
}

// Add registers a system under a unique name, along with any delay
// buffers it owns.
func (r *Runner) Add(name string, sys System) error {
	if sys == nil {
		return fmt.Errorf("runner: nil system %q", name)
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("runner: %w: %q", dynamo.ErrDuplicateVar, name)
	}
	r.index[name] = len(r.children)
	r.children = append(r.children, child{name: name, sys: sys})
	if owner, ok := sys.(DelayOwner); ok {
		r.delays = append(r.delays, owner.Delays()...)
	}
	return nil
}

// Child returns the system registered under name.
func (r *Runner) Child(name string) (System, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.children[i].sys, true
}

// Names lists children in registration order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.children))
	for i, c := range r.children {
		names[i] = c.name
	}
	return names
}

// AddDelay registers a buffer to advance after every step.
func (r *Runner) AddDelay(d Updater) { r.delays = append(r.delays, d) }

func (r *Runner) AddInput(name string, fn InputFunc) {
	r.inputs = append(r.inputs, named[InputFunc]{name, fn})
}

func (r *Runner) AddMonitor(name string, fn MonitorFunc) {
	r.monitors = append(r.monitors, named[MonitorFunc]{name, fn})
}

// Time is the current simulation time. Successive runs continue from it.
func (r *Runner) Time() float64 { return r.t }

func (r *Runner) Config() Config { return r.cfg }

// Reset rewinds the clock and resets every delay and child that supports
// it. Delays go first so children can refill their own histories.
func (r *Runner) Reset() {
	r.t = 0
	for _, d := range r.delays {
		if rs, ok := d.(Resetter); ok {
			rs.Reset()
		}
	}
	for _, c := range r.children {
		if rs, ok := c.sys.(Resetter); ok {
			rs.Reset()
		}
	}
}

// Step advances one step from the current time without sampling
// monitors. step is reported in a state validation error.
func (r *Runner) Step(step int) error {
	r.advance(r.t, r.cfg.Dt)
	r.t += r.cfg.Dt
	if r.cfg.ValidateState {
		return r.validate(step)
	}
	return nil
}

func (r *Runner) advance(t, dt float64) {
	for _, in := range r.inputs {
		in.fn(t, dt)
	}
	for _, c := range r.children {
		c.sys.Update(t, dt)
	}
	for _, d := range r.delays {
		d.Update()
	}
}

// Run advances the simulation by duration, or by the configured duration
// when duration is not positive. On cancellation the partial result is
// returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, duration float64) (*Result, error) {
	if duration <= 0 {
		duration = r.cfg.Duration
	}
	if err := validateConfig(r.cfg.Dt, duration); err != nil {
		return nil, err
	}

	dt := r.cfg.Dt
	steps := int(math.Round(duration / dt))
	result := &Result{
		Times:    make([]float64, 0, steps),
		Monitors: make([]string, len(r.monitors)),
		Records:  make(map[string][][]float64, len(r.monitors)),
		Dt:       dt,
	}
	for i, m := range r.monitors {
		result.Monitors[i] = m.name
		result.Records[m.name] = make([][]float64, 0, steps)
	}

	r.logger.Info("run started",
		"systems", len(r.children), "t0", r.t, "duration", duration, "dt", dt, "steps", steps)
	start := time.Now()
	t0 := r.t

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.logger.Warn("run canceled", "step", i, "t", r.t)
			return result, ctx.Err()
		default:
		}

		r.advance(t0+float64(i)*dt, dt)
		r.t = t0 + float64(i+1)*dt

		if r.cfg.ValidateState {
			if err := r.validate(i); err != nil {
				return result, err
			}
		}

		result.Times = append(result.Times, r.t)
		for _, m := range r.monitors {
			result.Records[m.name] = append(result.Records[m.name], append([]float64(nil), m.fn()...))
		}
		result.StepsTaken++
	}

	r.logger.Info("run finished", "steps", result.StepsTaken, "t", r.t, "elapsed", time.Since(start))
	return result, nil
}

func (r *Runner) validate(step int) error {
	for _, c := range r.children {
		s, ok := c.sys.(Stater)
		if !ok {
			continue
		}
		if !dynamo.AllValid(s.State()) {
			return &dynamo.SimulationError{
				Step:    step,
				Time:    r.t,
				Wrapped: fmt.Errorf("%s: %w", c.name, dynamo.ErrInvalidState),
			}
		}
	}
	return nil
}

func validateConfig(dt, duration float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", dt)
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return fmt.Errorf("duration must be positive, got %f", duration)
	}
	return nil
}
