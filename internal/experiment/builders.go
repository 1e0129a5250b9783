package experiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/neurodyn/internal/analysis"
	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/optim"
	"github.com/san-kum/neurodyn/internal/runner"
)

// Sweepable quantities besides model parameters.
const (
	SweepInput    = "input"
	SweepDelayTau = "delay.tau"
)

// WithValue returns a copy of cfg with one quantity set: the input
// amplitude, the mackey_glass delay, or a model parameter.
func WithValue(cfg *config.Config, name string, v float64) (*config.Config, error) {
	out := cfg.Clone()
	switch {
	case name == SweepInput:
		out.Input.Amplitude = v
	case name == SweepDelayTau:
		out.Delay.Tau = v
	case strings.TrimSpace(name) == "":
		return nil, fmt.Errorf("empty sweep name")
	default:
		if out.Params == nil {
			out.Params = make(map[string]float64)
		}
		out.Params[name] = v
	}
	return out, nil
}

// SweepBuilder builds one experiment per swept value.
func SweepBuilder(cfg *config.Config, reg *Registry, name string, opts ...Option) analysis.SweepBuilder {
	return func(v float64) (*runner.Runner, error) {
		c, err := WithValue(cfg, name, v)
		if err != nil {
			return nil, err
		}
		e, err := New(c, reg, opts...)
		if err != nil {
			return nil, err
		}
		return e.Runner(), nil
	}
}

// LyapunovBuilder builds identical experiments for the two trajectories.
func LyapunovBuilder(cfg *config.Config, reg *Registry, opts ...Option) analysis.Builder {
	return func() (*runner.Runner, runner.Stater, error) {
		e, err := New(cfg.Clone(), reg, opts...)
		if err != nil {
			return nil, nil, err
		}
		return e.Runner(), e.Model(), nil
	}
}

// EnsembleFactory builds one experiment per trial seed.
func EnsembleFactory(cfg *config.Config, reg *Registry, opts ...Option) runner.Factory {
	return func(seed uint64) (*runner.Runner, error) {
		c := cfg.Clone()
		c.Seed = seed
		e, err := New(c, reg, opts...)
		if err != nil {
			return nil, err
		}
		return e.Runner(), nil
	}
}

// MetricObjective scores a grid point by how far one summary metric of
// the run lands from target.
func MetricObjective(cfg *config.Config, reg *Registry, metric string, target float64, opts ...Option) optim.Objective {
	return func(ctx context.Context, values map[string]float64) (float64, error) {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)

		c := cfg
		for _, name := range names {
			var err error
			if c, err = WithValue(c, name, values[name]); err != nil {
				return 0, err
			}
		}
		e, err := New(c, reg, opts...)
		if err != nil {
			return 0, err
		}
		res, err := e.Run(ctx)
		if err != nil {
			return 0, err
		}
		v, ok := e.Summary(res)[metric]
		if !ok {
			return 0, fmt.Errorf("metric %s not available for %s", metric, c.Model)
		}
		return math.Abs(v - target), nil
	}
}
