package models

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/integrators"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/runner"
)

// Model is a population of identical units driven by one integrator.
type Model interface {
	runner.System
	runner.Resetter
	runner.Stater
	Name() string
	Size() int
	Integrator() integrators.Integrator
	GetParams() map[string]float64
	SetParam(name string, v float64) error
	Variables() []string
	Variable(name string) (dynamo.Vec, bool)
}

// Stimulated models accept an external current, cleared after each step.
type Stimulated interface {
	Input() dynamo.Vec
}

// Spiking models report threshold crossings of the last step.
type Spiking interface {
	Spikes() []bool
}

// Settings control how a model is integrated.
type Settings struct {
	Size     int
	Method   string
	Dt       float64
	Seed     uint64
	VarType  dynamo.VarType
	Logger   *slog.Logger
	ShowCode io.Writer
}

func (s Settings) withDefaults(method string) Settings {
	if s.Size <= 0 {
		s.Size = 1
	}
	if s.Method == "" {
		s.Method = method
	}
	if s.Dt == 0 {
		s.Dt = integrators.DefaultDt
	}
	s.Logger = logging.OrDiscard(s.Logger)
	return s
}

func (s Settings) options() []integrators.Option {
	opts := []integrators.Option{
		integrators.WithMethod(s.Method),
		integrators.WithDt(s.Dt),
		integrators.WithSeed(s.Seed),
		integrators.WithVarType(s.VarType),
		integrators.WithLogger(s.Logger),
	}
	if s.ShowCode != nil {
		opts = append(opts, integrators.WithShowCode(s.ShowCode))
	}
	return opts
}

// paramTable binds parameter names to model fields.
type paramTable map[string]*float64

func (p paramTable) get() map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = *v
	}
	return out
}

func (p paramTable) set(model, name string, v float64) error {
	ptr, ok := p[name]
	if !ok {
		return fmt.Errorf("%s: unknown parameter %q", model, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: parameter %q must be finite, got %v", model, name, v)
	}
	*ptr = v
	return nil
}

// vars is a named, ordered set of monitorable values.
type vars struct {
	names []string
	get   func(name string) dynamo.Vec
}

func (v vars) list() []string { return append([]string(nil), v.names...) }

func (v vars) lookup(name string) (dynamo.Vec, bool) {
	i := sort.SearchStrings(v.names, name)
	if i == len(v.names) || v.names[i] != name {
		return nil, false
	}
	return v.get(name), true
}

func newVars(get func(string) dynamo.Vec, names ...string) vars {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return vars{names: sorted, get: get}
}

// each builds a vector of length n from f.
func each(n int, f func(i int) float64) dynamo.Vec {
	out := make(dynamo.Vec, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

// vtrap computes x/(exp(x/y)-1), using its limit y near x = 0.
func vtrap(x, y float64) float64 {
	if math.Abs(x/y) < 1e-6 {
		return y * (1 - x/y/2)
	}
	return x / math.Expm1(x/y)
}

// Buffers hold post-step values, so reading a lag of k steps at the
// start of a step takes k+1 slots beyond the write slot. uniformLag and
// elementLag return buffer lags that produce that depth under the ceil
// and round-half-even rules respectively, away from rounding edges.
func uniformLag(lag, dt float64) float64 {
	return (math.Round(lag/dt) + 0.5) * dt
}

func elementLag(lag, dt float64) float64 {
	return (math.Round(lag/dt) + 1) * dt
}
