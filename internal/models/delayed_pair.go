package models

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/neurodyn/internal/delay"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/integrators"
	"github.com/san-kum/neurodyn/internal/runner"
)

// DelayedPair is two rate units coupled through their delayed outputs:
//
//	tau du_i/dt = -u_i + w tanh(u_j(t - d_j)) + I_i
//
// Each unit's output reaches its partner after that unit's own lag, held
// in a per-element delay buffer owned by the pair.
type DelayedPair struct {
	Tau, W float64

	U dynamo.Vec

	lags   [2]float64
	integ  integrators.Integrator
	out    *delay.Buffer[float64]
	input  dynamo.Vec
	seen   dynamo.Vec
	logger *slog.Logger
	params paramTable
	vars   vars
}

// NewDelayedPair builds the pair with lags d0 and d1 for the outputs of
// unit 0 and unit 1.
func NewDelayedPair(s Settings, d0, d1 float64) (*DelayedPair, error) {
	s = s.withDefaults("rk4")
	for _, d := range []float64{d0, d1} {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("delayed_pair: lag must be finite and non-negative, got %v", d)
		}
	}
	m := &DelayedPair{
		Tau:    10,
		W:      1.5,
		lags:   [2]float64{d0, d1},
		input:  make(dynamo.Vec, 2),
		logger: s.Logger,
	}
	m.params = paramTable{
		"tau": &m.Tau,
		"w":   &m.W,
	}
	m.vars = newVars(m.variable, "u", "u_delayed", "input")

	var err error
	m.out, err = delay.New[float64]([]int{2}, delay.PerElement(elementLag(d0, s.Dt), elementLag(d1, s.Dt)), s.Dt)
	if err != nil {
		return nil, err
	}
	m.Reset()

	eq := equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		u, seen, I := v[0], p[0], p[1]
		return []dynamo.Vec{each(len(u), func(i int) float64 {
			return (-u[i] + m.W*math.Tanh(seen[1-i]) + I.At(i)) / m.Tau
		})}
	}, equation.Args("u", "t", "u_delayed", "I_ext"))

	m.integ, err = integrators.ODEInt(eq, s.options()...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DelayedPair) Name() string                       { return "delayed_pair" }
func (m *DelayedPair) Size() int                          { return 2 }
func (m *DelayedPair) Integrator() integrators.Integrator { return m.integ }
func (m *DelayedPair) Delays() []runner.Updater           { return []runner.Updater{m.out} }
func (m *DelayedPair) Input() dynamo.Vec                  { return m.input }
func (m *DelayedPair) Lags() [2]float64                   { return m.lags }

func (m *DelayedPair) Update(t, dt float64) {
	m.seen = m.out.Pull()
	m.U = m.integ.StepDt([]dynamo.Vec{m.U}, t, []dynamo.Vec{m.seen, m.input}, dt)[0]
	if err := m.out.Push(m.U); err != nil {
		m.logger.Warn("delay push failed", "model", m.Name(), "t", t, "error", err)
	}
	m.input.SetAll(0)
}

// Reset starts unit 0 excited and unit 1 at rest, with empty histories.
func (m *DelayedPair) Reset() {
	m.U = dynamo.Vec{1, 0}
	m.seen = make(dynamo.Vec, 2)
	m.input.SetAll(0)
	m.out.Reset()
}

func (m *DelayedPair) State() []dynamo.Vec { return []dynamo.Vec{m.U} }

func (m *DelayedPair) GetParams() map[string]float64         { return m.params.get() }
func (m *DelayedPair) SetParam(name string, v float64) error { return m.params.set(m.Name(), name, v) }

func (m *DelayedPair) Variables() []string                     { return m.vars.list() }
func (m *DelayedPair) Variable(name string) (dynamo.Vec, bool) { return m.vars.lookup(name) }

func (m *DelayedPair) variable(name string) dynamo.Vec {
	switch name {
	case "u":
		return m.U
	case "u_delayed":
		return m.seen
	case "input":
		return m.input
	}
	return nil
}
