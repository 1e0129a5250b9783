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

// MackeyGlass integrates dx/dt = beta x(t-tau) / (1 + x(t-tau)^n) - gamma x.
//
// The delayed value is read from a uniform history buffer once at the
// start of each step and held fixed across the stages. The integrator
// pushes every new x into the buffer; the runner advances it.
type MackeyGlass struct {
	Beta, Gamma, N float64
	Tau, X0        float64

	X    dynamo.Vec
	xTau dynamo.Vec

	size    int
	integ   *integrators.DDE
	history *delay.Buffer[float64]
	logger  *slog.Logger
	params  paramTable
	vars    vars
}

// NewMackeyGlass builds the model with the classic chaotic parameters
// (tau = 17). Tau is fixed once the history buffer exists; use
// [NewMackeyGlassTau] to choose another lag.
func NewMackeyGlass(s Settings) (*MackeyGlass, error) {
	return NewMackeyGlassTau(s, 17)
}

func NewMackeyGlassTau(s Settings, tau float64) (*MackeyGlass, error) {
	s = s.withDefaults("rk4")
	if !(tau > 0) || math.IsInf(tau, 0) {
		return nil, fmt.Errorf("mackey_glass: tau must be positive, got %v", tau)
	}
	m := &MackeyGlass{
		Beta:   0.2,
		Gamma:  0.1,
		N:      10,
		Tau:    tau,
		X0:     1.2,
		size:   s.Size,
		logger: s.Logger,
	}
	m.params = paramTable{
		"beta":  &m.Beta,
		"gamma": &m.Gamma,
		"n":     &m.N,
		"x0":    &m.X0,
	}
	m.vars = newVars(m.variable, "x", "x_tau")

	var err error
	m.history, err = delay.New[float64]([]int{s.Size}, delay.Uniform(uniformLag(tau, s.Dt)), s.Dt)
	if err != nil {
		return nil, err
	}
	m.Reset()

	eq := equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		x, xt := v[0], p[0]
		return []dynamo.Vec{each(len(x), func(i int) float64 {
			d := xt.At(i)
			return m.Beta*d/(1+math.Pow(d, m.N)) - m.Gamma*x[i]
		})}
	}, equation.Args("x", "t", "x_tau"))

	opts := append(s.options(), integrators.WithStateDelay("x", m.history))
	m.integ, err = integrators.DDEInt(eq, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MackeyGlass) Name() string                       { return "mackey_glass" }
func (m *MackeyGlass) Size() int                          { return m.size }
func (m *MackeyGlass) Integrator() integrators.Integrator { return m.integ }
func (m *MackeyGlass) Delays() []runner.Updater           { return []runner.Updater{m.history} }

// History is the read view of the delayed state.
func (m *MackeyGlass) History() delay.Reader[float64] { return m.history }

func (m *MackeyGlass) Update(t, dt float64) {
	m.xTau = m.history.Pull()
	m.X = m.integ.StepDt([]dynamo.Vec{m.X}, t, []dynamo.Vec{m.xTau}, dt)[0]
}

// Reset restores x = x0 and a constant history at x0.
func (m *MackeyGlass) Reset() {
	m.X = dynamo.Fill(m.size, m.X0)
	m.xTau = m.X.Clone()
	m.history.Reset()
	if err := m.history.Fill(m.X); err != nil {
		m.logger.Warn("history fill failed", "model", m.Name(), "error", err)
	}
}

func (m *MackeyGlass) State() []dynamo.Vec { return []dynamo.Vec{m.X} }

func (m *MackeyGlass) GetParams() map[string]float64         { return m.params.get() }
func (m *MackeyGlass) SetParam(name string, v float64) error { return m.params.set(m.Name(), name, v) }

func (m *MackeyGlass) Variables() []string                     { return m.vars.list() }
func (m *MackeyGlass) Variable(name string) (dynamo.Vec, bool) { return m.vars.lookup(name) }

func (m *MackeyGlass) variable(name string) dynamo.Vec {
	switch name {
	case "x":
		return m.X
	case "x_tau":
		return m.xTau
	}
	return nil
}
