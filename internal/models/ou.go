package models

import (
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/integrators"
)

// OUProcess is an Ornstein-Uhlenbeck process,
// dx = (mu - x)/tau dt + sigma dW, one independent path per unit.
type OUProcess struct {
	Mu, Tau, Sigma float64
	X0             float64

	X dynamo.Vec

	size   int
	integ  *integrators.SDE
	params paramTable
	vars   vars
}

func NewOUProcess(s Settings) (*OUProcess, error) {
	s = s.withDefaults("euler")
	m := &OUProcess{Mu: 0, Tau: 10, Sigma: 0.5, size: s.Size}
	m.params = paramTable{
		"mu":    &m.Mu,
		"tau":   &m.Tau,
		"sigma": &m.Sigma,
		"x0":    &m.X0,
	}
	m.vars = newVars(m.variable, "x")
	m.Reset()

	drift := equation.MustNew(func(v []dynamo.Vec, _ float64, _ []dynamo.Vec) []dynamo.Vec {
		x := v[0]
		return []dynamo.Vec{each(len(x), func(i int) float64 { return (m.Mu - x[i]) / m.Tau })}
	}, equation.Args("x", "t"))
	diffusion := equation.MustNew(func(v []dynamo.Vec, _ float64, _ []dynamo.Vec) []dynamo.Vec {
		return []dynamo.Vec{{m.Sigma}}
	}, equation.Args("x", "t"))

	var err error
	m.integ, err = integrators.SDEInt(drift, diffusion, s.options()...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *OUProcess) Name() string                       { return "ou" }
func (m *OUProcess) Size() int                          { return m.size }
func (m *OUProcess) Integrator() integrators.Integrator { return m.integ }

func (m *OUProcess) Update(t, dt float64) {
	m.X = m.integ.StepDt([]dynamo.Vec{m.X}, t, nil, dt)[0]
}

func (m *OUProcess) Reset()              { m.X = dynamo.Fill(m.size, m.X0) }
func (m *OUProcess) State() []dynamo.Vec { return []dynamo.Vec{m.X} }

func (m *OUProcess) GetParams() map[string]float64         { return m.params.get() }
func (m *OUProcess) SetParam(name string, v float64) error { return m.params.set(m.Name(), name, v) }

func (m *OUProcess) Variables() []string                     { return m.vars.list() }
func (m *OUProcess) Variable(name string) (dynamo.Vec, bool) { return m.vars.lookup(name) }

func (m *OUProcess) variable(name string) dynamo.Vec {
	if name == "x" {
		return m.X
	}
	return nil
}
