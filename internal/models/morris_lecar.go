package models

import (
	"math"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/integrators"
)

// MorrisLecar is a two-variable conductance model with a calcium current
// and a slow potassium recovery variable W.
type MorrisLecar struct {
	neuron
	VCa, GCa     float64
	VK, GK       float64
	VLeak, GLeak float64
	C            float64
	V1, V2       float64
	V3, V4       float64
	Phi, VTh     float64

	V, W dynamo.Vec

	params paramTable
	vars   vars
}

func NewMorrisLecar(s Settings) (*MorrisLecar, error) {
	s = s.withDefaults("exp_euler")
	m := &MorrisLecar{
		neuron: newNeuron(s.Size),
		VCa:    130,
		GCa:    4.4,
		VK:     -84,
		GK:     8,
		VLeak:  -60,
		GLeak:  2,
		C:      20,
		V1:     -1.2,
		V2:     18,
		V3:     2,
		V4:     30,
		Phi:    0.04,
		VTh:    10,
	}
	m.params = paramTable{
		"V_Ca":   &m.VCa,
		"g_Ca":   &m.GCa,
		"V_K":    &m.VK,
		"g_K":    &m.GK,
		"V_leak": &m.VLeak,
		"g_leak": &m.GLeak,
		"C":      &m.C,
		"V1":     &m.V1,
		"V2":     &m.V2,
		"V3":     &m.V3,
		"V4":     &m.V4,
		"phi":    &m.Phi,
		"V_th":   &m.VTh,
	}
	m.vars = newVars(m.variable, "V", "W", "input", "spike", "t_last_spike")
	m.Reset()

	dV := equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		V, W, I := v[0], p[0], p[1]
		return []dynamo.Vec{each(len(V), func(i int) float64 {
			mInf := 0.5 * (1 + math.Tanh((V[i]-m.V1)/m.V2))
			iCa := m.GCa * mInf * (V[i] - m.VCa)
			iK := m.GK * W.At(i) * (V[i] - m.VK)
			iLeak := m.GLeak * (V[i] - m.VLeak)
			return (-iCa - iK - iLeak + I.At(i)) / m.C
		})}
	}, equation.Args("V", "t", "W", "I_ext"))

	dW := equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		W, V := v[0], p[0]
		return []dynamo.Vec{each(len(W), func(i int) float64 {
			x := V.At(i)
			tauW := 1 / (m.Phi * math.Cosh((x-m.V3)/(2*m.V4)))
			wInf := 0.5 * (1 + math.Tanh((x-m.V3)/m.V4))
			return (wInf - W[i]) / tauW
		})}
	}, equation.Args("W", "t", "V"))

	eq, err := equation.Joint(dV, dW)
	if err != nil {
		return nil, err
	}
	m.integ, err = integrators.ODEInt(eq, s.options()...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MorrisLecar) Name() string { return "morris_lecar" }

func (m *MorrisLecar) Update(t, dt float64) {
	out := m.integ.StepDt([]dynamo.Vec{m.V, m.W}, t, []dynamo.Vec{m.input}, dt)
	m.detect(m.V, out[0], m.VTh, t)
	m.V, m.W = out[0], out[1]
	m.input.SetAll(0)
}

func (m *MorrisLecar) Reset() {
	m.resetNeuron()
	m.V = make(dynamo.Vec, m.size)
	m.W = dynamo.Fill(m.size, 0.02)
}

func (m *MorrisLecar) State() []dynamo.Vec { return []dynamo.Vec{m.V, m.W} }

func (m *MorrisLecar) GetParams() map[string]float64         { return m.params.get() }
func (m *MorrisLecar) SetParam(name string, v float64) error { return m.params.set(m.Name(), name, v) }

func (m *MorrisLecar) Variables() []string                     { return m.vars.list() }
func (m *MorrisLecar) Variable(name string) (dynamo.Vec, bool) { return m.vars.lookup(name) }

func (m *MorrisLecar) variable(name string) dynamo.Vec {
	switch name {
	case "V":
		return m.V
	case "W":
		return m.W
	case "input":
		return m.input
	case "spike":
		return m.spikeVec()
	case "t_last_spike":
		return m.tLastSpike
	}
	return nil
}
