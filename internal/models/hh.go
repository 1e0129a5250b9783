package models

import (
	"math"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/integrators"
)

// HH is a population of Hodgkin-Huxley neurons. The membrane potential
// and the three gating variables are integrated as one joint equation.
type HH struct {
	neuron
	ENa, GNa float64
	EK, GK   float64
	EL, GL   float64
	C, VTh   float64

	V, M, H, N dynamo.Vec

	params paramTable
	vars   vars
}

func NewHH(s Settings) (*HH, error) {
	s = s.withDefaults("exp_euler")
	m := &HH{
		neuron: newNeuron(s.Size),
		ENa:    50,
		GNa:    120,
		EK:     -77,
		GK:     36,
		EL:     -54.387,
		GL:     0.03,
		C:      1,
		VTh:    20,
	}
	m.params = paramTable{
		"ENa":  &m.ENa,
		"gNa":  &m.GNa,
		"EK":   &m.EK,
		"gK":   &m.GK,
		"EL":   &m.EL,
		"gL":   &m.GL,
		"C":    &m.C,
		"V_th": &m.VTh,
	}
	m.vars = newVars(m.variable, "V", "m", "h", "n", "input", "spike", "t_last_spike")
	m.Reset()

	eq, err := equation.Joint(m.dV(), m.gate("m", alphaM, betaM), m.gate("h", alphaH, betaH), m.gate("n", alphaN, betaN))
	if err != nil {
		return nil, err
	}
	m.integ, err = integrators.ODEInt(eq, s.options()...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func alphaM(v float64) float64 { return 0.1 * vtrap(-(v+40), 10) }
func betaM(v float64) float64  { return 4.0 * math.Exp(-(v+65)/18) }
func alphaH(v float64) float64 { return 0.07 * math.Exp(-(v+65)/20) }
func betaH(v float64) float64  { return 1 / (1 + math.Exp(-(v+35)/10)) }
func alphaN(v float64) float64 { return 0.01 * vtrap(-(v+55), 10) }
func betaN(v float64) float64  { return 0.125 * math.Exp(-(v+65)/80) }

func steady(alpha, beta func(float64) float64, v float64) float64 {
	a := alpha(v)
	return a / (a + beta(v))
}

// current is the net membrane current at v with every gate at its
// steady state.
func (m *HH) current(v float64) float64 {
	mi, hi, ni := steady(alphaM, betaM, v), steady(alphaH, betaH, v), steady(alphaN, betaN, v)
	iNa := m.GNa * mi * mi * mi * hi * (v - m.ENa)
	iK := m.GK * ni * ni * ni * ni * (v - m.EK)
	return -iNa - iK - m.GL*(v-m.EL)
}

// rest bisects for the resting potential on [-90, -50] mV, where the
// steady-state current is monotone. About -70.68 mV for the defaults.
func (m *HH) rest() (v, mInf, hInf, nInf float64) {
	lo, hi := -90.0, -50.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if m.current(lo)*m.current(mid) <= 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	v = (lo + hi) / 2
	return v, steady(alphaM, betaM, v), steady(alphaH, betaH, v), steady(alphaN, betaN, v)
}

func (m *HH) dV() *equation.Equation {
	return equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		V, gm, gh, gn, I := v[0], p[0], p[1], p[2], p[3]
		return []dynamo.Vec{each(len(V), func(i int) float64 {
			mi, hi, ni := gm.At(i), gh.At(i), gn.At(i)
			iNa := m.GNa * mi * mi * mi * hi * (V[i] - m.ENa)
			iK := m.GK * ni * ni * ni * ni * (V[i] - m.EK)
			iLeak := m.GL * (V[i] - m.EL)
			return (-iNa - iK - iLeak + I.At(i)) / m.C
		})}
	}, equation.Args("V", "t", "m", "h", "n", "I_ext"))
}

// gate builds dx/dt = alpha(V)(1-x) - beta(V)x.
func (m *HH) gate(name string, alpha, beta func(float64) float64) *equation.Equation {
	return equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		x, V := v[0], p[0]
		return []dynamo.Vec{each(len(x), func(i int) float64 {
			a, b := alpha(V.At(i)), beta(V.At(i))
			return a*(1-x[i]) - b*x[i]
		})}
	}, equation.Args(name, "t", "V"))
}

func (m *HH) Name() string { return "hh" }

func (m *HH) Update(t, dt float64) {
	out := m.integ.StepDt([]dynamo.Vec{m.V, m.M, m.H, m.N}, t, []dynamo.Vec{m.input}, dt)
	m.detect(m.V, out[0], m.VTh, t)
	m.V, m.M, m.H, m.N = out[0], out[1], out[2], out[3]
	m.input.SetAll(0)
}

func (m *HH) Reset() {
	m.resetNeuron()
	v, mi, hi, ni := m.rest()
	m.V = dynamo.Fill(m.size, v)
	m.M = dynamo.Fill(m.size, mi)
	m.H = dynamo.Fill(m.size, hi)
	m.N = dynamo.Fill(m.size, ni)
}

func (m *HH) State() []dynamo.Vec { return []dynamo.Vec{m.V, m.M, m.H, m.N} }

func (m *HH) GetParams() map[string]float64         { return m.params.get() }
func (m *HH) SetParam(name string, v float64) error { return m.params.set(m.Name(), name, v) }

func (m *HH) Variables() []string                     { return m.vars.list() }
func (m *HH) Variable(name string) (dynamo.Vec, bool) { return m.vars.lookup(name) }

func (m *HH) variable(name string) dynamo.Vec {
	switch name {
	case "V":
		return m.V
	case "m":
		return m.M
	case "h":
		return m.H
	case "n":
		return m.N
	case "input":
		return m.input
	case "spike":
		return m.spikeVec()
	case "t_last_spike":
		return m.tLastSpike
	}
	return nil
}
