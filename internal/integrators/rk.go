package integrators

import (
	"math"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
)

// RK is a fixed-step explicit Runge-Kutta integrator compiled from a
// tableau. It is safe for concurrent use as long as SetDt is not called
// concurrently with a step.
type RK struct {
	base
	tableau Tableau
}

func newRK(eq *equation.Equation, o options) (*RK, error) {
	tb, err := tableauFor(o)
	if err != nil {
		return nil, err
	}
	r := &RK{base: newBase(eq, o), tableau: tb}
	if err := r.build(tb, o); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RK) build(tb Tableau, o options) error {
	p, err := buildRK(r.eq, tb)
	if err != nil {
		return err
	}
	return r.finish(p, map[string]codegen.MultiFunc{equation.FuncName: derivative(r.eq)}, o)
}

// Tableau returns a copy of the tableau the integrator was built from.
func (r *RK) Tableau() Tableau { return r.tableau.clone() }

func (r *RK) Step(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
	return r.StepDt(vars, t, params, r.dt)
}

func (r *RK) StepDt(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) []dynamo.Vec {
	out := r.compiled.Run(packInputs(vars, t, params, dt))
	return out[:r.eq.Arity()]
}

// Adaptive is an embedded Runge-Kutta pair with step-size control. Step
// and StepDt take one fixed step with the higher-order weights;
// StepAdaptive also estimates the local error and proposes the next step.
type Adaptive struct {
	RK
	tol        float64
	safety     float64
	minScale   float64
	maxScale   float64
	maxRejects int
}

func newAdaptive(eq *equation.Equation, o options) (*Adaptive, error) {
	tb, err := tableauFor(o)
	if err != nil {
		return nil, err
	}
	a := &Adaptive{
		RK:         RK{base: newBase(eq, o), tableau: tb},
		tol:        o.tol,
		safety:     0.9,
		minScale:   0.2,
		maxScale:   10.0,
		maxRejects: 12,
	}
	if err := a.build(tb, o); err != nil {
		return nil, err
	}
	return a, nil
}

// Tolerance is the local error tolerance.
func (a *Adaptive) Tolerance() float64 { return a.tol }

// StepAdaptive advances by at most dt. A step whose error exceeds the
// tolerance is retried with a smaller step; used is the step actually
// taken and next the proposal for the following one. After maxRejects
// retries the last attempt is returned with ok false: its error is
// still above the tolerance.
func (a *Adaptive) StepAdaptive(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) (out []dynamo.Vec, used, next float64, ok bool) {
	n := a.eq.Arity()
	for attempt := 0; ; attempt++ {
		res := a.compiled.Run(packInputs(vars, t, params, dt))
		ratio := a.errorRatio(vars, res[n:2*n], res[2*n:], dt)
		next = a.propose(dt, ratio)
		if ratio <= 1 {
			return res[:n], dt, next, true
		}
		if attempt >= a.maxRejects {
			return res[:n], dt, next, false
		}
		dt = next
	}
}

// errorRatio is the largest scaled local error divided by the tolerance.
func (a *Adaptive) errorRatio(vars, errs, k1 []dynamo.Vec, dt float64) float64 {
	errMax := 0.0
	for i, e := range errs {
		n := max(len(e), len(vars[i]), len(k1[i]))
		for j := 0; j < n; j++ {
			scale := math.Abs(vars[i].At(j)) + math.Abs(dt*k1[i].At(j)) + 1e-10
			errMax = math.Max(errMax, math.Abs(e.At(j))/scale)
		}
	}
	return errMax / a.tol
}

func (a *Adaptive) propose(dt, ratio float64) float64 {
	p := float64(a.tableau.Order)
	switch {
	case math.IsNaN(ratio):
		return dt * a.minScale
	case ratio > 1:
		return dt * math.Max(a.minScale, a.safety*math.Pow(ratio, -1/math.Max(p-1, 1)))
	case ratio > 0:
		return dt * math.Min(a.maxScale, a.safety*math.Pow(ratio, -1/p))
	}
	return dt * a.maxScale
}
