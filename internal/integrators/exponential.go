package integrators

import (
	"math"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
)

const (
	linearFunc = "f_linear"
	phiFunc    = "phi"
)

func linearSlope(v string) string { return v + "_linear" }
func phiValue(v string) string    { return v + "_phi" }

// ExpEuler is the exponential Euler method. Each variable is linearized
// around the current state, x' ~ f(x) with slope a = df/dx, and advanced
// exactly for that linear system:
//
//	x_new = x + (exp(a*dt) - 1) / a * f(x)
//
// The slope is the diagonal of the Jacobian, taken by central differences
// with the other variables held fixed. It reduces to forward Euler where
// the slope vanishes.
type ExpEuler struct {
	base
}

func newExpEuler(eq *equation.Equation, o options) (*ExpEuler, error) {
	sig := eq.Signature()
	kw := keywords{
		equation.FuncName: "the derivative function",
		equation.StepName: "the integration step",
		linearFunc:        "the linearization",
		phiFunc:           "the exponential factor",
	}
	for _, v := range sig.Vars {
		kw.add(stageDeriv(v, 1), "the derivative")
		kw.add(linearSlope(v), "the linear slope")
		kw.add(phiValue(v), "the exponential factor")
		kw.add(newValue(v), "the updated value")
	}
	if err := kw.check(sig); err != nil {
		return nil, err
	}

	p := &codegen.Program{Name: o.method, Inputs: stepInputs(sig)}
	args := refs(sig.Names())
	targets := make([]string, 0, 2*len(sig.Vars))
	for _, v := range sig.Vars {
		targets = append(targets, stageDeriv(v, 1))
	}
	for _, v := range sig.Vars {
		targets = append(targets, linearSlope(v))
	}
	p.Emit(codegen.Call{Func: linearFunc, Args: args}, targets...)
	for _, v := range sig.Vars {
		p.Emit(codegen.Call{Func: phiFunc, Args: []codegen.Expr{codegen.R(linearSlope(v)), dtRef}}, phiValue(v))
	}
	for _, v := range sig.Vars {
		step := codegen.Mul{X: dtRef, Y: codegen.Mul{X: codegen.R(phiValue(v)), Y: codegen.R(stageDeriv(v, 1))}}
		p.Emit(codegen.Sum{Terms: []codegen.Expr{codegen.R(v), step}}, newValue(v))
		p.Outputs = append(p.Outputs, newValue(v))
	}

	e := &ExpEuler{base: newBase(eq, o)}
	funcs := map[string]codegen.MultiFunc{
		linearFunc: linearize(eq),
		phiFunc:    expFactor,
	}
	if err := e.finish(p, funcs, o); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *ExpEuler) Step(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
	return e.StepDt(vars, t, params, e.dt)
}

func (e *ExpEuler) StepDt(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) []dynamo.Vec {
	return e.compiled.Run(packInputs(vars, t, params, dt))
}

// linearize returns the derivatives followed by the per-variable slopes.
func linearize(eq *equation.Equation) codegen.MultiFunc {
	nv := eq.Arity()
	return func(args []dynamo.Vec) []dynamo.Vec {
		vars, t, params := args[:nv], args[nv][0], args[nv+1:]
		out := make([]dynamo.Vec, 0, 2*nv)
		out = append(out, eq.Eval(vars, t, params)...)

		probe := make([]dynamo.Vec, nv)
		copy(probe, vars)
		for i, x := range vars {
			h := make(dynamo.Vec, len(x))
			up := make(dynamo.Vec, len(x))
			down := make(dynamo.Vec, len(x))
			for j, xj := range x {
				h[j] = 1e-6 * (1 + math.Abs(xj))
				up[j] = xj + h[j]
				down[j] = xj - h[j]
			}
			probe[i] = up
			fu := eq.Eval(probe, t, params)[i]
			probe[i] = down
			fd := eq.Eval(probe, t, params)[i]
			probe[i] = x

			n := max(len(fu), len(fd), len(h))
			slope := make(dynamo.Vec, n)
			for j := range slope {
				slope[j] = (fu.At(j) - fd.At(j)) / (2 * h.At(j))
			}
			out = append(out, slope)
		}
		return out
	}
}

// expFactor computes (exp(a*dt) - 1) / (a*dt) elementwise.
func expFactor(args []dynamo.Vec) []dynamo.Vec {
	a, dt := args[0], args[1][0]
	out := make(dynamo.Vec, len(a))
	for i, ai := range a {
		z := ai * dt
		if math.Abs(z) < 1e-10 {
			out[i] = 1 + z/2
			continue
		}
		out[i] = math.Expm1(z) / z
	}
	return []dynamo.Vec{out}
}
