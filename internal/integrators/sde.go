package integrators

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
)

const (
	diffusionFunc = "g"
	sqrtDtName    = "sqrt_dt"
)

func driftValue(v string) string      { return v + "_df" }
func diffusionValue(v string) string  { return v + "_dg" }
func barValue(v string) string        { return v + "_bar" }
func noiseInput(v string) string      { return "dW_" + v }
func noiseCorrection(v string) string { return "dW2_" + v }

// SDE integrates dx = f(x, t) dt + g(x, t) dW with diagonal noise.
//
// "euler" (Euler-Maruyama) and "milstein" (derivative-free Milstein) are
// Ito schemes; "heun" is the Stratonovich Heun scheme. An SDE holds its
// own noise source and is not safe for concurrent use.
type SDE struct {
	base
	diffusion *equation.Equation
	normal    distuv.Normal
}

// SDEInt builds a stochastic integrator from a drift and a diffusion
// equation over the same variables and time name. The integrator's
// equation carries the union of both parameter lists, drift first.
func SDEInt(f, g *equation.Equation, opts ...Option) (*SDE, error) {
	o := resolve(opts)
	if err := o.validate(f); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, dynamo.Buildf("sdeint", o.method, dynamo.ErrBuild, "nil diffusion equation")
	}
	if !isStochastic(o.method) {
		return nil, dynamo.Buildf("sdeint", o.method, dynamo.ErrUnknownMethod, "no SDE method registered")
	}

	eq, err := coupleDrift(f, g)
	if err != nil {
		return nil, err
	}
	sig := eq.Signature()
	if err := sdeKeywords(sig.Vars, o.method).check(sig); err != nil {
		return nil, err
	}

	p := &codegen.Program{Name: o.method, Inputs: stepInputs(sig)}
	for _, v := range sig.Vars {
		p.Inputs = append(p.Inputs, noiseInput(v))
	}
	if o.method == "milstein" {
		p.Inputs = append(p.Inputs, sqrtDtName)
		for _, v := range sig.Vars {
			p.Inputs = append(p.Inputs, noiseCorrection(v))
		}
	}

	fArgs := func(vars []string) []codegen.Expr {
		return append(append(refs(vars), codegen.R(sig.Time)), refs(f.Params())...)
	}
	gArgs := func(vars []string) []codegen.Expr {
		return append(append(refs(vars), codegen.R(sig.Time)), refs(g.Params())...)
	}
	suffixed := func(suffix func(string) string) []string {
		out := make([]string, len(sig.Vars))
		for i, v := range sig.Vars {
			out[i] = suffix(v)
		}
		return out
	}

	p.Emit(codegen.Call{Func: equation.FuncName, Args: fArgs(sig.Vars)}, suffixed(driftValue)...)
	p.Emit(codegen.Call{Func: diffusionFunc, Args: gArgs(sig.Vars)}, suffixed(diffusionValue)...)

	// x + dt*f + g*dW
	eulerMaruyama := func(v string) []codegen.Expr {
		return []codegen.Expr{
			codegen.R(v),
			codegen.Mul{X: dtRef, Y: codegen.R(driftValue(v))},
			codegen.Mul{X: codegen.R(diffusionValue(v)), Y: codegen.R(noiseInput(v))},
		}
	}
	half := codegen.Frac(1, 2)
	negOne := codegen.Int(-1)

	switch o.method {
	case "euler":
		for _, v := range sig.Vars {
			p.Emit(codegen.Sum{Terms: eulerMaruyama(v)}, newValue(v))
		}

	case "milstein":
		for _, v := range sig.Vars {
			p.Emit(codegen.Sum{Terms: []codegen.Expr{
				codegen.R(v),
				codegen.Mul{X: dtRef, Y: codegen.R(driftValue(v))},
				codegen.Mul{X: codegen.R(diffusionValue(v)), Y: codegen.R(sqrtDtName)},
			}}, barValue(v))
		}
		bars := suffixed(barValue)
		p.Emit(codegen.Call{Func: diffusionFunc, Args: gArgs(bars)}, suffixed(func(v string) string { return diffusionValue(barValue(v)) })...)
		for _, v := range sig.Vars {
			correction := codegen.Mul{
				X: codegen.Sum{Terms: []codegen.Expr{
					codegen.R(diffusionValue(barValue(v))),
					codegen.Scale{C: negOne, X: codegen.R(diffusionValue(v))},
				}},
				Y: codegen.R(noiseCorrection(v)),
			}
			p.Emit(codegen.Sum{Terms: append(eulerMaruyama(v), correction)}, newValue(v))
		}

	case "heun":
		for _, v := range sig.Vars {
			p.Emit(codegen.Sum{Terms: eulerMaruyama(v)}, barValue(v))
		}
		bars := suffixed(barValue)
		p.Emit(codegen.Call{Func: equation.FuncName, Args: fArgs(bars)}, suffixed(func(v string) string { return driftValue(barValue(v)) })...)
		p.Emit(codegen.Call{Func: diffusionFunc, Args: gArgs(bars)}, suffixed(func(v string) string { return diffusionValue(barValue(v)) })...)
		for _, v := range sig.Vars {
			drift := codegen.Mul{X: dtRef, Y: codegen.Sum{Terms: []codegen.Expr{
				codegen.Scale{C: half, X: codegen.R(driftValue(v))},
				codegen.Scale{C: half, X: codegen.R(driftValue(barValue(v)))},
			}}}
			noise := codegen.Mul{
				X: codegen.Sum{Terms: []codegen.Expr{
					codegen.Scale{C: half, X: codegen.R(diffusionValue(v))},
					codegen.Scale{C: half, X: codegen.R(diffusionValue(barValue(v)))},
				}},
				Y: codegen.R(noiseInput(v)),
			}
			p.Emit(codegen.Sum{Terms: []codegen.Expr{codegen.R(v), drift, noise}}, newValue(v))
		}
	}
	p.Outputs = suffixed(newValue)

	s := &SDE{
		base:      newBase(eq, o),
		diffusion: g,
		normal:    distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)},
	}
	funcs := map[string]codegen.MultiFunc{
		equation.FuncName: derivative(f),
		diffusionFunc:     derivative(g),
	}
	if err := s.finish(p, funcs, o); err != nil {
		return nil, err
	}
	return s, nil
}

// coupleDrift checks that f and g describe the same variables and returns
// the drift rebound to the merged parameter list.
func coupleDrift(f, g *equation.Equation) (*equation.Equation, error) {
	fv, gv := f.Vars(), g.Vars()
	if len(fv) != len(gv) {
		return nil, dynamo.Buildf("sdeint", "", dynamo.ErrShape,
			"drift has %d variables, diffusion has %d", len(fv), len(gv))
	}
	for i := range fv {
		if fv[i] != gv[i] {
			return nil, dynamo.Buildf("sdeint", gv[i], dynamo.ErrBuild,
				"diffusion variable %d is %q, drift names it %q", i, gv[i], fv[i])
		}
	}
	if f.Time() != g.Time() {
		return nil, dynamo.Buildf("sdeint", g.Time(), dynamo.ErrBuild,
			"diffusion names time %q, drift names it %q", g.Time(), f.Time())
	}

	params := f.Params()
	for _, p := range g.Params() {
		if f.ParamIndex(p) < 0 {
			params = append(params, p)
		}
	}
	if len(params) == f.NumParams() {
		return f, nil
	}

	nf := f.NumParams()
	return equation.New(func(vars []dynamo.Vec, t float64, ps []dynamo.Vec) []dynamo.Vec {
		return f.Eval(vars, t, ps[:nf])
	}, equation.Signature{Vars: fv, Time: f.Time(), Params: params})
}

func sdeKeywords(vars []string, method string) keywords {
	kw := keywords{
		equation.FuncName: "the drift function",
		diffusionFunc:     "the diffusion function",
		equation.StepName: "the integration step",
	}
	if method == "milstein" {
		kw.add(sqrtDtName, "the square root of the step")
	}
	for _, v := range vars {
		kw.add(driftValue(v), "the drift")
		kw.add(diffusionValue(v), "the diffusion")
		kw.add(noiseInput(v), "the Wiener increment")
		kw.add(newValue(v), "the updated value")
		if method != "euler" {
			kw.add(barValue(v), "the predictor")
			kw.add(diffusionValue(barValue(v)), "the predicted diffusion")
		}
		if method == "heun" {
			kw.add(driftValue(barValue(v)), "the predicted drift")
		}
		if method == "milstein" {
			kw.add(noiseCorrection(v), "the Milstein correction")
		}
	}
	return kw
}

// Diffusion returns the diffusion equation.
func (s *SDE) Diffusion() *equation.Equation { return s.diffusion }

// Step draws Wiener increments with variance dt and advances one step.
func (s *SDE) Step(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
	return s.StepDt(vars, t, params, s.dt)
}

func (s *SDE) StepDt(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) []dynamo.Vec {
	sq := math.Sqrt(dt)
	dW := make([]dynamo.Vec, len(vars))
	for i, v := range vars {
		dW[i] = make(dynamo.Vec, len(v))
		for j := range dW[i] {
			dW[i][j] = sq * s.normal.Rand()
		}
	}
	return s.StepNoise(vars, t, params, dt, dW)
}

// StepNoise advances one step with caller-supplied Wiener increments, one
// per variable.
func (s *SDE) StepNoise(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64, dW []dynamo.Vec) []dynamo.Vec {
	extra := dW
	if s.method == "milstein" {
		sq := math.Sqrt(dt)
		extra = make([]dynamo.Vec, 0, 2*len(dW)+1)
		extra = append(extra, dW...)
		extra = append(extra, dynamo.Vec{sq})
		for _, w := range dW {
			c := make(dynamo.Vec, len(w))
			if sq > 0 {
				for j, x := range w {
					c[j] = (x*x - dt) / (2 * sq)
				}
			}
			extra = append(extra, c)
		}
	}
	return s.compiled.Run(packInputs(vars, t, params, dt, extra...))
}
