package integrators

import (
	"fmt"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
)

// Generated slot names.
func stageDeriv(v string, i int) string { return fmt.Sprintf("d%s_k%d", v, i) }
func stageArg(v string, i int) string   { return fmt.Sprintf("k%d_%s_arg", i, v) }
func stageTime(i int) string            { return fmt.Sprintf("k%d_t_arg", i) }
func newValue(v string) string          { return v + "_new" }
func errValue(v string) string          { return v + "_err" }

var dtRef = codegen.R(equation.StepName)

// keywords collects the names a generated program claims for itself.
type keywords map[string]string

func (k keywords) add(name, what string) { k[name] = what }

// check fails when an equation argument collides with a generated name.
func (k keywords) check(sig equation.Signature) error {
	for _, name := range sig.Names() {
		if what, ok := k[name]; ok {
			return dynamo.Buildf("integrator", name, dynamo.ErrReservedName, "reserved for %s", what)
		}
	}
	return nil
}

func rkKeywords(vars []string, tb Tableau) keywords {
	kw := keywords{
		equation.FuncName: "the derivative function",
		equation.StepName: "the integration step",
	}
	s := tb.Stages()
	for _, v := range vars {
		kw.add(newValue(v), "the updated value")
		if tb.Adaptive() {
			kw.add(errValue(v), "the error estimate")
		}
		for i := 1; i <= s; i++ {
			kw.add(stageDeriv(v, i), "a stage derivative")
		}
		for i := 2; i <= s; i++ {
			kw.add(stageArg(v, i), "a stage argument")
			kw.add(stageTime(i), "a stage time")
		}
	}
	return kw
}

func refs(names []string) []codegen.Expr {
	out := make([]codegen.Expr, len(names))
	for i, n := range names {
		out[i] = codegen.R(n)
	}
	return out
}

// stepInputs is the input order shared by every generated step program:
// variables, time, parameters, step size.
func stepInputs(sig equation.Signature) []string {
	in := sig.Names()
	return append(in, equation.StepName)
}

// buildRK emits the stage and update assignments of an explicit tableau.
//
// Stage i evaluates the derivative at t + C[i]*dt and
// var + dt * sum_j A[i][j]*k_j. Every stage is one call of the derivative
// function returning all variables at once, so joint equations share stage
// times and evaluations. The update is var + dt * sum_i B[i]*k_i. Zero
// coefficients are left out; a stage argument that reduces to the variable
// itself reuses the variable slot.
func buildRK(eq *equation.Equation, tb Tableau) (*codegen.Program, error) {
	if err := tb.Validate(); err != nil {
		return nil, err
	}
	sig := eq.Signature()
	if err := rkKeywords(sig.Vars, tb).check(sig); err != nil {
		return nil, err
	}

	p := &codegen.Program{Name: tb.Name, Inputs: stepInputs(sig)}
	s := tb.Stages()

	derivs := func(v string, n int) []codegen.Expr {
		out := make([]codegen.Expr, n)
		for j := range out {
			out[j] = codegen.R(stageDeriv(v, j+1))
		}
		return out
	}

	for i := 0; i < s; i++ {
		stage := i + 1
		args := make([]codegen.Expr, 0, len(sig.Vars)+len(sig.Params)+1)
		for _, v := range sig.Vars {
			arg := codegen.Combine(codegen.R(v), dtRef, tb.row(i), derivs(v, i))
			if ref, ok := arg.(codegen.Ref); ok {
				args = append(args, ref)
				continue
			}
			p.Emit(arg, stageArg(v, stage))
			args = append(args, codegen.R(stageArg(v, stage)))
		}

		var tArg codegen.Expr = codegen.R(sig.Time)
		if i > 0 && !tb.C[i].IsZero() {
			p.Emit(codegen.Sum{Terms: []codegen.Expr{codegen.R(sig.Time), codegen.Scale{C: tb.C[i], X: dtRef}}}, stageTime(stage))
			tArg = codegen.R(stageTime(stage))
		}
		args = append(args, tArg)
		args = append(args, refs(sig.Params)...)

		targets := make([]string, len(sig.Vars))
		for j, v := range sig.Vars {
			targets[j] = stageDeriv(v, stage)
		}
		p.Emit(codegen.Call{Func: equation.FuncName, Args: args}, targets...)
	}

	for _, v := range sig.Vars {
		p.Emit(codegen.Combine(codegen.R(v), dtRef, tb.B, derivs(v, s)), newValue(v))
		p.Outputs = append(p.Outputs, newValue(v))
	}

	if tb.Adaptive() {
		diff := make([]codegen.Coef, s)
		for j := range diff {
			diff[j] = tb.B[j].Sub(tb.B2[j])
		}
		for _, v := range sig.Vars {
			e, ok := codegen.Weighted(dtRef, diff, derivs(v, s))
			if !ok {
				e = codegen.Num{C: codegen.Int(0)}
			}
			p.Emit(e, errValue(v))
			p.Outputs = append(p.Outputs, errValue(v))
		}
		for _, v := range sig.Vars {
			p.Outputs = append(p.Outputs, stageDeriv(v, 1))
		}
	}
	return p, nil
}

// derivative adapts an equation to the program call convention: variables,
// then time as a length-one value, then parameters.
func derivative(eq *equation.Equation) codegen.MultiFunc {
	nv := eq.Arity()
	return func(args []dynamo.Vec) []dynamo.Vec {
		return eq.Eval(args[:nv], args[nv][0], args[nv+1:])
	}
}

// packInputs lays out step inputs in stepInputs order. extra is appended
// after the step size.
func packInputs(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64, extra ...dynamo.Vec) []dynamo.Vec {
	in := make([]dynamo.Vec, 0, len(vars)+len(params)+2+len(extra))
	in = append(in, vars...)
	in = append(in, dynamo.Vec{t})
	in = append(in, params...)
	in = append(in, dynamo.Vec{dt})
	return append(in, extra...)
}
