package equation

import (
	"unicode"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// DefaultTime is the argument name [Args] treats as the time argument.
const DefaultTime = "t"

// Reserved names that no variable, parameter or time argument may use.
const (
	StepName = "dt"
	FuncName = "f"
)

// Func evaluates derivatives. vars holds the state values in Signature.Vars
// order and params the values in Signature.Params order; the result has one
// entry per variable, in the same order.
type Func func(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec

// Signature is the ordered argument schema of a derivative function.
type Signature struct {
	Vars   []string
	Time   string
	Params []string
}

// Args builds a Signature from a positional argument list: names before
// the first "t" are state variables, names after it are parameters.
//
//	equation.Args("V", "t", "m", "h", "n", "I")
func Args(names ...string) Signature {
	for i, n := range names {
		if n == DefaultTime {
			return Signature{
				Vars:   append([]string(nil), names[:i]...),
				Time:   DefaultTime,
				Params: append([]string(nil), names[i+1:]...),
			}
		}
	}
	return Signature{Vars: append([]string(nil), names...)}
}

// Names returns vars, time and params in call order.
func (s Signature) Names() []string {
	out := make([]string, 0, len(s.Vars)+len(s.Params)+1)
	out = append(out, s.Vars...)
	out = append(out, s.Time)
	return append(out, s.Params...)
}

// Equation is a derivative function bound to its argument schema. It is
// immutable once built.
type Equation struct {
	sig     Signature
	f       Func
	members []*Equation
}

// New binds f to sig after checking the schema.
func New(f Func, sig Signature) (*Equation, error) {
	if f == nil {
		return nil, dynamo.Buildf("equation", "", dynamo.ErrBuild, "nil derivative function")
	}
	sig = Signature{
		Vars:   append([]string(nil), sig.Vars...),
		Time:   sig.Time,
		Params: append([]string(nil), sig.Params...),
	}
	if err := checkSignature(sig); err != nil {
		return nil, err
	}
	return &Equation{sig: sig, f: f}, nil
}

// MustNew is like New but panics on error. It is meant for package-level
// model definitions whose schema is fixed at compile time.
func MustNew(f Func, sig Signature) *Equation {
	eq, err := New(f, sig)
	if err != nil {
		panic(err)
	}
	return eq
}

func checkSignature(sig Signature) error {
	if len(sig.Vars) == 0 {
		return dynamo.Buildf("equation", "", dynamo.ErrBuild, "no state variable declared")
	}
	if sig.Time == "" {
		return dynamo.Buildf("equation", "", dynamo.ErrBuild, "no time argument declared")
	}
	seen := make(map[string]bool, len(sig.Vars)+len(sig.Params)+1)
	for _, name := range sig.Names() {
		if !isIdentifier(name) {
			return dynamo.Buildf("equation", name, dynamo.ErrBuild, "not a valid identifier")
		}
		if name == StepName || name == FuncName {
			return dynamo.Buildf("equation", name, dynamo.ErrReservedName, "reserved for the integrator")
		}
		if seen[name] {
			return dynamo.Buildf("equation", name, dynamo.ErrDuplicateVar, "argument declared twice")
		}
		seen[name] = true
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func (e *Equation) Signature() Signature {
	return Signature{
		Vars:   append([]string(nil), e.sig.Vars...),
		Time:   e.sig.Time,
		Params: append([]string(nil), e.sig.Params...),
	}
}

func (e *Equation) Vars() []string   { return append([]string(nil), e.sig.Vars...) }
func (e *Equation) Params() []string { return append([]string(nil), e.sig.Params...) }
func (e *Equation) Time() string     { return e.sig.Time }
func (e *Equation) Arity() int       { return len(e.sig.Vars) }
func (e *Equation) NumParams() int   { return len(e.sig.Params) }

// IsJoint reports whether the equation was assembled by [Joint].
func (e *Equation) IsJoint() bool { return len(e.members) > 0 }

// Members returns the joint members, or nil for a plain equation.
func (e *Equation) Members() []*Equation {
	return append([]*Equation(nil), e.members...)
}

// Eval calls the derivative function.
func (e *Equation) Eval(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
	return e.f(vars, t, params)
}

// Func returns the underlying derivative function.
func (e *Equation) Func() Func { return e.f }

// VarIndex returns the position of a state variable, or -1.
func (e *Equation) VarIndex(name string) int {
	for i, v := range e.sig.Vars {
		if v == name {
			return i
		}
	}
	return -1
}

// ParamIndex returns the position of a parameter, or -1.
func (e *Equation) ParamIndex(name string) int {
	for i, p := range e.sig.Params {
		if p == name {
			return i
		}
	}
	return -1
}
