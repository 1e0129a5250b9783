package codegen

import (
	"strings"
)

// Expr is a node of a stage program.
type Expr interface {
	String() string
	walk(fn func(Expr))
}

// Ref names a slot: an input or an earlier assignment.
type Ref struct{ Name string }

// Num is a scalar constant.
type Num struct{ C Coef }

// Sum adds its terms elementwise.
type Sum struct{ Terms []Expr }

// Scale multiplies X by a constant coefficient.
type Scale struct {
	C Coef
	X Expr
}

// Mul multiplies two expressions elementwise.
type Mul struct{ X, Y Expr }

// Call invokes a named multi-output function. It may only appear as the
// whole value of an [Assign].
type Call struct {
	Func string
	Args []Expr
}

// Assign binds the value of an expression to one or more new slots.
type Assign struct {
	Targets []string
	Value   Expr
}

func R(name string) Ref { return Ref{Name: name} }

func (r Ref) String() string       { return r.Name }
func (r Ref) walk(fn func(Expr))   { fn(r) }
func (n Num) String() string       { return n.C.String() }
func (n Num) walk(fn func(Expr))   { fn(n) }
func (s Scale) walk(fn func(Expr)) { fn(s); s.X.walk(fn) }
func (m Mul) walk(fn func(Expr))   { fn(m); m.X.walk(fn); m.Y.walk(fn) }

func (s Sum) walk(fn func(Expr)) {
	fn(s)
	for _, t := range s.Terms {
		t.walk(fn)
	}
}

func (c Call) walk(fn func(Expr)) {
	fn(c)
	for _, a := range c.Args {
		a.walk(fn)
	}
}

func (s Scale) String() string {
	if s.C.IsOne() {
		return s.X.String()
	}
	return s.C.String() + " * " + group(s.X)
}

func (m Mul) String() string {
	return group(m.X) + " * " + group(m.Y)
}

func (s Sum) String() string {
	if len(s.Terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range s.Terms {
		if i == 0 {
			b.WriteString(t.String())
			continue
		}
		if sc, ok := t.(Scale); ok && sc.C.Sign() < 0 {
			b.WriteString(" - ")
			b.WriteString(Scale{C: sc.C.Abs(), X: sc.X}.String())
			continue
		}
		b.WriteString(" + ")
		b.WriteString(t.String())
	}
	return b.String()
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Func + "(" + strings.Join(args, ", ") + ")"
}

func (a Assign) String() string {
	return strings.Join(a.Targets, ", ") + " := " + a.Value.String()
}

// group parenthesizes compound sums so products render unambiguously.
func group(e Expr) string {
	if s, ok := e.(Sum); ok && len(s.Terms) > 1 {
		return "(" + s.String() + ")"
	}
	return e.String()
}

// Refs lists every slot name an expression reads, in first-use order.
func Refs(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	e.walk(func(n Expr) {
		if r, ok := n.(Ref); ok && !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	})
	return out
}

// Weighted builds step * (c_0*x_0 + c_1*x_1 + ...), dropping zero
// coefficients. ok is false when every coefficient is zero.
func Weighted(step Expr, coefs []Coef, xs []Expr) (e Expr, ok bool) {
	var terms []Expr
	for i, c := range coefs {
		if c.IsZero() {
			continue
		}
		terms = append(terms, Scale{C: c, X: xs[i]})
	}
	switch len(terms) {
	case 0:
		return nil, false
	case 1:
		return Mul{X: step, Y: terms[0]}, true
	}
	return Mul{X: step, Y: Sum{Terms: terms}}, true
}

// Combine builds base + step * (c_0*x_0 + c_1*x_1 + ...). With no
// surviving terms it returns base alone.
func Combine(base Expr, step Expr, coefs []Coef, xs []Expr) Expr {
	w, ok := Weighted(step, coefs, xs)
	if !ok {
		return base
	}
	return Sum{Terms: []Expr{base, w}}
}
