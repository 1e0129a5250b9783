package codegen

import (
	"fmt"
	"strings"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// MultiFunc is a function a program may call. It receives the evaluated
// call arguments and returns one value per assignment target.
type MultiFunc func(args []dynamo.Vec) []dynamo.Vec

// Program is an ordered list of assignments over named slots.
type Program struct {
	Name    string
	Inputs  []string
	Stmts   []Assign
	Outputs []string
}

// Emit appends an assignment.
func (p *Program) Emit(value Expr, targets ...string) {
	p.Stmts = append(p.Stmts, Assign{Targets: targets, Value: value})
}

// Source renders the program as readable pseudo-Go.
func (p *Program) Source() string {
	var b strings.Builder
	name := p.Name
	if name == "" {
		name = "integral"
	}
	fmt.Fprintf(&b, "func %s(%s) {\n", name, strings.Join(p.Inputs, ", "))
	for _, s := range p.Stmts {
		b.WriteString("\t")
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\treturn %s\n}\n", strings.Join(p.Outputs, ", "))
	return b.String()
}

// evalFn computes one value from the slot table.
type evalFn func(slots []dynamo.Vec) dynamo.Vec

type step struct {
	targets []int
	single  evalFn
	call    MultiFunc
	args    []evalFn
}

// Compiled is a program with every name resolved to a slot index. It is
// safe for concurrent use: each Run works on its own slot table.
type Compiled struct {
	source   string
	inputs   int
	numSlots int
	steps    []step
	outputs  []int
}

// Compile resolves names once. Every reference must name an input or an
// earlier assignment, no slot may be assigned twice, and every called
// function must be present in funcs.
func (p *Program) Compile(funcs map[string]MultiFunc) (*Compiled, error) {
	slots := make(map[string]int, len(p.Inputs)+len(p.Stmts))
	for _, in := range p.Inputs {
		if _, dup := slots[in]; dup {
			return nil, dynamo.Buildf("compile", in, dynamo.ErrDuplicateVar, "input declared twice")
		}
		slots[in] = len(slots)
	}

	c := &Compiled{source: p.Source(), inputs: len(p.Inputs)}
	for _, stmt := range p.Stmts {
		if len(stmt.Targets) == 0 {
			return nil, dynamo.Buildf("compile", "", dynamo.ErrBuild, "assignment without target")
		}

		var st step
		if call, ok := stmt.Value.(Call); ok {
			fn, ok := funcs[call.Func]
			if !ok || fn == nil {
				return nil, dynamo.Buildf("compile", call.Func, dynamo.ErrBuild, "unknown function")
			}
			st.call = fn
			for _, a := range call.Args {
				ev, err := compileExpr(a, slots)
				if err != nil {
					return nil, err
				}
				st.args = append(st.args, ev)
			}
		} else {
			if len(stmt.Targets) != 1 {
				return nil, dynamo.Buildf("compile", stmt.Targets[0], dynamo.ErrBuild,
					"%d targets for a single-valued expression", len(stmt.Targets))
			}
			ev, err := compileExpr(stmt.Value, slots)
			if err != nil {
				return nil, err
			}
			st.single = ev
		}

		for _, t := range stmt.Targets {
			if _, dup := slots[t]; dup {
				return nil, dynamo.Buildf("compile", t, dynamo.ErrReservedName, "slot assigned twice")
			}
			slots[t] = len(slots)
			st.targets = append(st.targets, slots[t])
		}
		c.steps = append(c.steps, st)
	}

	for _, out := range p.Outputs {
		idx, ok := slots[out]
		if !ok {
			return nil, dynamo.Buildf("compile", out, dynamo.ErrBuild, "unresolved output")
		}
		c.outputs = append(c.outputs, idx)
	}
	c.numSlots = len(slots)
	return c, nil
}

func compileExpr(e Expr, slots map[string]int) (evalFn, error) {
	switch n := e.(type) {
	case Ref:
		idx, ok := slots[n.Name]
		if !ok {
			return nil, dynamo.Buildf("compile", n.Name, dynamo.ErrBuild, "unresolved name")
		}
		return func(s []dynamo.Vec) dynamo.Vec { return s[idx] }, nil

	case Num:
		v := dynamo.Vec{n.C.Value()}
		return func([]dynamo.Vec) dynamo.Vec { return v }, nil

	case Scale:
		x, err := compileExpr(n.X, slots)
		if err != nil {
			return nil, err
		}
		c := n.C.Value()
		return func(s []dynamo.Vec) dynamo.Vec { return scaled(c, x(s)) }, nil

	case Mul:
		x, err := compileExpr(n.X, slots)
		if err != nil {
			return nil, err
		}
		y, err := compileExpr(n.Y, slots)
		if err != nil {
			return nil, err
		}
		// dt * (linear combination) is the common shape; fuse the scale
		// into the accumulation.
		if sum, ok := n.Y.(Sum); ok {
			terms, coefs, err := compileTerms(sum, slots)
			if err != nil {
				return nil, err
			}
			return func(s []dynamo.Vec) dynamo.Vec { return linearComb(x(s), terms, coefs, s) }, nil
		}
		return func(s []dynamo.Vec) dynamo.Vec { return product(x(s), y(s)) }, nil

	case Sum:
		if len(n.Terms) == 0 {
			zero := dynamo.Vec{0}
			return func([]dynamo.Vec) dynamo.Vec { return zero }, nil
		}
		terms, coefs, err := compileTerms(n, slots)
		if err != nil {
			return nil, err
		}
		one := dynamo.Vec{1}
		return func(s []dynamo.Vec) dynamo.Vec { return linearComb(one, terms, coefs, s) }, nil

	case Call:
		return nil, dynamo.Buildf("compile", n.Func, dynamo.ErrBuild, "call nested inside an expression")
	}
	return nil, dynamo.Buildf("compile", fmt.Sprintf("%T", e), dynamo.ErrBuild, "unsupported node")
}

// compileTerms splits a sum into (coefficient, operand) pairs so scaled
// terms accumulate without temporaries.
func compileTerms(sum Sum, slots map[string]int) ([]evalFn, []float64, error) {
	terms := make([]evalFn, len(sum.Terms))
	coefs := make([]float64, len(sum.Terms))
	for i, t := range sum.Terms {
		operand, c := t, 1.0
		if sc, ok := t.(Scale); ok {
			operand, c = sc.X, sc.C.Value()
		}
		ev, err := compileExpr(operand, slots)
		if err != nil {
			return nil, nil, err
		}
		terms[i] = ev
		coefs[i] = c
	}
	return terms, coefs, nil
}

// Run evaluates the program. inputs must follow Program.Inputs order.
func (c *Compiled) Run(inputs []dynamo.Vec) []dynamo.Vec {
	slots := make([]dynamo.Vec, c.numSlots)
	copy(slots, inputs[:c.inputs])
	for _, st := range c.steps {
		if st.call == nil {
			slots[st.targets[0]] = st.single(slots)
			continue
		}
		args := make([]dynamo.Vec, len(st.args))
		for i, a := range st.args {
			args[i] = a(slots)
		}
		outs := st.call(args)
		for i, t := range st.targets {
			slots[t] = outs[i]
		}
	}
	out := make([]dynamo.Vec, len(c.outputs))
	for i, idx := range c.outputs {
		out[i] = slots[idx]
	}
	return out
}

// Source returns the rendered program the Compiled value came from.
func (c *Compiled) Source() string { return c.source }

// NumSteps is the number of compiled assignments.
func (c *Compiled) NumSteps() int { return len(c.steps) }
