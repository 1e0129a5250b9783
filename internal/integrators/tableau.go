package integrators

import (
	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
)

// Tableau is a Butcher tableau. Row i of A holds the coefficients of the
// stages before stage i, so A[0] is empty. B2, when present, holds the
// weights of an embedded lower-order solution used for error control.
type Tableau struct {
	Name  string
	Order int
	A     [][]codegen.Coef
	B     []codegen.Coef
	C     []codegen.Coef
	B2    []codegen.Coef
}

// Stages is the number of derivative evaluations per step.
func (tb Tableau) Stages() int { return len(tb.B) }

// Adaptive reports whether the tableau carries embedded weights.
func (tb Tableau) Adaptive() bool { return len(tb.B2) > 0 }

// a returns A[i][j], treating missing trailing entries as zero.
func (tb Tableau) a(i, j int) codegen.Coef {
	if j < len(tb.A[i]) {
		return tb.A[i][j]
	}
	return codegen.Int(0)
}

// row returns A[i] padded with zeros to i entries.
func (tb Tableau) row(i int) []codegen.Coef {
	out := make([]codegen.Coef, i)
	for j := range out {
		out[j] = tb.a(i, j)
	}
	return out
}

// Validate checks the dimensions of the tableau and that it is explicit.
func (tb Tableau) Validate() error {
	n := len(tb.B)
	switch {
	case n == 0:
		return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau, "no stages")
	case len(tb.A) != n || len(tb.C) != n:
		return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau,
			"len(A)=%d len(B)=%d len(C)=%d", len(tb.A), n, len(tb.C))
	case tb.B2 != nil && len(tb.B2) != n:
		return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau,
			"embedded weights have %d entries, want %d", len(tb.B2), n)
	}
	if !tb.C[0].IsZero() {
		return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau, "first stage must start at t")
	}
	for i, row := range tb.A {
		if len(row) > i {
			return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau,
				"row %d has %d entries; stage %d may only use earlier stages", i, len(row), i)
		}
	}
	allZero := true
	for _, b := range tb.B {
		if !b.IsZero() {
			allZero = false
			break
		}
	}
	if allZero {
		return dynamo.Buildf("tableau", tb.Name, dynamo.ErrMalformedTableau, "all weights are zero")
	}
	return nil
}

// tab builds a tableau from coefficient literals.
func tab(name string, order int, a [][]string, b, c []string) Tableau {
	rows := make([][]codegen.Coef, len(a))
	for i, r := range a {
		rows[i] = codegen.Coefs(r...)
	}
	return Tableau{Name: name, Order: order, A: rows, B: codegen.Coefs(b...), C: codegen.Coefs(c...)}
}

func (tb Tableau) embedded(b2 ...string) Tableau {
	tb.B2 = codegen.Coefs(b2...)
	return tb
}
