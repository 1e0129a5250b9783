package codegen

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// Elementwise kernels. A length-one operand broadcasts against a longer
// one; every kernel allocates its result and never aliases its inputs.
// Any other length mismatch panics with an error wrapping dynamo.ErrShape.

func width(vs ...dynamo.Vec) int {
	n := 1
	for _, v := range vs {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

func broadcast(v dynamo.Vec, n int) dynamo.Vec {
	if len(v) == n {
		return v
	}
	checkLen(v, n)
	return dynamo.Fill(n, v[0])
}

func checkLen(v dynamo.Vec, n int) {
	if len(v) != 1 && len(v) != n {
		panic(fmt.Errorf("%w: operand of length %d against %d", dynamo.ErrShape, len(v), n))
	}
}

func scaled(c float64, x dynamo.Vec) dynamo.Vec {
	out := x.Clone()
	floats.Scale(c, out)
	return out
}

func product(x, y dynamo.Vec) dynamo.Vec {
	n := width(x, y)
	out := make(dynamo.Vec, n)
	floats.MulTo(out, broadcast(x, n), broadcast(y, n))
	return out
}

// linearComb returns factor * (coefs[0]*terms[0] + coefs[1]*terms[1] + ...).
func linearComb(factor dynamo.Vec, terms []evalFn, coefs []float64, slots []dynamo.Vec) dynamo.Vec {
	vals := make([]dynamo.Vec, len(terms))
	n := len(factor)
	for i, t := range terms {
		vals[i] = t(slots)
		if len(vals[i]) > n {
			n = len(vals[i])
		}
	}

	acc := make(dynamo.Vec, n)
	for i, v := range vals {
		checkLen(v, n)
		if len(v) == 1 {
			floats.AddConst(coefs[i]*v[0], acc)
			continue
		}
		floats.AddScaled(acc, coefs[i], v)
	}

	if len(factor) == 1 {
		if factor[0] != 1 {
			floats.Scale(factor[0], acc)
		}
		return acc
	}
	floats.Mul(acc, broadcast(factor, n))
	return acc
}
