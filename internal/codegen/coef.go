package codegen

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

// Coef is a tableau coefficient: either an exact rational or a float
// literal. The zero value is the float 0.
type Coef struct {
	rat *big.Rat
	f   float64
}

// Frac returns the exact rational p/q. It panics if q is zero.
func Frac(p, q int64) Coef {
	if q == 0 {
		panic("codegen: zero denominator")
	}
	return Coef{rat: new(big.Rat).SetFrac64(p, q)}
}

// Int returns the exact integer n.
func Int(n int64) Coef { return Coef{rat: new(big.Rat).SetInt64(n)} }

// Float returns an inexact coefficient.
func Float(x float64) Coef { return Coef{f: x} }

// ParseCoef reads "p/q" as an exact rational, an integer literal as an
// exact integer, and anything else as a float.
func ParseCoef(s string) (Coef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Coef{}, fmt.Errorf("%w: empty coefficient", dynamo.ErrBadCoefficient)
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		p, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		q, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err1 != nil || err2 != nil || q == 0 {
			return Coef{}, fmt.Errorf("%w: %q", dynamo.ErrBadCoefficient, s)
		}
		return Frac(p, q), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n), nil
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return Coef{}, fmt.Errorf("%w: %q", dynamo.ErrBadCoefficient, s)
	}
	return Float(x), nil
}

// MustParse is like ParseCoef but panics on error.
func MustParse(s string) Coef {
	c, err := ParseCoef(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Exact reports whether the coefficient is a rational.
func (c Coef) Exact() bool { return c.rat != nil }

// Rat returns a copy of the rational value, or nil for floats.
func (c Coef) Rat() *big.Rat {
	if c.rat == nil {
		return nil
	}
	return new(big.Rat).Set(c.rat)
}

func (c Coef) IsZero() bool {
	if c.rat != nil {
		return c.rat.Sign() == 0
	}
	return c.f == 0
}

func (c Coef) IsOne() bool {
	if c.rat != nil {
		return c.rat.IsInt() && c.rat.Num().IsInt64() && c.rat.Num().Int64() == 1
	}
	return c.f == 1
}

func (c Coef) Sign() int {
	if c.rat != nil {
		return c.rat.Sign()
	}
	switch {
	case c.f > 0:
		return 1
	case c.f < 0:
		return -1
	}
	return 0
}

// Value evaluates the coefficient. A rational evaluates the way its
// rendered division expression does: float64(p) / float64(q).
func (c Coef) Value() float64 {
	if c.rat == nil {
		return c.f
	}
	num, den := c.rat.Num(), c.rat.Denom()
	if num.IsInt64() && den.IsInt64() {
		return float64(num.Int64()) / float64(den.Int64())
	}
	f, _ := c.rat.Float64()
	return f
}

func (c Coef) String() string {
	if c.rat == nil {
		return strconv.FormatFloat(c.f, 'g', -1, 64)
	}
	if c.rat.IsInt() {
		return c.rat.Num().String()
	}
	return c.rat.Num().String() + "/" + c.rat.Denom().String()
}

func (c Coef) Neg() Coef {
	if c.rat != nil {
		return Coef{rat: new(big.Rat).Neg(c.rat)}
	}
	return Coef{f: -c.f}
}

func (c Coef) Abs() Coef {
	if c.Sign() < 0 {
		return c.Neg()
	}
	return c
}

// Add, Sub, Mul and Quo stay exact when both operands are exact.

func (c Coef) Add(o Coef) Coef {
	if c.rat != nil && o.rat != nil {
		return Coef{rat: new(big.Rat).Add(c.rat, o.rat)}
	}
	return Coef{f: c.Value() + o.Value()}
}

func (c Coef) Sub(o Coef) Coef { return c.Add(o.Neg()) }

func (c Coef) Mul(o Coef) Coef {
	if c.rat != nil && o.rat != nil {
		return Coef{rat: new(big.Rat).Mul(c.rat, o.rat)}
	}
	return Coef{f: c.Value() * o.Value()}
}

// Quo returns c/o, or an error if o is zero.
func (c Coef) Quo(o Coef) (Coef, error) {
	if o.IsZero() {
		return Coef{}, fmt.Errorf("%w: division by zero", dynamo.ErrBadCoefficient)
	}
	if c.rat != nil && o.rat != nil {
		return Coef{rat: new(big.Rat).Quo(c.rat, o.rat)}, nil
	}
	return Coef{f: c.Value() / o.Value()}, nil
}

// Equal compares values; an exact and a float coefficient are equal when
// their evaluated values are.
func (c Coef) Equal(o Coef) bool {
	if c.rat != nil && o.rat != nil {
		return c.rat.Cmp(o.rat) == 0
	}
	return c.Value() == o.Value()
}

// Coefs parses a list of literals, panicking on a malformed entry. It is
// intended for static tables.
func Coefs(literals ...string) []Coef {
	out := make([]Coef, len(literals))
	for i, s := range literals {
		out[i] = MustParse(s)
	}
	return out
}
