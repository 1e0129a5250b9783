package codegen

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

func TestParseCoef(t *testing.T) {
	tests := []struct {
		in    string
		exact bool
		str   string
		value float64
	}{
		{"2/3", true, "2/3", 2.0 / 3.0},
		{" 1 / 2 ", true, "1/2", 0.5},
		{"4/2", true, "2", 2},
		{"-3/8", true, "-3/8", -0.375},
		{"1", true, "1", 1},
		{"0", true, "0", 0},
		{"0.5", false, "0.5", 0.5},
		{"0.1746", false, "0.1746", 0.1746},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCoef(tt.in)
			if err != nil {
				t.Fatalf("ParseCoef(%q): %v", tt.in, err)
			}
			if c.Exact() != tt.exact {
				t.Errorf("Exact() = %v, want %v", c.Exact(), tt.exact)
			}
			if c.String() != tt.str {
				t.Errorf("String() = %q, want %q", c.String(), tt.str)
			}
			if c.Value() != tt.value {
				t.Errorf("Value() = %v, want %v", c.Value(), tt.value)
			}
		})
	}
}

func TestParseCoefErrors(t *testing.T) {
	for _, in := range []string{"", "1/0", "a/b", "x", "NaN", "1/2/3"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCoef(in)
			if !errors.Is(err, dynamo.ErrBadCoefficient) {
				t.Errorf("ParseCoef(%q) error = %v, want ErrBadCoefficient", in, err)
			}
		})
	}
}

func TestCoefArithmeticStaysExact(t *testing.T) {
	sum := Frac(1, 6).Add(Frac(1, 3)).Add(Frac(1, 3)).Add(Frac(1, 6))
	if !sum.Exact() || !sum.IsOne() {
		t.Errorf("1/6+1/3+1/3+1/6 = %v, want exact 1", sum)
	}

	q, err := Frac(1, 2).Quo(Frac(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !q.Equal(Frac(3, 4)) {
		t.Errorf("(1/2)/(2/3) = %v, want 3/4", q)
	}
	if _, err := Int(1).Quo(Int(0)); !errors.Is(err, dynamo.ErrBadCoefficient) {
		t.Errorf("expected ErrBadCoefficient on zero division, got %v", err)
	}

	mixed := Frac(1, 2).Add(Float(0.25))
	if mixed.Exact() || mixed.Value() != 0.75 {
		t.Errorf("mixed sum = %v (exact=%v)", mixed, mixed.Exact())
	}
}

func TestCombineRendering(t *testing.T) {
	k := []Expr{R("dV_k1"), R("dV_k2"), R("dV_k3")}

	tests := []struct {
		name  string
		coefs []Coef
		want  string
	}{
		{"single", Coefs("1/2", "0", "0"), "V + dt * 1/2 * dV_k1"},
		{"unit", Coefs("1", "0", "0"), "V + dt * dV_k1"},
		{"skip zero", Coefs("1/6", "0", "2/3"), "V + dt * (1/6 * dV_k1 + 2/3 * dV_k3)"},
		{"negative", Coefs("-1", "2", "0"), "V + dt * (-1 * dV_k1 + 2 * dV_k2)"},
		{"negative tail", Coefs("1", "-1/2", "0"), "V + dt * (dV_k1 - 1/2 * dV_k2)"},
		{"all zero", Coefs("0", "0", "0"), "V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(R("V"), R("dt"), tt.coefs, k).String()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefsFirstUseOrder(t *testing.T) {
	e := Sum{Terms: []Expr{R("V"), Mul{X: R("dt"), Y: Sum{Terms: []Expr{R("k1"), Scale{C: Int(2), X: R("V")}}}}}}
	got := Refs(e)
	want := []string{"V", "dt", "k1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Refs = %v, want %v", got, want)
	}
}

// eulerProgram is V_new := V + dt * f(V, t).
func eulerProgram() *Program {
	p := &Program{Name: "euler", Inputs: []string{"V", "t", "dt"}, Outputs: []string{"V_new"}}
	p.Emit(Call{Func: "f", Args: []Expr{R("V"), R("t")}}, "dV_k1")
	p.Emit(Combine(R("V"), R("dt"), Coefs("1"), []Expr{R("dV_k1")}), "V_new")
	return p
}

func TestCompileAndRun(t *testing.T) {
	funcs := map[string]MultiFunc{
		"f": func(args []dynamo.Vec) []dynamo.Vec {
			v := args[0]
			out := make(dynamo.Vec, len(v))
			for i := range v {
				out[i] = -2 * v[i]
			}
			return []dynamo.Vec{out}
		},
	}

	c, err := eulerProgram().Compile(funcs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if c.NumSteps() != 2 {
		t.Errorf("NumSteps = %d, want 2", c.NumSteps())
	}

	out := c.Run([]dynamo.Vec{{1, 2, 3}, {0}, {0.1}})
	want := []float64{0.8, 1.6, 2.4}
	for i, w := range want {
		if math.Abs(out[0][i]-w) > 1e-12 {
			t.Errorf("V_new[%d] = %v, want %v", i, out[0][i], w)
		}
	}

	src := c.Source()
	if !strings.Contains(src, "dV_k1 := f(V, t)") || !strings.Contains(src, "return V_new") {
		t.Errorf("unexpected source:\n%s", src)
	}
}

func TestRunBroadcastsScalars(t *testing.T) {
	p := &Program{Inputs: []string{"x", "s"}, Outputs: []string{"y"}}
	p.Emit(Sum{Terms: []Expr{R("x"), Scale{C: Frac(1, 2), X: R("s")}}}, "y")
	c, err := p.Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	out := c.Run([]dynamo.Vec{{1, 2}, {4}})
	if out[0][0] != 3 || out[0][1] != 4 {
		t.Errorf("y = %v, want [3 4]", out[0])
	}

	// Inputs must not be mutated by evaluation.
	x := dynamo.Vec{1, 2}
	c.Run([]dynamo.Vec{x, {4}})
	if x[0] != 1 || x[1] != 2 {
		t.Errorf("input mutated: %v", x)
	}
}

func TestRunPanicsOnLengthMismatch(t *testing.T) {
	mul := &Program{Inputs: []string{"x", "y"}, Outputs: []string{"z"}}
	mul.Emit(Mul{X: R("x"), Y: R("y")}, "z")
	sum := &Program{Inputs: []string{"x", "y"}, Outputs: []string{"z"}}
	sum.Emit(Sum{Terms: []Expr{R("x"), R("y")}}, "z")

	for name, p := range map[string]*Program{"product": mul, "sum": sum} {
		t.Run(name, func(t *testing.T) {
			c, err := p.Compile(nil)
			if err != nil {
				t.Fatal(err)
			}
			defer func() {
				err, _ := recover().(error)
				if !errors.Is(err, dynamo.ErrShape) {
					t.Errorf("expected a shape panic, got %v", err)
				}
			}()
			c.Run([]dynamo.Vec{{1, 2}, {1, 2, 3}})
		})
	}
}

func TestCompileErrors(t *testing.T) {
	f := map[string]MultiFunc{"f": func(a []dynamo.Vec) []dynamo.Vec { return a }}

	tests := []struct {
		name     string
		build    func() *Program
		sentinel error
	}{
		{"unresolved name", func() *Program {
			p := &Program{Inputs: []string{"x"}, Outputs: []string{"y"}}
			p.Emit(Sum{Terms: []Expr{R("x"), R("z")}}, "y")
			return p
		}, dynamo.ErrBuild},
		{"assign to input", func() *Program {
			p := &Program{Inputs: []string{"x"}, Outputs: []string{"x"}}
			p.Emit(R("x"), "x")
			return p
		}, dynamo.ErrReservedName},
		{"duplicate input", func() *Program {
			return &Program{Inputs: []string{"x", "x"}}
		}, dynamo.ErrDuplicateVar},
		{"unknown function", func() *Program {
			p := &Program{Inputs: []string{"x"}, Outputs: []string{"y"}}
			p.Emit(Call{Func: "g", Args: []Expr{R("x")}}, "y")
			return p
		}, dynamo.ErrBuild},
		{"nested call", func() *Program {
			p := &Program{Inputs: []string{"x"}, Outputs: []string{"y"}}
			p.Emit(Sum{Terms: []Expr{R("x"), Call{Func: "f", Args: []Expr{R("x")}}}}, "y")
			return p
		}, dynamo.ErrBuild},
		{"unresolved output", func() *Program {
			return &Program{Inputs: []string{"x"}, Outputs: []string{"y"}}
		}, dynamo.ErrBuild},
		{"multi target expression", func() *Program {
			p := &Program{Inputs: []string{"x"}, Outputs: []string{"y"}}
			p.Emit(R("x"), "y", "z")
			return p
		}, dynamo.ErrBuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile(f)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var be *dynamo.BuildError
			if !errors.As(err, &be) {
				t.Errorf("expected *dynamo.BuildError, got %T", err)
			}
		})
	}
}
