package equation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/san-kum/neurodyn/internal/dynamo"
)

func constFunc(vals ...float64) Func {
	return func(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec {
		out := make([]dynamo.Vec, len(vals))
		for i, v := range vals {
			out[i] = dynamo.Scalar(v)
		}
		return out
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		vars   []string
		time   string
		params []string
	}{
		{"single", []string{"V", "t"}, []string{"V"}, "t", nil},
		{"with params", []string{"V", "t", "I", "tau"}, []string{"V"}, "t", []string{"I", "tau"}},
		{"multi var", []string{"x", "y", "t", "a"}, []string{"x", "y"}, "t", []string{"a"}},
		{"no time", []string{"x", "y"}, []string{"x", "y"}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Args(tt.args...)
			if !reflect.DeepEqual(sig.Vars, tt.vars) {
				t.Errorf("Vars = %v, want %v", sig.Vars, tt.vars)
			}
			if sig.Time != tt.time {
				t.Errorf("Time = %q, want %q", sig.Time, tt.time)
			}
			if len(sig.Params) != len(tt.params) || (len(tt.params) > 0 && !reflect.DeepEqual(sig.Params, tt.params)) {
				t.Errorf("Params = %v, want %v", sig.Params, tt.params)
			}
		})
	}
}

func TestNewRejectsBadSignatures(t *testing.T) {
	tests := []struct {
		name     string
		sig      Signature
		sentinel error
	}{
		{"no vars", Signature{Time: "t"}, dynamo.ErrBuild},
		{"no time", Args("x"), dynamo.ErrBuild},
		{"dt as param", Args("x", "t", "dt"), dynamo.ErrReservedName},
		{"f as var", Args("f", "t"), dynamo.ErrReservedName},
		{"dt as time", Signature{Vars: []string{"x"}, Time: "dt"}, dynamo.ErrReservedName},
		{"duplicate", Args("x", "t", "x"), dynamo.ErrDuplicateVar},
		{"bad identifier", Args("1x", "t"), dynamo.ErrBuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(constFunc(0), tt.sig)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
			if !errors.Is(err, dynamo.ErrBuild) {
				t.Errorf("expected build error, got %v", err)
			}
		})
	}
}

func TestNewCopiesSignature(t *testing.T) {
	sig := Args("V", "t", "I")
	eq, err := New(constFunc(1), sig)
	if err != nil {
		t.Fatal(err)
	}
	sig.Vars[0] = "W"
	if eq.Vars()[0] != "V" {
		t.Error("equation shares caller's signature slice")
	}
	if eq.Arity() != 1 || eq.NumParams() != 1 || eq.Time() != "t" {
		t.Errorf("unexpected schema %+v", eq.Signature())
	}
}

func TestJointBindsCoupledVariables(t *testing.T) {
	// dV/dt = W - V + I, dW/dt = V - 2W
	dV := MustNew(func(v []dynamo.Vec, t float64, p []dynamo.Vec) []dynamo.Vec {
		return []dynamo.Vec{{p[0][0] - v[0][0] + p[1][0]}}
	}, Args("V", "t", "W", "I"))
	dW := MustNew(func(v []dynamo.Vec, t float64, p []dynamo.Vec) []dynamo.Vec {
		return []dynamo.Vec{{p[0][0] - 2*v[0][0]}}
	}, Args("W", "t", "V"))

	joint, err := Joint(dV, dW)
	if err != nil {
		t.Fatalf("Joint: %v", err)
	}

	if got := joint.Vars(); !reflect.DeepEqual(got, []string{"V", "W"}) {
		t.Errorf("Vars = %v", got)
	}
	if got := joint.Params(); !reflect.DeepEqual(got, []string{"I"}) {
		t.Errorf("Params = %v", got)
	}
	if !joint.IsJoint() || len(joint.Members()) != 2 {
		t.Error("expected two joint members")
	}

	out := joint.Eval([]dynamo.Vec{{1}, {3}}, 0, []dynamo.Vec{{0.5}})
	if len(out) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(out))
	}
	if out[0][0] != 2.5 {
		t.Errorf("dV = %v, want 2.5", out[0][0])
	}
	if out[1][0] != -5 {
		t.Errorf("dW = %v, want -5", out[1][0])
	}
}

func TestJointChecksMemberOutputs(t *testing.T) {
	short := MustNew(func(_ []dynamo.Vec, _ float64, _ []dynamo.Vec) []dynamo.Vec {
		return nil
	}, Args("a", "b", "t"))
	joint, err := Joint(short, MustNew(constFunc(1), Args("c", "t")))
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, dynamo.ErrShape) {
			t.Errorf("expected a shape panic, got %v", err)
		}
	}()
	joint.Eval([]dynamo.Vec{{1}, {2}, {3}}, 0, nil)
}

func TestJointSharedParamsFirstSeenOrder(t *testing.T) {
	a := MustNew(constFunc(1), Args("a", "t", "k", "g"))
	b := MustNew(constFunc(2), Args("b", "t", "g", "h", "k"))

	joint, err := Joint(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got := joint.Params(); !reflect.DeepEqual(got, []string{"k", "g", "h"}) {
		t.Errorf("Params = %v, want [k g h]", got)
	}
}

func TestJointDuplicateVariable(t *testing.T) {
	a := MustNew(constFunc(1), Args("V", "t"))
	b := MustNew(constFunc(2), Args("V", "t", "I"))

	_, err := Joint(a, b)
	if !errors.Is(err, dynamo.ErrDuplicateVar) {
		t.Fatalf("expected ErrDuplicateVar, got %v", err)
	}
}

func TestJointTimeMismatch(t *testing.T) {
	a := MustNew(constFunc(1), Args("x", "t"))
	b := MustNew(constFunc(1), Signature{Vars: []string{"y"}, Time: "time"})

	if _, err := Joint(a, b); !errors.Is(err, dynamo.ErrBuild) {
		t.Fatalf("expected build error, got %v", err)
	}
	if _, err := Joint(); err == nil {
		t.Fatal("expected error for empty joint")
	}
}
