package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestVec_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec
		valid bool
	}{
		{"empty", Vec{}, true},
		{"normal", Vec{1.0, 2.0, 3.0}, true},
		{"zeros", Vec{0.0, 0.0}, true},
		{"with NaN", Vec{1.0, math.NaN()}, false},
		{"with +Inf", Vec{1.0, math.Inf(1)}, false},
		{"with -Inf", Vec{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestVec_AtBroadcasts(t *testing.T) {
	s := Scalar(2.5)
	if s.At(7) != 2.5 {
		t.Errorf("scalar At(7) = %v, want 2.5", s.At(7))
	}
	v := Vec{1, 2, 3}
	if v.At(2) != 3 {
		t.Errorf("At(2) = %v, want 3", v.At(2))
	}
}

func TestCloneAllIndependent(t *testing.T) {
	src := []Vec{{1, 2}, {3}}
	dst := CloneAll(src)
	dst[0][0] = 99
	if src[0][0] == 99 {
		t.Error("CloneAll did not copy")
	}
	if !AllValid(dst) {
		t.Error("expected valid values")
	}
}

func TestParseVarType(t *testing.T) {
	for _, name := range []string{"scalar", "population", "system"} {
		vt, err := ParseVarType(name)
		if err != nil {
			t.Fatalf("ParseVarType(%q): %v", name, err)
		}
		if vt.String() != name {
			t.Errorf("round trip %q -> %q", name, vt.String())
		}
	}
	if _, err := ParseVarType("matrix"); err == nil {
		t.Error("expected error for unknown var type")
	}
}

func TestBuildErrorMatchesSentinels(t *testing.T) {
	err := Buildf("joint", "V", ErrDuplicateVar, "claimed by members %d and %d", 0, 2)

	if !errors.Is(err, ErrBuild) {
		t.Error("expected errors.Is(err, ErrBuild)")
	}
	if !errors.Is(err, ErrDuplicateVar) {
		t.Error("expected errors.Is(err, ErrDuplicateVar)")
	}
	if errors.Is(err, ErrShape) {
		t.Error("unexpected match with ErrShape")
	}

	var be *BuildError
	if !errors.As(err, &be) || be.Name != "V" {
		t.Errorf("errors.As failed: %v", err)
	}
}
