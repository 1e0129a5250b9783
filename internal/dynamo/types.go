package dynamo

import (
	"fmt"
	"math"
)

// Vec is the value of one state variable or parameter. A scalar is a
// Vec of length one and broadcasts against longer vectors.
type Vec []float64

func Scalar(v float64) Vec { return Vec{v} }

func Fill(n int, v float64) Vec {
	out := make(Vec, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// SetAll overwrites every element with x.
func (v Vec) SetAll(x float64) {
	for i := range v {
		v[i] = x
	}
}

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// At reads element i, treating a length-one Vec as a broadcast scalar.
func (v Vec) At(i int) float64 {
	if len(v) == 1 {
		return v[0]
	}
	return v[i]
}

// CloneAll deep-copies a list of values.
func CloneAll(vs []Vec) []Vec {
	out := make([]Vec, len(vs))
	for i, v := range vs {
		out[i] = v.Clone()
	}
	return out
}

// AllValid reports whether every value is free of NaN and Inf.
func AllValid(vs []Vec) bool {
	for _, v := range vs {
		if !v.IsValid() {
			return false
		}
	}
	return true
}

// VarType hints how state variables are shaped.
type VarType int

const (
	// PopulationVar variables are vectors with one entry per unit.
	PopulationVar VarType = iota
	// ScalarVar variables are single numbers.
	ScalarVar
	// SystemVar is a single vector holding the whole system state.
	SystemVar
)

func (t VarType) String() string {
	switch t {
	case ScalarVar:
		return "scalar"
	case SystemVar:
		return "system"
	default:
		return "population"
	}
}

// ParseVarType reads the var_type names used in configs and flags.
func ParseVarType(s string) (VarType, error) {
	switch s {
	case "", "population", "pop":
		return PopulationVar, nil
	case "scalar":
		return ScalarVar, nil
	case "system":
		return SystemVar, nil
	}
	return PopulationVar, fmt.Errorf("unknown var type: %s", s)
}
