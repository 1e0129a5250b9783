package integrators

import (
	"slices"
	"sort"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
)

// Method families.
const (
	FamilyExplicit    = "explicit"
	FamilyAdaptive    = "adaptive"
	FamilyExponential = "exponential"
	FamilyStochastic  = "stochastic"
)

// Fixed-step explicit Runge-Kutta methods.
var explicit = map[string]Tableau{
	"euler": tab("euler", 1,
		[][]string{{}},
		[]string{"1"},
		[]string{"0"}),
	"midpoint": tab("midpoint", 2,
		[][]string{{}, {"1/2"}},
		[]string{"0", "1"},
		[]string{"0", "1/2"}),
	"heun2": tab("heun2", 2,
		[][]string{{}, {"1"}},
		[]string{"1/2", "1/2"},
		[]string{"0", "1"}),
	"ralston2": tab("ralston2", 2,
		[][]string{{}, {"2/3"}},
		[]string{"1/4", "3/4"},
		[]string{"0", "2/3"}),
	"rk2": mustRK2(codegen.Frac(2, 3)),
	"rk3": tab("rk3", 3,
		[][]string{{}, {"1/2"}, {"-1", "2"}},
		[]string{"1/6", "2/3", "1/6"},
		[]string{"0", "1/2", "1"}),
	"heun3": tab("heun3", 3,
		[][]string{{}, {"1/3"}, {"0", "2/3"}},
		[]string{"1/4", "0", "3/4"},
		[]string{"0", "1/3", "2/3"}),
	"ralston3": tab("ralston3", 3,
		[][]string{{}, {"1/2"}, {"0", "3/4"}},
		[]string{"2/9", "1/3", "4/9"},
		[]string{"0", "1/2", "3/4"}),
	"ssprk3": tab("ssprk3", 3,
		[][]string{{}, {"1"}, {"1/4", "1/4"}},
		[]string{"1/6", "1/6", "2/3"},
		[]string{"0", "1", "1/2"}),
	"rk4": tab("rk4", 4,
		[][]string{{}, {"1/2"}, {"0", "1/2"}, {"0", "0", "1"}},
		[]string{"1/6", "1/3", "1/3", "1/6"},
		[]string{"0", "1/2", "1/2", "1"}),
	// Ralston's minimum-error fourth-order method is only known to eight
	// decimal places.
	"ralston4": tab("ralston4", 4,
		[][]string{{}, {"0.4"}, {"0.29697761", "0.15875964"}, {"0.21810040", "-3.05096516", "3.83286476"}},
		[]string{"0.17476028", "-0.55148066", "1.20553560", "0.17118478"},
		[]string{"0", "0.4", "0.45573725", "1"}),
	"rk4_38rule": tab("rk4_38rule", 4,
		[][]string{{}, {"1/3"}, {"-1/3", "1"}, {"1", "-1", "1"}},
		[]string{"1/8", "3/8", "3/8", "1/8"},
		[]string{"0", "1/3", "2/3", "1"}),
}

// Embedded pairs. B is the higher-order solution that advances the state;
// B2 only feeds the error estimate.
var adaptive = map[string]Tableau{
	"heun_euler": tab("heun_euler", 2,
		[][]string{{}, {"1"}},
		[]string{"1/2", "1/2"},
		[]string{"0", "1"}).
		embedded("1", "0"),
	"rkf12": tab("rkf12", 2,
		[][]string{{}, {"1/2"}, {"1/256", "255/256"}},
		[]string{"1/512", "255/256", "1/512"},
		[]string{"0", "1/2", "1"}).
		embedded("1/256", "255/256", "0"),
	"bs3": tab("bs3", 3,
		[][]string{{}, {"1/2"}, {"0", "3/4"}, {"2/9", "1/3", "4/9"}},
		[]string{"2/9", "1/3", "4/9", "0"},
		[]string{"0", "1/2", "3/4", "1"}).
		embedded("7/24", "1/4", "1/3", "1/8"),
	"rkf45": tab("rkf45", 5,
		[][]string{
			{},
			{"1/4"},
			{"3/32", "9/32"},
			{"1932/2197", "-7200/2197", "7296/2197"},
			{"439/216", "-8", "3680/513", "-845/4104"},
			{"-8/27", "2", "-3544/2565", "1859/4104", "-11/40"},
		},
		[]string{"16/135", "0", "6656/12825", "28561/56430", "-9/50", "2/55"},
		[]string{"0", "1/4", "3/8", "12/13", "1", "1/2"}).
		embedded("25/216", "0", "1408/2565", "2197/4104", "-1/5", "0"),
	"ck": tab("ck", 5,
		[][]string{
			{},
			{"1/5"},
			{"3/40", "9/40"},
			{"3/10", "-9/10", "6/5"},
			{"-11/54", "5/2", "-70/27", "35/27"},
			{"1631/55296", "175/512", "575/13824", "44275/110592", "253/4096"},
		},
		[]string{"37/378", "0", "250/621", "125/594", "0", "512/1771"},
		[]string{"0", "1/5", "3/10", "3/5", "1", "7/8"}).
		embedded("2825/27648", "0", "18575/48384", "13525/55296", "277/14336", "1/4"),
	"dopri5": tab("dopri5", 5,
		[][]string{
			{},
			{"1/5"},
			{"3/40", "9/40"},
			{"44/45", "-56/15", "32/9"},
			{"19372/6561", "-25360/2187", "64448/6561", "-212/729"},
			{"9017/3168", "-355/33", "46732/5247", "49/176", "-5103/18656"},
			{"35/384", "0", "500/1113", "125/192", "-2187/6784", "11/84"},
		},
		[]string{"35/384", "0", "500/1113", "125/192", "-2187/6784", "11/84", "0"},
		[]string{"0", "1/5", "3/10", "4/5", "8/9", "1", "1"}).
		embedded("5179/57600", "0", "7571/16695", "393/640", "-92097/339200", "187/2100", "1/40"),
}

// Closed-form schemes that are not driven by a tableau.
var (
	exponential = map[string]float64{"exp_euler": 1}
	// Strong orders of convergence.
	stochastic = map[string]float64{"euler": 0.5, "milstein": 1, "heun": 0.5}
)

// RK2 returns the generic second-order two-stage method with parameter
// beta. beta = 1/2 is the midpoint method, 1 is Heun's, 2/3 is Ralston's.
func RK2(beta codegen.Coef) (Tableau, error) {
	if beta.IsZero() {
		return Tableau{}, dynamo.Buildf("tableau", "rk2", dynamo.ErrBadCoefficient, "beta must be non-zero")
	}
	half, err := codegen.Int(1).Quo(codegen.Int(2).Mul(beta))
	if err != nil {
		return Tableau{}, err
	}
	return Tableau{
		Name:  "rk2",
		Order: 2,
		A:     [][]codegen.Coef{{}, {beta}},
		B:     []codegen.Coef{codegen.Int(1).Sub(half), half},
		C:     []codegen.Coef{codegen.Int(0), beta},
	}, nil
}

func mustRK2(beta codegen.Coef) Tableau {
	tb, err := RK2(beta)
	if err != nil {
		panic(err)
	}
	return tb
}

// Lookup returns a copy of the named explicit or adaptive tableau.
func Lookup(name string) (Tableau, error) {
	if tb, ok := explicit[name]; ok {
		return tb.clone(), nil
	}
	if tb, ok := adaptive[name]; ok {
		return tb.clone(), nil
	}
	return Tableau{}, dynamo.Buildf("lookup", name, dynamo.ErrUnknownMethod, "no tableau registered")
}

func (tb Tableau) clone() Tableau {
	out := tb
	out.A = make([][]codegen.Coef, len(tb.A))
	for i, r := range tb.A {
		out.A[i] = slices.Clone(r)
	}
	out.B = slices.Clone(tb.B)
	out.C = slices.Clone(tb.C)
	out.B2 = slices.Clone(tb.B2)
	return out
}

// Methods lists the fixed-step explicit methods.
func Methods() []string { return sortedKeys(explicit) }

// AdaptiveMethods lists the embedded-pair methods.
func AdaptiveMethods() []string { return sortedKeys(adaptive) }

// ExponentialMethods lists the exponential integrators.
func ExponentialMethods() []string { return sortedKeys(exponential) }

// StochasticMethods lists the SDE schemes.
func StochasticMethods() []string { return sortedKeys(stochastic) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MethodInfo summarizes one registered method.
type MethodInfo struct {
	Name   string
	Family string
	Order  float64
	Stages int
}

// Catalog describes every registered method, grouped by family.
func Catalog() []MethodInfo {
	var out []MethodInfo
	for _, name := range Methods() {
		tb := explicit[name]
		out = append(out, MethodInfo{name, FamilyExplicit, float64(tb.Order), tb.Stages()})
	}
	for _, name := range AdaptiveMethods() {
		tb := adaptive[name]
		out = append(out, MethodInfo{name, FamilyAdaptive, float64(tb.Order), tb.Stages()})
	}
	for _, name := range ExponentialMethods() {
		out = append(out, MethodInfo{name, FamilyExponential, exponential[name], 1})
	}
	for _, name := range StochasticMethods() {
		stages := 1
		if name != "euler" {
			stages = 2
		}
		out = append(out, MethodInfo{name, FamilyStochastic, stochastic[name], stages})
	}
	return out
}
