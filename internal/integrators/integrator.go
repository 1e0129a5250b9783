package integrators

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/neurodyn/internal/codegen"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/logging"
)

// Defaults applied when no option overrides them.
const (
	DefaultMethod    = "euler"
	DefaultDt        = 0.1
	DefaultTolerance = 1e-6
)

// Integrator advances the variables of one equation by a single step.
//
// vars and params follow the equation's Signature order. The result holds
// one value per variable in the same order. Inputs are never modified.
type Integrator interface {
	Step(vars []dynamo.Vec, t float64, params []dynamo.Vec) []dynamo.Vec
	StepDt(vars []dynamo.Vec, t float64, params []dynamo.Vec, dt float64) []dynamo.Vec
	Dt() float64
	SetDt(dt float64)
	Method() string
	Equation() *equation.Equation
	VarType() dynamo.VarType
	Code() string
}

// StateDelay receives the new value of a delayed state variable after
// every step. *delay.Buffer[float64] satisfies it.
type StateDelay interface {
	Push(v []float64) error
}

type namedDelay struct {
	name string
	buf  StateDelay
}

type options struct {
	method   string
	dt       float64
	varType  dynamo.VarType
	showCode io.Writer
	logger   *slog.Logger
	seed     uint64
	beta     *codegen.Coef
	tol      float64
	delays   []namedDelay
}

// Option configures integrator construction.
type Option func(*options)

func WithMethod(name string) Option { return func(o *options) { o.method = name } }

// WithDt sets the default step size used by Step.
func WithDt(dt float64) Option { return func(o *options) { o.dt = dt } }

func WithVarType(vt dynamo.VarType) Option { return func(o *options) { o.varType = vt } }

// WithShowCode writes the generated step program to w once it is built.
func WithShowCode(w io.Writer) Option { return func(o *options) { o.showCode = w } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithSeed seeds the noise source of stochastic integrators.
func WithSeed(seed uint64) Option { return func(o *options) { o.seed = seed } }

// WithBeta sets the free parameter of the "rk2" method.
func WithBeta(beta codegen.Coef) Option {
	return func(o *options) { o.beta = &beta }
}

// WithTolerance sets the local error tolerance of adaptive methods.
func WithTolerance(tol float64) Option { return func(o *options) { o.tol = tol } }

// WithStateDelay pushes the new value of variable name into buf after
// every step of a delay integrator.
func WithStateDelay(name string, buf StateDelay) Option {
	return func(o *options) { o.delays = append(o.delays, namedDelay{name, buf}) }
}

func resolve(opts []Option) options {
	o := options{
		method: DefaultMethod,
		dt:     DefaultDt,
		tol:    DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDiscard(o.logger)
	return o
}

func (o options) validate(eq *equation.Equation) error {
	if eq == nil {
		return dynamo.Buildf("integrator", o.method, dynamo.ErrBuild, "nil equation")
	}
	if !(o.dt > 0) || math.IsInf(o.dt, 0) {
		return dynamo.Buildf("integrator", o.method, dynamo.ErrBuild, "dt must be positive and finite, got %v", o.dt)
	}
	if !(o.tol > 0) {
		return dynamo.Buildf("integrator", o.method, dynamo.ErrBuild, "tolerance must be positive, got %v", o.tol)
	}
	if o.varType == dynamo.SystemVar && eq.Arity() != 1 {
		return dynamo.Buildf("integrator", o.method, dynamo.ErrBuild,
			"a system variable integrator takes exactly one variable, got %d", eq.Arity())
	}
	return nil
}

// base carries the state every integrator shares.
type base struct {
	eq       *equation.Equation
	method   string
	dt       float64
	varType  dynamo.VarType
	code     string
	compiled *codegen.Compiled
	logger   *slog.Logger
}

func (b *base) Dt() float64                  { return b.dt }
func (b *base) Method() string               { return b.method }
func (b *base) Equation() *equation.Equation { return b.eq }
func (b *base) VarType() dynamo.VarType      { return b.varType }

// SetDt changes the default step size. Non-positive values are ignored.
func (b *base) SetDt(dt float64) {
	if dt > 0 {
		b.dt = dt
	}
}

// Code returns the generated step program.
func (b *base) Code() string { return b.code }

// finish compiles p and reports the result through the logger and the
// show-code writer.
func (b *base) finish(p *codegen.Program, funcs map[string]codegen.MultiFunc, o options) error {
	c, err := p.Compile(funcs)
	if err != nil {
		return err
	}
	b.compiled = c
	b.code = c.Source()

	b.logger.Debug("integrator built",
		"method", b.method,
		"vars", b.eq.Vars(),
		"params", b.eq.Params(),
		"steps", c.NumSteps(),
		"dt", b.dt)
	b.logger.Log(context.Background(), logging.LevelTrace, "generated step program", "method", b.method, "code", b.code)

	if o.showCode != nil {
		if _, err := io.WriteString(o.showCode, b.code); err != nil {
			return err
		}
	}
	return nil
}

func newBase(eq *equation.Equation, o options) base {
	return base{eq: eq, method: o.method, dt: o.dt, varType: o.varType, logger: o.logger}
}

// ODEInt builds an integrator for eq. The method option picks a fixed-step
// tableau, an embedded adaptive pair or the exponential Euler scheme.
func ODEInt(eq *equation.Equation, opts ...Option) (Integrator, error) {
	o := resolve(opts)
	if err := o.validate(eq); err != nil {
		return nil, err
	}

	var (
		integ Integrator
		err   error
	)
	switch {
	case isExplicit(o.method):
		integ, err = newRK(eq, o)
	case isAdaptive(o.method):
		integ, err = newAdaptive(eq, o)
	case isExponential(o.method):
		integ, err = newExpEuler(eq, o)
	default:
		return nil, dynamo.Buildf("odeint", o.method, dynamo.ErrUnknownMethod, "no ODE method registered")
	}
	if err != nil {
		return nil, err
	}
	return integ, nil
}

func isExplicit(name string) bool {
	_, ok := explicit[name]
	return ok
}

func isAdaptive(name string) bool {
	_, ok := adaptive[name]
	return ok
}

func isExponential(name string) bool {
	_, ok := exponential[name]
	return ok
}

func isStochastic(name string) bool {
	_, ok := stochastic[name]
	return ok
}

// tableauFor resolves the tableau for a fixed-step or adaptive method,
// honoring WithBeta for "rk2".
func tableauFor(o options) (Tableau, error) {
	if o.method == "rk2" && o.beta != nil {
		return RK2(*o.beta)
	}
	return Lookup(o.method)
}
