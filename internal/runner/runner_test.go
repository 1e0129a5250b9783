package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/neurodyn/internal/delay"
	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/equation"
	"github.com/san-kum/neurodyn/internal/integrators"
)

// decay integrates dx/dt = -x + I with a real integrator.
type decay struct {
	integ integrators.Integrator
	x     dynamo.Vec
	input dynamo.Vec
	x0    float64
}

func newDecay(t *testing.T, x0 float64) *decay {
	t.Helper()
	d, err := buildDecay(x0)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func buildDecay(x0 float64) (*decay, error) {
	eq := equation.MustNew(func(v []dynamo.Vec, _ float64, p []dynamo.Vec) []dynamo.Vec {
		return []dynamo.Vec{{-v[0][0] + p[0][0]}}
	}, equation.Args("x", "t", "I"))
	integ, err := integrators.ODEInt(eq, integrators.WithMethod("euler"), integrators.WithDt(0.1))
	if err != nil {
		return nil, err
	}
	return &decay{integ: integ, x: dynamo.Vec{x0}, input: dynamo.Vec{0}, x0: x0}, nil
}

func (d *decay) Update(t, dt float64) {
	d.x = d.integ.StepDt([]dynamo.Vec{d.x}, t, []dynamo.Vec{d.input}, dt)[0]
}

func (d *decay) State() []dynamo.Vec { return []dynamo.Vec{d.x} }
func (d *decay) Reset()              { d.x = dynamo.Vec{d.x0} }

func TestRunnerRun(t *testing.T) {
	d := newDecay(t, 1)
	r := New(Config{Dt: 0.1, Duration: 1}, nil)
	if err := r.Add("cell", d); err != nil {
		t.Fatal(err)
	}
	r.AddMonitor("x", func() []float64 { return d.x })

	result, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 10 || len(result.Times) != 10 {
		t.Fatalf("expected 10 steps, got %d steps and %d times", result.StepsTaken, len(result.Times))
	}
	if math.Abs(result.Times[9]-1) > 1e-12 {
		t.Errorf("final time = %v, want 1", result.Times[9])
	}

	want := math.Pow(0.9, 10)
	if got := result.Final("x")[0]; math.Abs(got-want) > 1e-12 {
		t.Errorf("x(1) = %v, want %v", got, want)
	}
	if got := result.Series("x", 0); len(got) != 10 || math.Abs(got[0]-0.9) > 1e-12 {
		t.Errorf("series = %v", got)
	}
}

func TestRunnerContinuesAndResets(t *testing.T) {
	d := newDecay(t, 1)
	r := New(Config{Dt: 0.1, Duration: 0.5}, nil)
	if err := r.Add("cell", d); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	result, err := r.Run(context.Background(), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Time()-1) > 1e-12 || math.Abs(result.Times[0]-0.6) > 1e-12 {
		t.Errorf("second run should continue the clock, t = %v, first time %v", r.Time(), result.Times[0])
	}

	r.Reset()
	if r.Time() != 0 || d.x[0] != 1 {
		t.Errorf("reset left t = %v, x = %v", r.Time(), d.x)
	}
}

func TestRunnerStep(t *testing.T) {
	d := newDecay(t, 1)
	r := New(Config{Dt: 0.1, Duration: 1, ValidateState: true}, nil)
	if err := r.Add("cell", d); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := r.Step(i); err != nil {
			t.Fatal(err)
		}
	}
	if want := math.Pow(0.9, 10); math.Abs(d.x[0]-want) > 1e-12 {
		t.Errorf("x = %v, want %v", d.x[0], want)
	}
	if math.Abs(r.Time()-1) > 1e-9 {
		t.Errorf("t = %v, want 1", r.Time())
	}

	d.x[0] = math.NaN()
	if err := r.Step(10); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

type traced struct {
	name string
	log  *[]string
}

func (s traced) Update(t, dt float64) { *s.log = append(*s.log, s.name) }

type tracedDelay struct{ log *[]string }

func (d tracedDelay) Update() { *d.log = append(*d.log, "delay") }

func TestRunnerStepOrder(t *testing.T) {
	var log []string
	r := New(Config{Dt: 1, Duration: 2}, nil)
	for _, name := range []string{"b", "a"} {
		if err := r.Add(name, traced{name: name, log: &log}); err != nil {
			t.Fatal(err)
		}
	}
	r.AddDelay(tracedDelay{log: &log})
	r.AddInput("stim", func(t, dt float64) { log = append(log, fmt.Sprintf("input@%g", t)) })
	r.AddMonitor("m", func() []float64 {
		log = append(log, "monitor")
		return nil
	})

	if _, err := r.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	want := "input@0 b a delay monitor input@1 b a delay monitor"
	if got := strings.Join(log, " "); got != want {
		t.Errorf("order:\n got %s\nwant %s", got, want)
	}
	if names := r.Names(); len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Names = %v", names)
	}
	if _, ok := r.Child("a"); !ok {
		t.Error("child a not found")
	}
	if _, ok := r.Child("missing"); ok {
		t.Error("unexpected child")
	}
}

func TestRunnerDuplicateChild(t *testing.T) {
	r := New(DefaultConfig(), nil)
	if err := r.Add("cell", newDecay(t, 1)); err != nil {
		t.Fatal(err)
	}
	err := r.Add("cell", newDecay(t, 2))
	if !errors.Is(err, dynamo.ErrDuplicateVar) {
		t.Errorf("expected ErrDuplicateVar, got %v", err)
	}
	if err := r.Add("nil", nil); err == nil {
		t.Error("expected error for nil system")
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		duration float64
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}, 0},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}, 0},
		{"zero duration", Config{Dt: 0.1, Duration: 0}, 0},
		{"infinite duration", Config{Dt: 0.1}, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil).Run(context.Background(), tt.duration)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type exploding struct{ x dynamo.Vec }

func (e *exploding) Update(t, dt float64) {
	if t >= 2 {
		e.x[0] = math.NaN()
	}
}

func (e *exploding) State() []dynamo.Vec { return []dynamo.Vec{e.x} }

func TestRunnerValidateState(t *testing.T) {
	r := New(Config{Dt: 1, Duration: 10, ValidateState: true}, nil)
	if err := r.Add("bad", &exploding{x: dynamo.Vec{0}}); err != nil {
		t.Fatal(err)
	}

	result, err := r.Run(context.Background(), 0)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 2 {
		t.Errorf("expected SimulationError at step 2, got %v", err)
	}
	if result.StepsTaken != 2 {
		t.Errorf("expected 2 recorded steps, got %d", result.StepsTaken)
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{Dt: 0.1, Duration: 1}, nil)
	if err := r.Add("cell", newDecay(t, 1)); err != nil {
		t.Fatal(err)
	}
	result, err := r.Run(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected an empty partial result, got %+v", result)
	}
}

// echo reads its own delayed clock before writing the current one.
type echo struct {
	buf  *delay.Buffer[float64]
	seen float64
}

func (e *echo) Update(t, dt float64) {
	e.seen = e.buf.At(0)
	_ = e.buf.Push([]float64{t + dt})
}

func TestRunnerAdvancesDelays(t *testing.T) {
	buf, err := delay.New[float64]([]int{1}, delay.Uniform(1), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	e := &echo{buf: buf}

	r := New(Config{Dt: 0.5, Duration: 3}, nil)
	if err := r.Add("echo", e); err != nil {
		t.Fatal(err)
	}
	r.AddDelay(buf)
	r.AddMonitor("seen", func() []float64 { return []float64{e.seen} })

	result, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	// Two steps of lag: the value seen at step k was written at step k-2.
	want := []float64{0, 0, 0.5, 1, 1.5, 2}
	got := result.Series("seen", 0)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seen = %v, want %v", got, want)
		}
	}

	r.Reset()
	if buf.At(0) != 0 {
		t.Error("runner reset should reset its delays")
	}
}

func TestInputs(t *testing.T) {
	target := dynamo.Vec{0, 0}
	Constant(target, 3)(0, 0.1)
	if target[0] != 3 || target[1] != 3 {
		t.Errorf("constant input = %v", target)
	}

	pulse := Pulse(target, 5, 1, 2)
	for _, tc := range []struct{ t, want float64 }{{0.5, 0}, {1, 5}, {1.5, 5}, {2, 0}} {
		pulse(tc.t, 0.1)
		if target[1] != tc.want {
			t.Errorf("pulse at t=%v = %v, want %v", tc.t, target[1], tc.want)
		}
	}
}

func TestEnsemble(t *testing.T) {
	build := func(seed uint64) (*Runner, error) {
		d, err := buildDecay(float64(seed))
		if err != nil {
			return nil, err
		}
		r := New(Config{Dt: 0.1, Duration: 1}, nil)
		if err := r.Add("cell", d); err != nil {
			return nil, err
		}
		r.AddMonitor("x", func() []float64 { return d.x })
		return r, nil
	}

	e := NewEnsemble(build, 4, 1)
	e.SetLimit(2)
	results, err := e.Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		want := float64(i+1) * math.Pow(0.9, 10)
		if got := res.Final("x")[0]; math.Abs(got-want) > 1e-12 {
			t.Errorf("trial %d: x = %v, want %v", i, got, want)
		}
	}

	failing := NewEnsemble(func(seed uint64) (*Runner, error) {
		if seed == 3 {
			return nil, errors.New("boom")
		}
		return build(seed)
	}, 4, 1)
	if _, err := failing.Run(context.Background(), 0); err == nil {
		t.Error("expected trial error to propagate")
	}
}
