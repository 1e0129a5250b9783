package runner

import (
	"github.com/san-kum/neurodyn/internal/dynamo"
)

// System is a dynamical component advanced once per step.
type System interface {
	Update(t, dt float64)
}

// Updater advances shared bookkeeping, typically a delay buffer, after
// every system has stepped.
type Updater interface {
	Update()
}

// DelayOwner is a system that owns delay buffers. Add registers them.
type DelayOwner interface {
	Delays() []Updater
}

// Resetter is implemented by children and delays that can return to
// their initial state.
type Resetter interface {
	Reset()
}

// Stater exposes state for NaN/Inf validation.
type Stater interface {
	State() []dynamo.Vec
}

// InputFunc writes external input for the step starting at t.
type InputFunc func(t, dt float64)

// MonitorFunc samples a value after each step. The returned slice is
// copied.
type MonitorFunc func() []float64

// Config controls the time axis of a run.
type Config struct {
	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      100,
		ValidateState: true,
	}
}

// Result holds monitor samples. Times[i] is the time at the end of step
// i and Records[name][i] the value sampled then.
type Result struct {
	Times      []float64
	Monitors   []string
	Records    map[string][][]float64
	StepsTaken int
	Dt         float64
}

// Series returns element i of a monitor over time.
func (r *Result) Series(name string, i int) []float64 {
	rec, ok := r.Records[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(rec))
	for k, row := range rec {
		if i < len(row) {
			out[k] = row[i]
		}
	}
	return out
}

// Final returns the last sample of a monitor.
func (r *Result) Final(name string) []float64 {
	rec := r.Records[name]
	if len(rec) == 0 {
		return nil
	}
	return rec[len(rec)-1]
}
