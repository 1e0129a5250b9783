package runner

import "github.com/san-kum/neurodyn/internal/dynamo"

// Constant sets every element of target to value each step.
func Constant(target dynamo.Vec, value float64) InputFunc {
	return func(float64, float64) { target.SetAll(value) }
}

// Pulse sets target to value inside [start, stop) and to zero elsewhere.
func Pulse(target dynamo.Vec, value, start, stop float64) InputFunc {
	return func(t, _ float64) {
		if t >= start && t < stop {
			target.SetAll(value)
			return
		}
		target.SetAll(0)
	}
}
