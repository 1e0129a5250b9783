package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/runner"
)

// Builder returns a fresh runner together with the system whose state is
// compared. It is called once per trajectory.
type Builder func() (*runner.Runner, runner.Stater, error)

type LyapunovOptions struct {
	// Transient is run on both trajectories before the perturbation.
	Transient float64
	Duration  float64
	// Perturbation is the initial and renormalized separation.
	Perturbation float64
}

const defaultPerturbation = 1e-8

// Lyapunov estimates the largest Lyapunov exponent, per unit of model
// time, by the two-trajectory method: the first element of the first
// state variable is perturbed, and after every step the separation is
// logged and scaled back to the perturbation size.
//
// For delay models only the current state is renormalized, not the
// history.
func Lyapunov(ctx context.Context, build Builder, opts LyapunovOptions) (float64, error) {
	eps := opts.Perturbation
	if eps == 0 {
		eps = defaultPerturbation
	}
	if !(eps > 0) {
		return 0, fmt.Errorf("perturbation must be positive, got %v", eps)
	}

	ra, sa, err := build()
	if err != nil {
		return 0, err
	}
	rb, sb, err := build()
	if err != nil {
		return 0, err
	}
	dt := ra.Config().Dt
	if rb.Config().Dt != dt {
		return 0, fmt.Errorf("trajectories disagree on dt: %v and %v", dt, rb.Config().Dt)
	}
	transient := int(math.Round(opts.Transient / dt))
	steps := int(math.Round(opts.Duration / dt))
	if steps < 1 {
		return 0, fmt.Errorf("duration %v is shorter than one step of %v", opts.Duration, dt)
	}

	step := 0
	advance := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ra.Step(step); err != nil {
			return err
		}
		if err := rb.Step(step); err != nil {
			return err
		}
		step++
		return nil
	}

	for i := 0; i < transient; i++ {
		if err := advance(); err != nil {
			return 0, err
		}
	}

	xb := sb.State()
	if len(xb) == 0 || len(xb[0]) == 0 {
		return 0, fmt.Errorf("system has no state")
	}
	xb[0][0] += eps

	sum := 0.0
	for i := 0; i < steps; i++ {
		if err := advance(); err != nil {
			return 0, err
		}
		a, b := sa.State(), sb.State()
		sep := distance(a, b)
		if sep == 0 {
			return math.Inf(-1), nil
		}
		sum += math.Log(sep / eps)
		scale := eps / sep
		for j := range b {
			for k := range b[j] {
				b[j][k] = a[j][k] + (b[j][k]-a[j][k])*scale
			}
		}
	}
	return sum / (float64(steps) * dt), nil
}

func distance(a, b []dynamo.Vec) float64 {
	sum := 0.0
	for j := range a {
		for k := range a[j] {
			d := b[j][k] - a[j][k]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}
