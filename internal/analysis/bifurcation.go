package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/neurodyn/internal/runner"
)

// Point holds the distinct peak values found for one parameter value.
type Point struct {
	Param  float64
	Values []float64
}

// SweepBuilder returns a fresh runner configured for one parameter value.
type SweepBuilder func(value float64) (*runner.Runner, error)

type Sweep struct {
	Values []float64
	// Monitor names the recorded variable; element 0 is analysed.
	Monitor   string
	Transient float64
	Record    float64
	// Workers caps concurrent runs; zero means GOMAXPROCS.
	Workers int
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// quantum is the resolution at which two peaks count as the same value.
const quantum = 1e-3

// Bifurcation runs one simulation per sweep value, discards the
// transient and collects the distinct local maxima of the monitor. A
// trajectory without maxima, such as one resting at a fixed point,
// contributes its final value. Results are in sweep order.
func Bifurcation(ctx context.Context, build SweepBuilder, s Sweep) ([]Point, error) {
	if s.Record <= 0 {
		return nil, fmt.Errorf("record duration must be positive, got %v", s.Record)
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	points := make([]Point, len(s.Values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, v := range s.Values {
		g.Go(func() error {
			r, err := build(v)
			if err != nil {
				return fmt.Errorf("build at %v: %w", v, err)
			}
			if s.Transient > 0 {
				if _, err := r.Run(ctx, s.Transient); err != nil {
					return err
				}
			}
			res, err := r.Run(ctx, s.Record)
			if err != nil {
				return err
			}
			if _, ok := res.Records[s.Monitor]; !ok {
				return fmt.Errorf("monitor %q not recorded", s.Monitor)
			}
			points[i] = Point{Param: v, Values: peaks(res.Series(s.Monitor, 0))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func peaks(x []float64) []float64 {
	seen := make(map[int64]bool)
	var out []float64
	add := func(v float64) {
		key := int64(math.Round(v / quantum))
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	for k := 1; k+1 < len(x); k++ {
		if x[k-1] < x[k] && x[k] >= x[k+1] {
			add(x[k])
		}
	}
	if len(out) == 0 && len(x) > 0 {
		add(x[len(x)-1])
	}
	sort.Float64s(out)
	return out
}
