package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Objective scores one grid point; lower is better.
type Objective func(ctx context.Context, values map[string]float64) (float64, error)

// GridSearch evaluates every combination of the named value lists.
type GridSearch struct {
	names  []string
	ranges [][]float64
}

func NewGridSearch(names []string, ranges [][]float64) (*GridSearch, error) {
	if len(names) != len(ranges) {
		return nil, fmt.Errorf("%d names for %d ranges", len(names), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", names[i])
		}
	}
	return &GridSearch{names: names, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// ErrNoPoint is returned when every grid point failed to evaluate.
var ErrNoPoint = errors.New("optim: no grid point could be evaluated")

// Search returns the values with the lowest score. Points whose
// objective fails are skipped; a canceled context stops the search.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestValues map[string]float64
	var lastErr error

	err := g.walk(ctx, 0, make(map[string]float64, len(g.names)), func(values map[string]float64) {
		score, err := objective(ctx, values)
		if err != nil {
			lastErr = err
			return
		}
		if score < best {
			best = score
			bestValues = clone(values)
		}
	})
	if err != nil {
		return bestValues, best, err
	}
	if bestValues == nil {
		return nil, best, errors.Join(ErrNoPoint, lastErr)
	}
	return bestValues, best, nil
}

func (g *GridSearch) walk(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.names) {
		visit(current)
		return nil
	}
	name := g.names[depth]
	for _, v := range g.ranges[depth] {
		current[name] = v
		if err := g.walk(ctx, depth+1, current, visit); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

func clone(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
