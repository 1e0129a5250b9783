package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Factory builds an independent runner for one trial.
type Factory func(seed uint64) (*Runner, error)

// Ensemble runs independent trials concurrently, one seed each. Trials
// share nothing, so each goroutine owns its runner and its buffers.
type Ensemble struct {
	build     Factory
	trials    int
	seedStart uint64
	limit     int
}

func NewEnsemble(build Factory, trials int, seedStart uint64) *Ensemble {
	return &Ensemble{build: build, trials: trials, seedStart: seedStart}
}

// SetLimit caps the number of trials running at once. Zero means no cap.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run returns the results in trial order. The first error cancels the
// remaining trials.
func (e *Ensemble) Run(ctx context.Context, duration float64) ([]*Result, error) {
	results := make([]*Result, e.trials)
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.trials; i++ {
		g.Go(func() error {
			r, err := e.build(e.seedStart + uint64(i))
			if err != nil {
				return err
			}
			results[i], err = r.Run(ctx, duration)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
