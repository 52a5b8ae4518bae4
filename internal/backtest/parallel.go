package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"RegimeSentinel/internal/model"
)

// Job is one symbol's series to replay.
type Job struct {
	Symbol string
	Bars   []model.Bar
}

// RunAll replays independent symbols concurrently, at most limit at a time.
// build returns the Runner for a job so each run can have its own sink.
// Results keep the order of jobs; the first failure cancels the rest.
func RunAll(ctx context.Context, jobs []Job, limit int, build func(Job) (*Runner, error)) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			r, err := build(job)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Symbol, err)
			}
			res, err := r.Run(gctx, job.Symbol, job.Bars)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
