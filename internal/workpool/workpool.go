// Package workpool fans work for a slice of items out across a bounded
// number of goroutines and collects one result per item, the way
// downloader.Run's channel-and-WaitGroup pool does — but built on
// golang.org/x/sync/errgroup so a single item's failure can cancel the
// rest of the batch instead of running it to exhaustion (§5).
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a caller passes concurrency <= 0.
const DefaultConcurrency = 8

// Run processes every item with fn, at most concurrency at a time, and
// returns one result per item in the original item order. Per-item
// results are ordinary values the caller interprets (e.g. hash
// mismatches). If any call to fn returns an error, Run returns the first
// such error and no results, and the context passed to the remaining
// calls is cancelled.
func Run[T any, R any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Reporter receives one call per completed item. It's satisfied by
// *progressbar.ProgressBar, so a caller can drive a progress bar without
// this package depending on any particular rendering library.
type Reporter interface {
	Add(int) error
}

// RunWithProgress is Run, but calls reporter.Add(1) after each item
// finishes, success or failure. reporter may be nil, in which case it
// behaves exactly like Run.
func RunWithProgress[T any, R any](ctx context.Context, items []T, concurrency int, reporter Reporter, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if reporter == nil {
		return Run(ctx, items, concurrency, fn)
	}
	return Run(ctx, items, concurrency, func(ctx context.Context, item T) (R, error) {
		r, err := fn(ctx, item)
		reporter.Add(1)
		return r, err
	})
}
