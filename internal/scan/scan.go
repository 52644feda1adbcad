// Package scan runs the outer loop of full O(N²) scans, optionally fanned
// out over a bounded errgroup.
package scan

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Rows runs fn for every outer index in [0, n), checking ctx between rows.
// With parallel set and more than one worker, rows are distributed over at
// most workers goroutines; each fn call must only write state owned by its
// index. The first error stops the scan.
func Rows(ctx context.Context, n int, parallel bool, workers int, fn func(i int) error) error {
	if !parallel || workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
