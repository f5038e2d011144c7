// Package parallel splits per-row image work across goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Band is a half-open row range [Start, End).
type Band struct {
	Start int
	End   int
}

// Workers resolves a configured worker count; zero or negative means one
// worker per schedulable CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Bands divides height rows into at most n contiguous bands of near-equal
// size. The last band takes the remainder. Bands are returned in row order.
func Bands(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	n = min(max(n, 1), height)

	bands := make([]Band, 0, n)
	rowsPerBand := height / n
	for i := 0; i < n; i++ {
		start := i * rowsPerBand
		end := start + rowsPerBand
		if i == n-1 {
			end = height
		}
		bands = append(bands, Band{Start: start, End: end})
	}
	return bands
}

// Rows runs fn over every band of [0, height) with at most workers bands in
// flight. Each band owns its rows exclusively, so fn may write them without
// synchronisation. The first error cancels the remaining bands.
func Rows(ctx context.Context, height, workers int, fn func(start, end int) error) error {
	return ForBands(ctx, Bands(height, Workers(workers)), workers, func(_ int, b Band) error {
		return fn(b.Start, b.End)
	})
}

// ForBands runs fn for each band, passing its index so callers can keep
// per-band partial results.
func ForBands(ctx context.Context, bands []Band, workers int, fn func(i int, b Band) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))
	for i, b := range bands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i, b)
		})
	}
	return g.Wait()
}
