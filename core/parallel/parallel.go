// Package parallel provides the concurrency primitives used by seedtune:
// row-chunked data parallelism for prediction and a bounded worker pool for
// cross-validation units.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Chunks splits [0, items) into contiguous ranges, at most one per CPU core,
// and runs fn on each range concurrently. When items does not exceed
// threshold fn runs once over the whole range on the calling goroutine.
//
// fn receives ctx and is expected to stop early once it is cancelled. Chunks
// returns the error of the lowest failing range, or ctx.Err() when every
// range succeeded but the context was cancelled meanwhile.
func Chunks(ctx context.Context, items, threshold int, fn func(ctx context.Context, start, end int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		if err := fn(ctx, 0, items); err != nil {
			return err
		}
		return ctx.Err()
	}

	workers := min(runtime.NumCPU(), items)
	size := (items + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start, end := w*size, min((w+1)*size, items)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			errs[w] = fn(ctx, start, end)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}
