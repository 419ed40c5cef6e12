package parallel

import (
	"context"
	"sync"
)

// DefaultWorkers is the pool size used when Pool.Workers is not positive.
const DefaultWorkers = 4

// Pool is an explicit worker-pool configuration. Units of work are identified
// by index; callers store results by index so output order does not depend on
// scheduling.
type Pool struct {
	// Workers is the number of goroutines executing units.
	Workers int
}

// NewPool returns a pool with the given number of workers.
func NewPool(workers int) Pool {
	return Pool{Workers: workers}
}

// Size returns the effective number of workers.
func (p Pool) Size() int {
	if p.Workers <= 0 {
		return DefaultWorkers
	}
	return p.Workers
}

// Run executes fn for every index in [0, n). Once ctx is cancelled no new unit
// is started and Run returns ctx.Err(), also when the cancel arrives after the
// last unit was dispatched. Running units get ctx and are expected to return
// early. fn must not panic; the evaluator recovers fold panics with
// errors.SafeValue.
func (p Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	workers := p.Size()
	if workers > n {
		workers = n
	}

	units := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range units {
				fn(ctx, i)
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < n; i++ {
		// check first so a cancelled context never races with a ready worker
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case units <- i:
		}
	}
	close(units)
	wg.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}
