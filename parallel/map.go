package parallel

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Config.Concurrency is not positive.
const DefaultConcurrency = 5

// Config controls a Map run.
type Config struct {
	// Concurrency is the number of workers.
	// Default: 5
	Concurrency int

	// StopOnError stops claiming new items after the first failure.
	StopOnError bool

	// OnProgress is called after each item settles with the number of
	// settled items and the total. Calls are serialized and completed
	// increases by one on each call.
	OnProgress func(completed, total int)
}

// Func is the per-item function. index is the item's position in the input.
type Func[T, R any] func(ctx context.Context, item T, index int) (R, error)

// Map applies fn to every item using a bounded worker pool and returns the
// results in input order.
//
// In collect mode a failed item leaves its result slot at the zero value and
// the returned error is a *BatchError. With StopOnError the returned error
// is an *ItemError for the first failure; slots for items that never ran are
// left at the zero value. If ctx is cancelled before every item is claimed,
// Map returns ctx.Err() after in-flight items settle.
func Map[T, R any](ctx context.Context, items []T, fn Func[T, R], cfg Config) ([]R, error) {
	total := len(items)
	results := make([]R, total)
	if total == 0 {
		return results, nil
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	workers = min(workers, total)

	var (
		cursor atomic.Int64
		errs   []error
		mu     sync.Mutex
		done   int
	)
	if !cfg.StopOnError {
		errs = make([]error, total)
	}

	settle := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if cfg.OnProgress != nil {
			cfg.OnProgress(done, total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(cursor.Add(1) - 1)
				if i >= total {
					return nil
				}

				r, err := fn(gctx, items[i], i)
				if err != nil {
					if cfg.StopOnError {
						settle()
						return &ItemError{Index: i, Err: err}
					}
					errs[i] = err
				} else {
					results[i] = r
				}
				settle()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	for _, err := range errs {
		if err != nil {
			return results, &BatchError{Errors: errs}
		}
	}
	return results, nil
}
