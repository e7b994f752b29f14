package resilience

import (
	"context"
	"sync"
)

// Runner is implemented by every pattern in this package.
type Runner interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, op func(context.Context) error) error

// Execute calls f.
func (f RunnerFunc) Execute(ctx context.Context, op func(context.Context) error) error {
	return f(ctx, op)
}

// Run executes a value-returning operation through r.
//
// The value is only returned when r reports success, and it comes from the
// most recently started attempt. An attempt abandoned by a Timeout may still
// finish later; its value is discarded once a newer attempt has started.
func Run[T any](ctx context.Context, r Runner, op func(context.Context) (T, error)) (T, error) {
	var (
		mu      sync.Mutex
		started int
		out     T
	)

	err := r.Execute(ctx, func(ctx context.Context) error {
		mu.Lock()
		started++
		attempt := started
		mu.Unlock()

		v, err := op(ctx)
		if err != nil {
			return err
		}

		mu.Lock()
		if attempt == started {
			out = v
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

var (
	_ Runner = (*CircuitBreaker)(nil)
	_ Runner = (*Retry)(nil)
	_ Runner = (*Timeout)(nil)
	_ Runner = (*Bulkhead)(nil)
	_ Runner = (*RateLimiter)(nil)
	_ Runner = (*Executor)(nil)
)
