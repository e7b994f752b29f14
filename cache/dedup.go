package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Deduplicator coalesces concurrent calls that share a key.
//
// While a call for a key is in flight, later callers with the same key wait
// for and receive its outcome instead of starting a second execution. The
// registration is dropped as soon as the call settles, success or failure,
// so the next call after settlement always executes again. Results are not
// cached; see Memo for coalescing plus caching.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: the shared call runs detached from any single caller's
//   cancellation; each caller stops waiting when its own ctx is done.
// - Errors: the shared call's error is returned unchanged to every waiter.
type Deduplicator[T any] struct {
	group singleflight.Group
}

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator[T any]() *Deduplicator[T] {
	return &Deduplicator[T]{}
}

// Execute runs fn under key, or joins the execution already in flight.
func (d *Deduplicator[T]) Execute(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	v, _, err := d.ExecuteShared(ctx, key, fn)
	return v, err
}

// ExecuteShared is Execute that also reports whether the outcome was
// delivered to more than one caller.
func (d *Deduplicator[T]) ExecuteShared(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if fn == nil {
		return zero, false, ErrNilFunc
	}

	callCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(key, func() (any, error) {
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Forget drops the in-flight registration for key. Callers already waiting
// still receive the original outcome; the next caller starts a new execution.
func (d *Deduplicator[T]) Forget(key string) {
	d.group.Forget(key)
}
