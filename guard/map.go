package guard

import (
	"context"

	"github.com/jonwraymond/toolguard/parallel"
)

// Map runs fn for every item through g with bounded concurrency and returns
// the results in input order. key derives each item's memo key; a nil key
// function or an empty key bypasses the memo. Error handling follows
// parallel.Map.
func Map[A, T any](ctx context.Context, g *Guard[T], items []A, key func(A) string, fn func(context.Context, A) (T, error), cfg parallel.Config) ([]T, error) {
	return parallel.Map(ctx, items, func(ctx context.Context, item A, _ int) (T, error) {
		k := ""
		if key != nil {
			k = key(item)
		}
		return g.Do(ctx, k, func(ctx context.Context) (T, error) {
			return fn(ctx, item)
		})
	}, cfg)
}
