package cache

import (
	"context"
	"time"
)

// Memo memoizes string-keyed async calls.
//
// A cached value is returned without executing. On a miss, concurrent calls
// for the same key share one execution through a Deduplicator; a successful
// result is stored before any waiter is released. Errors are never cached.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: the wrapped function's error reaches every coalesced waiter unchanged.
type Memo[V any] struct {
	policy Policy
	cache  *TimedCache[string, V]
	dedup  *Deduplicator[V]
}

// NewMemo creates a memo governed by policy.
func NewMemo[V any](policy Policy) *Memo[V] {
	return &Memo[V]{
		policy: policy,
		cache:  NewTimedCache[string, V](policy.CacheConfig()),
		dedup:  NewDeduplicator[V](),
	}
}

// Do returns the cached value for key or runs fn to produce it.
func (m *Memo[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	return m.DoWithTTL(ctx, key, 0, fn)
}

// DoWithTTL is Do with a per-call TTL override, clamped by the policy.
func (m *Memo[V]) DoWithTTL(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (V, error)) (V, error) {
	if fn == nil {
		var zero V
		return zero, ErrNilFunc
	}

	caching := m.policy.ShouldCache()
	if caching {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
	}

	return m.dedup.Execute(ctx, key, func(ctx context.Context) (V, error) {
		// A flight that settled between our miss and this call may have
		// already filled the entry.
		if caching {
			if v, ok := m.cache.Get(key); ok {
				return v, nil
			}
		}

		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		if caching {
			m.cache.SetWithTTL(key, v, m.policy.EffectiveTTL(ttl))
		}
		return v, nil
	})
}

// Forget invalidates any cached value for key and reports whether one was held.
func (m *Memo[V]) Forget(key string) bool {
	return m.cache.Delete(key)
}

// Cache exposes the backing cache for inspection.
func (m *Memo[V]) Cache() *TimedCache[string, V] {
	return m.cache
}

// MemoizeConfig configures Memoize.
type MemoizeConfig[A any] struct {
	// Policy bounds TTL and size. Default: DefaultPolicy()
	Policy *Policy

	// Namespace prefixes generated keys.
	// Default: "default"
	Namespace string

	// KeyFunc derives the key from call arguments.
	// Default: DefaultKeyer over Namespace.
	KeyFunc func(args A) (string, error)
}

// Memoize wraps fn so that calls with equal keys share executions and
// successful results are reused for the policy TTL. If the key cannot be
// derived, the call runs uncached.
func Memoize[A, V any](fn func(context.Context, A) (V, error), config MemoizeConfig[A]) func(context.Context, A) (V, error) {
	policy := DefaultPolicy()
	if config.Policy != nil {
		policy = *config.Policy
	}
	if config.Namespace == "" {
		config.Namespace = "default"
	}
	if config.KeyFunc == nil {
		keyer := NewDefaultKeyer()
		namespace := config.Namespace
		config.KeyFunc = func(args A) (string, error) {
			return keyer.Key(namespace, args)
		}
	}

	memo := NewMemo[V](policy)
	keyFunc := config.KeyFunc

	return func(ctx context.Context, args A) (V, error) {
		key, err := keyFunc(args)
		if err != nil {
			return fn(ctx, args)
		}
		return memo.Do(ctx, key, func(ctx context.Context) (V, error) {
			return fn(ctx, args)
		})
	}
}
