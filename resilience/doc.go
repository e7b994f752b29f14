// Package resilience provides failure-isolation patterns for upstream calls.
//
// The patterns can be used on their own or composed with an Executor:
//
//   - Circuit Breaker: stops calling a failing upstream after a run of
//     consecutive failures, then probes it after a cooldown.
//
//   - Retry: re-runs a failed operation with exponential, linear or
//     constant backoff. The default schedule is deterministic; jitter is
//     opt-in.
//
//   - Rate Limiter: token bucket backed by golang.org/x/time/rate.
//
//   - Bulkhead: caps concurrent calls using a weighted semaphore.
//
//   - Timeout: stops waiting for an operation after a deadline. The
//     operation's context is cancelled, but work that ignores its context
//     keeps running to completion in the background.
//
// Policy rejections are distinguishable from upstream failures:
// ErrCircuitOpen, ErrRateLimitExceeded and ErrBulkheadFull are returned
// without invoking the operation, and an exhausted Retry returns a
// *RetryError that matches both ErrMaxRetriesExceeded and the final
// attempt's error.
//
// # Usage
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold:  5,
//	    ResetTimeout:      30 * time.Second,
//	    HalfOpenSuccesses: 2,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  5,
//	    InitialDelay: 100 * time.Millisecond,
//	    MaxDelay:     time.Second,
//	    Multiplier:   2.0,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	doc, err := resilience.Run(ctx, executor, func(ctx context.Context) (*Document, error) {
//	    return fetchDocument(ctx, id)
//	})
package resilience
