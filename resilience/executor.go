package resilience

import (
	"context"
	"time"
)

// Executor composes multiple resilience patterns around one upstream.
//
// The layers are applied outermost first:
//  1. Rate limiter
//  2. Bulkhead
//  3. Circuit breaker
//  4. Retry
//  5. Timeout (per attempt)
//
// The breaker sees one outcome per Execute call, so a call that succeeds on
// retry does not count as a failure, and an exhausted retry counts once.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout

	layers []Runner
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}

	// outermost first
	if e.rateLimiter != nil {
		e.layers = append(e.layers, e.rateLimiter)
	}
	if e.bulkhead != nil {
		e.layers = append(e.layers, e.bulkhead)
	}
	if e.circuitBreaker != nil {
		e.layers = append(e.layers, e.circuitBreaker)
	}
	if e.retry != nil {
		e.layers = append(e.layers, e.retry)
	}
	if e.timeout != nil {
		e.layers = append(e.layers, e.timeout)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a configured timeout to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead {
	return e.bulkhead
}

// Execute runs the operation through all configured resilience patterns.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op
	for i := len(e.layers) - 1; i >= 0; i-- {
		layer, inner := e.layers[i], execute
		execute = func(ctx context.Context) error {
			return layer.Execute(ctx, inner)
		}
	}
	return execute(ctx)
}
