package guard

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/toolguard/cache"
	"github.com/jonwraymond/toolguard/observe"
	"github.com/jonwraymond/toolguard/resilience"
)

type options struct {
	logger    observe.Logger
	tracer    observe.Tracer
	meter     metric.Meter
	collector *observe.Collector
	retryIf   func(error) bool
	isFailure func(error) bool
}

// Option customizes a Guard.
type Option func(*options)

// WithLogger sets the logger for breaker transitions, retries and fallbacks.
func WithLogger(l observe.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer wraps every executed call in a span.
func WithTracer(t observe.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter records call counters and durations on m and publishes the
// breaker state as a gauge.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithCollector records every executed call into c under the operation ID.
// Cache hits are not recorded.
func WithCollector(c *observe.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithRetryIf limits retries to errors for which fn returns true.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// WithIsFailure limits the errors the breaker counts as failures.
func WithIsFailure(fn func(error) bool) Option {
	return func(o *options) { o.isFailure = fn }
}

// Guard protects calls to one upstream operation.
//
// A call with a non-empty key first consults the memo: a cached value is
// returned immediately and concurrent misses share one execution. An
// executed call is traced, metered and recorded, then passes the rate
// limiter, bulkhead, circuit breaker, retry and timeout in that order.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: upstream errors are returned unchanged or wrapped so that
//   errors.Is still matches them; Classify reports which policy produced
//   an error.
type Guard[T any] struct {
	config    Config
	op        observe.Operation
	logger    observe.Logger
	memo      *cache.Memo[T]
	mw        *observe.Middleware
	exec      *resilience.Executor
	breaker   *resilience.CircuitBreaker
	collector *observe.Collector
	gauge     metric.Registration
}

// New validates cfg and builds a Guard.
func New[T any](cfg Config, opts ...Option) (*Guard[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	op := observe.Operation{Name: cfg.Name, Namespace: cfg.Namespace, Upstream: cfg.Upstream}
	logger := o.logger.WithOperation(op)

	g := &Guard[T]{
		config:    cfg,
		op:        op,
		logger:    logger,
		memo:      cache.NewMemo[T](cfg.policy()),
		collector: o.collector,
	}

	var execOpts []resilience.ExecutorOption

	if cfg.RateLimit.Enabled {
		execOpts = append(execOpts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        cfg.RateLimit.Rate,
			Burst:       cfg.RateLimit.Burst,
			WaitOnLimit: cfg.RateLimit.Wait,
			MaxWait:     cfg.RateLimit.MaxWait,
		})))
	}

	if cfg.Bulkhead.Enabled {
		execOpts = append(execOpts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.Bulkhead.MaxConcurrent,
			MaxWait:       cfg.Bulkhead.MaxWait,
		})))
	}

	if cfg.Breaker.Enabled {
		g.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold:    cfg.Breaker.FailureThreshold,
			ResetTimeout:        cfg.Breaker.ResetTimeout,
			HalfOpenSuccesses:   cfg.Breaker.HalfOpenSuccesses,
			HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
			IsFailure:           o.isFailure,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "circuit state changed",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})
		execOpts = append(execOpts, resilience.WithCircuitBreaker(g.breaker))
	}

	if cfg.Retry.Enabled {
		execOpts = append(execOpts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			Strategy:     cfg.retryStrategy(),
			Jitter:       cfg.Retry.Jitter,
			RetryIf:      o.retryIf,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Debug(context.Background(), "retrying",
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
					observe.Field{Key: "error", Value: err},
				)
			},
		})))
	}

	if cfg.Timeout > 0 {
		execOpts = append(execOpts, resilience.WithTimeout(cfg.Timeout))
	}

	g.exec = resilience.NewExecutor(execOpts...)

	var metrics observe.Metrics
	if o.meter != nil {
		m, err := observe.NewMetrics(o.meter)
		if err != nil {
			return nil, err
		}
		metrics = m
		if g.breaker != nil {
			reg, err := observe.RegisterBreakerGauge(o.meter, op.ID(), g.breaker)
			if err != nil {
				return nil, err
			}
			g.gauge = reg
		}
	}

	var mwOpts []observe.MiddlewareOption
	if o.collector != nil {
		mwOpts = append(mwOpts, observe.WithCollector(o.collector))
	}
	g.mw = observe.NewMiddleware(o.tracer, metrics, logger, mwOpts...)

	return g, nil
}

// Do returns the value for key, running fn through the guard's policies on
// a cache miss. An empty key bypasses the memo.
func (g *Guard[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilFunc
	}
	if key == "" {
		return g.execute(ctx, fn)
	}
	return g.memo.Do(ctx, key, func(ctx context.Context) (T, error) {
		return g.execute(ctx, fn)
	})
}

// DoWithFallback is Do, but when the guarded call fails for any reason other
// than the caller's own cancellation, fallback produces the result instead.
// Fallback results are not cached.
func (g *Guard[T]) DoWithFallback(ctx context.Context, key string, fn func(context.Context) (T, error), fallback func(context.Context, error) (T, error)) (T, error) {
	v, err := g.Do(ctx, key, fn)
	if err == nil || fallback == nil {
		return v, err
	}
	kind := Classify(err)
	if kind == KindCanceled && ctx.Err() != nil {
		return v, err
	}

	g.logger.Warn(ctx, "using fallback",
		observe.Field{Key: "kind", Value: kind.String()},
		observe.Field{Key: "error", Value: err},
	)
	return fallback(ctx, err)
}

func (g *Guard[T]) execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return observe.Observe(ctx, g.mw, g.op, func(ctx context.Context) (T, error) {
		return resilience.Run(ctx, g.exec, fn)
	})
}

// Forget drops any cached value for key.
func (g *Guard[T]) Forget(key string) bool {
	return g.memo.Forget(key)
}

// Operation returns the operation identity used in telemetry.
func (g *Guard[T]) Operation() observe.Operation {
	return g.op
}

// Config returns the configuration the guard was built from.
func (g *Guard[T]) Config() Config {
	return g.config
}

// Breaker returns the circuit breaker, or nil when disabled.
func (g *Guard[T]) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Cache returns the memo's backing cache.
func (g *Guard[T]) Cache() *cache.TimedCache[string, T] {
	return g.memo.Cache()
}

// Collector returns the collector set with WithCollector, or nil.
func (g *Guard[T]) Collector() *observe.Collector {
	return g.collector
}

// Close unregisters the breaker gauge.
func (g *Guard[T]) Close() error {
	if g.gauge == nil {
		return nil
	}
	return g.gauge.Unregister()
}
