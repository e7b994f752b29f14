package observe

import (
	"context"
	"time"
)

// Middleware wraps operations with tracing, metrics, logging and an
// optional Collector.
//
// Contract:
//   - Concurrency: wrapped functions are safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer    Tracer
	metrics   Metrics
	logger    Logger
	collector *Collector
	now       func() time.Time
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithCollector also records every call into c under the operation ID.
// If c has its own Metrics sink, pass a nil Metrics to NewMiddleware to
// avoid counting calls twice.
func WithCollector(c *Collector) MiddlewareOption {
	return func(m *Middleware) {
		m.collector = c
	}
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, opts ...MiddlewareOption) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}

	m := &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MiddlewareFromObserver builds a Middleware from an Observer's tracer,
// meter and logger.
func MiddlewareFromObserver(obs Observer, opts ...MiddlewareOption) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger(), opts...), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap returns fn instrumented for op.
func (m *Middleware) Wrap(op Operation, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := m.now()

		err := fn(ctx)

		duration := m.now().Sub(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordExecution(ctx, op, duration, err == nil)

		if m.collector != nil {
			entry := MetricEntry{Name: op.ID(), Duration: duration, Success: err == nil}
			if err != nil {
				entry.Metadata = map[string]any{"error": err.Error()}
			}
			m.collector.Record(ctx, entry)
		}

		fields := []Field{{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)}}
		opLogger := m.logger.WithOperation(op)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			opLogger.Error(ctx, "operation failed", fields...)
		} else {
			opLogger.Debug(ctx, "operation completed", fields...)
		}

		return err
	}
}

// Observe runs fn for op through m and returns its value.
func Observe[T any](ctx context.Context, m *Middleware, op Operation, fn func(context.Context) (T, error)) (T, error) {
	var v T
	err := m.Wrap(op, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	})(ctx)
	return v, err
}
