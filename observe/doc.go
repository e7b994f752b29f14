// Package observe provides observability for guarded calls.
//
// Collector is an in-process rolling log of call timings with count,
// success-rate, min/avg/max and p50/p95/p99 queries. It is constructed and
// passed explicitly; there is no package-level instance.
//
// Observer builds OpenTelemetry tracer and meter providers from Config, and
// Middleware combines a Tracer, Metrics, Logger and optional Collector
// around an operation. PrometheusCollector exposes Collector statistics to
// a Prometheus registry and RegisterBreakerGauge publishes a circuit
// breaker's state as an OpenTelemetry gauge.
//
// Logger is backed by log/slog and redacts the keys in RedactedFields.
package observe
