// Package health reports whether guarded upstreams and their supporting
// stores are fit to serve.
//
// A Checker returns a Result with a Status of Healthy, Degraded or
// Unhealthy. The package ships checkers for the toolkit's own components:
//
//   - CircuitChecker: closed is healthy, half-open degraded, open unhealthy.
//   - CapacityChecker: fill ratio of any Len/Cap store such as a cache.
//   - SuccessRateChecker: success rate of one operation over a Collector window.
//
// An Aggregator runs registered checkers concurrently under one deadline and
// reduces them to the most severe status:
//
//	agg := health.NewAggregator()
//	agg.Add(health.NewCircuitChecker("openai", breaker))
//	agg.Add(health.NewCapacityChecker("summaries", summaryCache, health.CapacityCheckerConfig{}))
//
//	report := agg.Report(ctx)
//
// RegisterHandlers exposes /healthz (liveness), /readyz (readiness) and
// /health (detailed JSON) on a ServeMux.
package health
