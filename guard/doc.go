// Package guard composes the toolkit into a single wrapper for calls to an
// unreliable upstream such as an LLM provider or a search index.
//
// A Guard built from Config memoizes successful results by key, coalesces
// concurrent misses, and runs executed calls through an optional rate
// limiter and bulkhead, then a circuit breaker, retry with backoff and a
// per-attempt timeout. Every executed call is traced, metered and recorded
// into an observe.Collector when one is supplied.
//
//	cfg, err := guard.LoadConfig("guard.yaml")
//	if err != nil {
//		return err
//	}
//	g, err := guard.New[string](cfg, guard.WithLogger(logger), guard.WithCollector(collector))
//	if err != nil {
//		return err
//	}
//	summary, err := g.Do(ctx, docID, func(ctx context.Context) (string, error) {
//		return client.Summarize(ctx, doc)
//	})
//
// Classify maps any returned error to the policy that produced it, and
// DoWithFallback substitutes a degraded result when the upstream cannot
// be reached.
package guard
