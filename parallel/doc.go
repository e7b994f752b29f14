// Package parallel runs a function over a slice with bounded concurrency.
//
// Map spawns min(Concurrency, len(items)) workers that claim indices from a
// shared cursor and write each result into the slot for that index, so the
// output order matches the input order regardless of completion order.
//
// Two failure modes are supported:
//
//   - Collect (default): every item runs. When any item fails, Map returns
//     the partial results and a *BatchError carrying the per-index errors.
//
//   - StopOnError: the first failure stops further claims and cancels the
//     context passed to in-flight items. Map waits for those items to settle
//     and returns an *ItemError for the first failure.
//
// Example:
//
//	summaries, err := parallel.Map(ctx, files, summarize, parallel.Config{
//	    Concurrency: 3,
//	    OnProgress: func(done, total int) {
//	        logger.Debug(ctx, "summarized", observe.Field{Key: "done", Value: done})
//	    },
//	})
package parallel
