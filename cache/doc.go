// Package cache provides in-process memoization primitives.
//
// TimedCache is a TTL- and capacity-bounded LRU store with lazy expiry.
// Deduplicator coalesces concurrent calls sharing a key. Memo and Memoize
// combine the two so identical concurrent calls share one execution and
// identical calls inside the TTL window skip execution entirely.
package cache
