package cache

import (
	"container/list"
	"sync"
	"time"
)

// Default sizing used when a Config field is left zero.
const (
	DefaultMaxSize = 1000
	DefaultTTL     = 5 * time.Minute
)

// Config configures a TimedCache.
type Config struct {
	// DefaultTTL is applied when Set is called without a positive TTL.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// MaxSize bounds the number of entries held at once.
	// Default: 1000
	MaxSize int
}

// Entry is a single cached value with its expiry and recency bookkeeping.
type Entry[V any] struct {
	Value      V
	Expiry     time.Time
	LastAccess time.Time
}

type node[K comparable, V any] struct {
	key   K
	entry Entry[V]
}

// TimedCache is a capacity- and TTL-bounded store with least-recently-used
// eviction.
//
// Expiry is enforced lazily: Get drops an entry it finds expired, and a Set
// that hits capacity sweeps every expired entry before evicting by recency.
// There is no background reaper, so an expired entry that is never read
// keeps its slot until the next capacity-triggered sweep.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Get never errors; it returns (zero, false) on miss or expiry.
type TimedCache[K comparable, V any] struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	entries map[K]*list.Element
	// recency holds *node values; front is most recently used.
	recency *list.List
	stats   Stats
}

// Stats counts cache outcomes since creation or the last Clear.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// NewTimedCache creates an empty cache.
func NewTimedCache[K comparable, V any](config Config) *TimedCache[K, V] {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTTL
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}

	return &TimedCache[K, V]{
		config:  config,
		now:     time.Now,
		entries: make(map[K]*list.Element),
		recency: list.New(),
	}
}

// Get returns the value for key. A hit refreshes the entry's recency.
func (c *TimedCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	now := c.now()
	n := el.Value.(*node[K, V])
	if !now.Before(n.entry.Expiry) {
		c.removeLocked(el)
		c.stats.Expirations++
		c.stats.Misses++
		return zero, false
	}

	n.entry.LastAccess = now
	c.recency.MoveToFront(el)
	c.stats.Hits++
	return n.entry.Value, true
}

// Set stores value under key with the default TTL.
func (c *TimedCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A non-positive ttl uses the default.
// Overwriting resets both expiry and recency.
func (c *TimedCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := Entry[V]{
		Value:      value,
		Expiry:     now.Add(ttl),
		LastAccess: now,
	}

	if el, ok := c.entries[key]; ok {
		el.Value.(*node[K, V]).entry = entry
		c.recency.MoveToFront(el)
		return
	}

	if len(c.entries) >= c.config.MaxSize {
		c.evictLocked(now)
	}

	c.entries[key] = c.recency.PushFront(&node[K, V]{key: key, entry: entry})
}

// Has reports whether key holds an unexpired value. It does not affect recency.
func (c *TimedCache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.now().Before(el.Value.(*node[K, V]).entry.Expiry)
}

// Delete removes key and reports whether it was present.
func (c *TimedCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// Len returns the number of held entries, including expired ones not yet swept.
func (c *TimedCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cap returns the configured maximum size.
func (c *TimedCache[K, V]) Cap() int {
	return c.config.MaxSize
}

// Keys returns held keys from most to least recently used.
func (c *TimedCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for el := c.recency.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*node[K, V]).key)
	}
	return keys
}

// Clear drops every entry and resets stats.
func (c *TimedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.recency.Init()
	c.stats = Stats{}
}

// Stats returns a snapshot of the outcome counters.
func (c *TimedCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Config returns the cache configuration with defaults applied.
func (c *TimedCache[K, V]) Config() Config {
	return c.config
}

// evictLocked sweeps expired entries, then drops the least recently used
// entry if the cache is still full.
func (c *TimedCache[K, V]) evictLocked(now time.Time) {
	for el := c.recency.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*node[K, V]).entry.Expiry) {
			c.removeLocked(el)
			c.stats.Expirations++
		}
		el = prev
	}

	if len(c.entries) < c.config.MaxSize {
		return
	}

	if oldest := c.recency.Back(); oldest != nil {
		c.removeLocked(oldest)
		c.stats.Evictions++
	}
}

func (c *TimedCache[K, V]) removeLocked(el *list.Element) {
	n := c.recency.Remove(el).(*node[K, V])
	delete(c.entries, n.key)
}
