package observe

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the Collector log when CollectorConfig.MaxEntries
// is not positive.
const DefaultMaxEntries = 10000

// MetricEntry is one recorded call. Entries are immutable once recorded.
type MetricEntry struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Timestamp time.Time
	Metadata  map[string]any
}

// Stats aggregates the entries recorded under one name.
type Stats struct {
	Count       int
	SuccessRate float64 // 0.0-1.0
	Total       time.Duration
	Avg         time.Duration
	Min         time.Duration
	Max         time.Duration
	P50         time.Duration
	P95         time.Duration
	P99         time.Duration
}

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	// MaxEntries bounds the log; the oldest entries are dropped first.
	// Default: 10000
	MaxEntries int

	// Metrics, when set, also receives every recorded entry.
	Metrics Metrics
}

// Collector is a bounded in-process log of call timings and outcomes with
// on-demand aggregate queries.
//
// It is a rolling window, not a durable store: once MaxEntries is exceeded
// the oldest entries are discarded.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording never fails and never masks a measured error.
type Collector struct {
	config CollectorConfig
	now    func() time.Time

	mu   sync.Mutex
	ring []MetricEntry
	head int // index of the oldest entry
	size int
}

// NewCollector creates an empty Collector.
func NewCollector(config CollectorConfig) *Collector {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}
	return &Collector{
		config: config,
		now:    time.Now,
	}
}

// Record appends entry, stamping it with the current time.
func (c *Collector) Record(ctx context.Context, entry MetricEntry) {
	entry.Timestamp = c.now()
	entry.Metadata = maps.Clone(entry.Metadata)

	c.mu.Lock()
	c.appendLocked(entry)
	c.mu.Unlock()

	c.config.Metrics.RecordExecution(ctx, Operation{Name: entry.Name}, entry.Duration, entry.Success)
}

func (c *Collector) appendLocked(entry MetricEntry) {
	if c.ring == nil {
		c.ring = make([]MetricEntry, 0, min(c.config.MaxEntries, 64))
	}

	if c.size < c.config.MaxEntries {
		if len(c.ring) < c.config.MaxEntries {
			c.ring = append(c.ring, entry)
		} else {
			c.ring[(c.head+c.size)%len(c.ring)] = entry
		}
		c.size++
		return
	}

	// Full: overwrite the oldest.
	c.ring[c.head] = entry
	c.head = (c.head + 1) % len(c.ring)
}

// Measure runs fn and records its duration and outcome under name.
// The entry is recorded before fn's error is returned.
func (c *Collector) Measure(ctx context.Context, name string, fn func(context.Context) error) error {
	start := c.now()
	err := fn(ctx)
	c.Record(ctx, MetricEntry{
		Name:     name,
		Duration: c.now().Sub(start),
		Success:  err == nil,
	})
	return err
}

// MeasureValue is Measure for functions that return a value.
func MeasureValue[T any](ctx context.Context, c *Collector, name string, fn func(context.Context) (T, error)) (T, error) {
	var v T
	err := c.Measure(ctx, name, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	})
	return v, err
}

// Stats aggregates every retained entry recorded under name. It reports
// false when there are none.
//
// Percentiles index the ascending durations at floor(n*p/100), clamped to
// the last element.
func (c *Collector) Stats(name string) (Stats, bool) {
	c.mu.Lock()
	var durations []time.Duration
	successes := 0
	c.eachLocked(func(e MetricEntry) {
		if e.Name != name {
			return
		}
		durations = append(durations, e.Duration)
		if e.Success {
			successes++
		}
	})
	c.mu.Unlock()

	if len(durations) == 0 {
		return Stats{}, false
	}
	return computeStats(durations, successes), true
}

func computeStats(durations []time.Duration, successes int) Stats {
	slices.Sort(durations)
	n := len(durations)

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return Stats{
		Count:       n,
		SuccessRate: float64(successes) / float64(n),
		Total:       total,
		Avg:         total / time.Duration(n),
		Min:         durations[0],
		Max:         durations[n-1],
		P50:         percentile(durations, 50),
		P95:         percentile(durations, 95),
		P99:         percentile(durations, 99),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Names returns the distinct recorded names in ascending order.
func (c *Collector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	c.eachLocked(func(e MetricEntry) {
		seen[e.Name] = struct{}{}
	})
	return slices.Sorted(maps.Keys(seen))
}

// Summary returns Stats for every recorded name.
func (c *Collector) Summary() map[string]Stats {
	type acc struct {
		durations []time.Duration
		successes int
	}

	c.mu.Lock()
	byName := make(map[string]*acc)
	c.eachLocked(func(e MetricEntry) {
		a := byName[e.Name]
		if a == nil {
			a = &acc{}
			byName[e.Name] = a
		}
		a.durations = append(a.durations, e.Duration)
		if e.Success {
			a.successes++
		}
	})
	c.mu.Unlock()

	out := make(map[string]Stats, len(byName))
	for name, a := range byName {
		out[name] = computeStats(a.durations, a.successes)
	}
	return out
}

// Entries returns the retained entries for name, oldest first.
// An empty name returns every entry.
func (c *Collector) Entries(name string) []MetricEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []MetricEntry
	c.eachLocked(func(e MetricEntry) {
		if name == "" || e.Name == name {
			e.Metadata = maps.Clone(e.Metadata)
			out = append(out, e)
		}
	})
	return out
}

// Len returns the number of retained entries.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Cap returns MaxEntries.
func (c *Collector) Cap() int {
	return c.config.MaxEntries
}

// Reset discards every entry.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = nil
	c.head = 0
	c.size = 0
}

// eachLocked visits retained entries oldest first.
func (c *Collector) eachLocked(fn func(MetricEntry)) {
	for i := 0; i < c.size; i++ {
		fn(c.ring[(c.head+i)%len(c.ring)])
	}
}
