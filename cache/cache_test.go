package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache[K comparable, V any](config Config) (*TimedCache[K, V], *fakeClock) {
	clock := newFakeClock()
	c := NewTimedCache[K, V](config)
	c.now = clock.Now
	return c, clock
}

func TestNewTimedCache_Defaults(t *testing.T) {
	c := NewTimedCache[string, int](Config{})

	if c.Config().DefaultTTL != DefaultTTL {
		t.Errorf("DefaultTTL = %v, want %v", c.Config().DefaultTTL, DefaultTTL)
	}
	if c.Cap() != DefaultMaxSize {
		t.Errorf("Cap() = %d, want %d", c.Cap(), DefaultMaxSize)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestTimedCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache[string, string](Config{MaxSize: 10})

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should return ok=false")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = (%q, %v), want (v, true)", got, ok)
	}
	if !c.Has("k") {
		t.Error("Has(k) = false, want true")
	}

	if !c.Delete("k") {
		t.Error("Delete(k) = false, want true")
	}
	if c.Delete("k") {
		t.Error("second Delete(k) = true, want false")
	}
	if c.Has("k") {
		t.Error("Has(k) after Delete = true, want false")
	}
}

func TestTimedCache_StoredZeroValueIsAHit(t *testing.T) {
	c, _ := newTestCache[string, *int](Config{})

	c.Set("nil", nil)
	got, ok := c.Get("nil")
	if !ok {
		t.Fatal("Get of stored nil should return ok=true")
	}
	if got != nil {
		t.Errorf("Get = %v, want nil", got)
	}
}

func TestTimedCache_TTLBoundary(t *testing.T) {
	ttls := []time.Duration{time.Millisecond, time.Second, 90 * time.Second}

	for _, ttl := range ttls {
		t.Run(ttl.String(), func(t *testing.T) {
			c, clock := newTestCache[string, int](Config{})
			c.SetWithTTL("k", 1, ttl)

			clock.Advance(ttl - time.Nanosecond)
			if _, ok := c.Get("k"); !ok {
				t.Fatalf("Get just before expiry returned ok=false")
			}

			clock.Advance(time.Nanosecond)
			if _, ok := c.Get("k"); ok {
				t.Fatalf("Get at expiry returned ok=true")
			}
			if c.Len() != 0 {
				t.Errorf("Len() after expired read = %d, want 0", c.Len())
			}
		})
	}
}

func TestTimedCache_DefaultTTLApplied(t *testing.T) {
	c, clock := newTestCache[string, int](Config{DefaultTTL: time.Minute})

	c.SetWithTTL("k", 1, -5*time.Second)

	clock.Advance(59 * time.Second)
	if !c.Has("k") {
		t.Error("entry should survive until default TTL")
	}
	clock.Advance(time.Second)
	if c.Has("k") {
		t.Error("entry should expire at default TTL")
	}
}

func TestTimedCache_GetDoesNotExtendExpiry(t *testing.T) {
	c, clock := newTestCache[string, int](Config{})
	c.SetWithTTL("k", 1, 10*time.Second)

	for i := 0; i < 9; i++ {
		clock.Advance(time.Second)
		if _, ok := c.Get("k"); !ok {
			t.Fatalf("Get after %ds returned ok=false", i+1)
		}
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("reads must not push expiry forward")
	}
}

func TestTimedCache_OverwriteResetsExpiry(t *testing.T) {
	c, clock := newTestCache[string, int](Config{})
	c.SetWithTTL("k", 1, 10*time.Second)

	clock.Advance(8 * time.Second)
	c.SetWithTTL("k", 2, 10*time.Second)

	clock.Advance(8 * time.Second)
	got, ok := c.Get("k")
	if !ok || got != 2 {
		t.Errorf("Get(k) = (%d, %v), want (2, true)", got, ok)
	}
}

func TestTimedCache_CapacityInvariant(t *testing.T) {
	const maxSize = 5
	c, clock := newTestCache[string, int](Config{MaxSize: maxSize})

	for i := 0; i < 100; i++ {
		c.SetWithTTL(fmt.Sprintf("k%d", i%17), i, time.Duration(i%7+1)*time.Second)
		if i%3 == 0 {
			_, _ = c.Get(fmt.Sprintf("k%d", i%11))
		}
		clock.Advance(300 * time.Millisecond)

		if c.Len() > maxSize {
			t.Fatalf("after Set #%d Len() = %d, want <= %d", i, c.Len(), maxSize)
		}
	}
}

func TestTimedCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestCache[string, int](Config{MaxSize: 3})

	c.Set("a", 1)
	clock.Advance(time.Millisecond)
	c.Set("b", 2)
	clock.Advance(time.Millisecond)
	c.Set("c", 3)
	clock.Advance(time.Millisecond)

	// Touch a so b becomes the oldest.
	_, _ = c.Get("a")
	clock.Advance(time.Millisecond)

	c.Set("d", 4)

	if c.Has("b") {
		t.Error("b should have been evicted as least recently used")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !c.Has(k) {
			t.Errorf("%s should still be cached", k)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Stats().Evictions = %d, want 1", got)
	}
}

func TestTimedCache_SweepsExpiredBeforeEvicting(t *testing.T) {
	c, clock := newTestCache[string, int](Config{MaxSize: 3})

	c.SetWithTTL("short", 1, time.Second)
	c.SetWithTTL("long1", 2, time.Hour)
	c.SetWithTTL("long2", 3, time.Hour)

	clock.Advance(2 * time.Second)
	c.Set("new", 4)

	for _, k := range []string{"long1", "long2", "new"} {
		if !c.Has(k) {
			t.Errorf("%s should still be cached", k)
		}
	}
	stats := c.Stats()
	if stats.Evictions != 0 {
		t.Errorf("Stats().Evictions = %d, want 0 (expired entry freed the slot)", stats.Evictions)
	}
	if stats.Expirations != 1 {
		t.Errorf("Stats().Expirations = %d, want 1", stats.Expirations)
	}
}

func TestTimedCache_ExpiredEntryHoldsSlotUntilSweep(t *testing.T) {
	c, clock := newTestCache[string, int](Config{MaxSize: 3})

	c.SetWithTTL("a", 1, time.Second)
	clock.Advance(time.Hour)

	// Nothing reads or writes, so the expired entry still occupies a slot.
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (expiry is lazy)", c.Len())
	}
	if c.Has("a") {
		t.Error("Has must not report an expired entry")
	}
}

func TestTimedCache_OverwriteAtCapacityDoesNotEvict(t *testing.T) {
	c, _ := newTestCache[string, int](Config{MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if !c.Has("b") {
		t.Error("overwrite at capacity should not evict other keys")
	}
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("Get(a) = %d, want 10", got)
	}
}

func TestTimedCache_KeysOrderedByRecency(t *testing.T) {
	c, _ := newTestCache[string, int](Config{})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, _ = c.Get("a")

	keys := c.Keys()
	want := []string{"a", "c", "b"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestTimedCache_StatsAndClear(t *testing.T) {
	c, _ := newTestCache[string, int](Config{})

	c.Set("a", 1)
	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if c.Stats() != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v, want zero", c.Stats())
	}
}

func TestTimedCache_ConcurrentAccess(t *testing.T) {
	const maxSize = 50
	c := NewTimedCache[int, int](Config{MaxSize: maxSize})

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := (id*opsPerGoroutine + j) % 200
				switch j % 4 {
				case 0, 1:
					c.Set(key, j)
				case 2:
					_, _ = c.Get(key)
				case 3:
					_ = c.Delete(key)
				}
			}
		}(g)
	}

	wg.Wait()

	if c.Len() > maxSize {
		t.Errorf("Len() = %d, want <= %d", c.Len(), maxSize)
	}
}
