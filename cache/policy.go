package cache

import "time"

// Policy configures memoization behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, memoized results are not cached (calls are still coalesced).
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// MaxSize bounds the number of memoized results.
	// If zero, DefaultMaxSize is used.
	MaxSize int
}

// DefaultPolicy returns the default memoization policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour, MaxSize: 1000
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: DefaultTTL,
		MaxTTL:     time.Hour,
		MaxSize:    DefaultMaxSize,
	}
}

// NoCachePolicy returns a policy that only coalesces concurrent calls.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// CacheConfig converts the policy into a TimedCache configuration.
func (p Policy) CacheConfig() Config {
	return Config{
		DefaultTTL: p.EffectiveTTL(0),
		MaxSize:    p.MaxSize,
	}
}
