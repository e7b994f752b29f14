package guard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/toolguard/cache"
	"github.com/jonwraymond/toolguard/resilience"
)

// Config describes the policies applied to one guarded operation.
//
// Durations are Go duration strings in YAML ("250ms", "30s").
type Config struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
	Upstream  string `yaml:"upstream"`

	Cache     CacheConfig     `yaml:"cache"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Retry     RetryConfig     `yaml:"retry"`
	Timeout   time.Duration   `yaml:"timeout"` // zero disables
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Bulkhead  BulkheadConfig  `yaml:"bulkhead"`
}

// CacheConfig configures result memoization.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	MaxTTL  time.Duration `yaml:"max_ttl"`
	MaxSize int           `yaml:"max_size"`
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	FailureThreshold    int           `yaml:"failure_threshold"`
	ResetTimeout        time.Duration `yaml:"reset_timeout"`
	HalfOpenSuccesses   int           `yaml:"half_open_successes"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// RetryConfig configures retries.
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Strategy     string        `yaml:"strategy"` // exponential|linear|constant
	Jitter       bool          `yaml:"jitter"`
}

// RateLimitConfig configures the token bucket.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rate    float64       `yaml:"rate"`
	Burst   int           `yaml:"burst"`
	Wait    bool          `yaml:"wait"`
	MaxWait time.Duration `yaml:"max_wait"`
}

// BulkheadConfig configures the concurrency limit.
type BulkheadConfig struct {
	Enabled       bool          `yaml:"enabled"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait"`
}

// ValidRetryStrategies lists accepted RetryConfig.Strategy values.
var ValidRetryStrategies = []string{"", "exponential", "linear", "constant"}

// DefaultConfig returns the policies used when a field is not set: a
// 5 minute cache, a breaker opening after 5 failures, 3 exponential retry
// attempts and a 30 second timeout.
func DefaultConfig(name string) Config {
	return Config{
		Name: name,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     cache.DefaultTTL,
			MaxTTL:  time.Hour,
			MaxSize: cache.DefaultMaxSize,
		},
		Breaker: BreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			ResetTimeout:        30 * time.Second,
			HalfOpenSuccesses:   2,
			HalfOpenMaxRequests: 1,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
			Strategy:     "exponential",
		},
		Timeout: 30 * time.Second,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Name == "":
		return invalid("name is required")
	case c.Timeout < 0:
		return invalid("timeout must not be negative, got %s", c.Timeout)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL < 0 || c.Cache.MaxTTL < 0 || c.Cache.MaxSize < 0 {
			return invalid("cache ttl, max_ttl and max_size must not be negative")
		}
		if c.Cache.MaxTTL > 0 && c.Cache.TTL > c.Cache.MaxTTL {
			return invalid("cache ttl %s exceeds max_ttl %s", c.Cache.TTL, c.Cache.MaxTTL)
		}
	}

	if c.Breaker.Enabled {
		if c.Breaker.FailureThreshold < 0 || c.Breaker.HalfOpenSuccesses < 0 || c.Breaker.HalfOpenMaxRequests < 0 {
			return invalid("breaker thresholds must not be negative")
		}
		if c.Breaker.ResetTimeout < 0 {
			return invalid("breaker reset_timeout must not be negative")
		}
	}

	if c.Retry.Enabled {
		if !slices.Contains(ValidRetryStrategies, c.Retry.Strategy) {
			return invalid("unknown retry strategy %q", c.Retry.Strategy)
		}
		if c.Retry.MaxAttempts < 0 || c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 || c.Retry.Multiplier < 0 {
			return invalid("retry settings must not be negative")
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.Rate < 0 || c.RateLimit.Burst < 0 || c.RateLimit.MaxWait < 0) {
		return invalid("rate_limit settings must not be negative")
	}

	if c.Bulkhead.Enabled && (c.Bulkhead.MaxConcurrent < 0 || c.Bulkhead.MaxWait < 0) {
		return invalid("bulkhead settings must not be negative")
	}

	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// ${VAR} references are expanded from the environment first; a reference
// to an unset variable is an error. $$ produces a literal $.
func ParseConfig(data []byte) (Config, error) {
	expanded, err := expandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig("")
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("guard: read config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) policy() cache.Policy {
	if !c.Cache.Enabled {
		return cache.NoCachePolicy()
	}
	p := cache.Policy{DefaultTTL: c.Cache.TTL, MaxTTL: c.Cache.MaxTTL, MaxSize: c.Cache.MaxSize}
	if p.DefaultTTL == 0 {
		p.DefaultTTL = cache.DefaultTTL
	}
	return p
}

func (c Config) retryStrategy() resilience.BackoffStrategy {
	switch c.Retry.Strategy {
	case "linear":
		return resilience.BackoffLinear
	case "constant":
		return resilience.BackoffConstant
	default:
		return resilience.BackoffExponential
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnvStrict(s string) (string, error) {
	const dollar = "\x00GUARD_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok && !slices.Contains(missing, match[1]) {
			missing = append(missing, match[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.Expand(s, os.Getenv)
	return strings.ReplaceAll(s, dollar, "$"), nil
}
