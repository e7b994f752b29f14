package guard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/toolguard/cache"
	"github.com/jonwraymond/toolguard/resilience"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("op")

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Bulkhead.Enabled)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GUARD_TEST_UPSTREAM", "openai")

	cfg, err := LoadConfig(filepath.Join("testdata", "guard.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "summarize", cfg.Name)
	assert.Equal(t, "llm", cfg.Namespace)
	assert.Equal(t, "openai", cfg.Upstream)
	assert.Equal(t, CacheConfig{Enabled: true, TTL: 10 * time.Minute, MaxTTL: time.Hour, MaxSize: 500}, cfg.Cache)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 45*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, 1, cfg.Breaker.HalfOpenSuccesses)
	assert.Equal(t, 1, cfg.Breaker.HalfOpenMaxRequests, "unset fields keep their defaults")
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, resilience.BackoffLinear, cfg.retryStrategy())
	assert.True(t, cfg.Retry.Jitter)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, RateLimitConfig{Enabled: true, Rate: 5, Burst: 2, Wait: true, MaxWait: 2 * time.Second}, cfg.RateLimit)
	assert.Equal(t, BulkheadConfig{Enabled: true, MaxConcurrent: 8}, cfg.Bulkhead)
}

func TestLoadConfig_MissingEnv(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "guard.yaml"))
	require.ErrorIs(t, err, ErrMissingEnv)
	assert.Contains(t, err.Error(), "GUARD_TEST_UPSTREAM")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "absent.yaml"))
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "minimal keeps defaults",
			yaml: "name: search\n",
			check: func(t *testing.T, cfg Config) {
				want := DefaultConfig("search")
				assert.Equal(t, want, cfg)
			},
		},
		{
			name: "disable components",
			yaml: "name: search\ncache: {enabled: false}\nretry: {enabled: false}\ntimeout: 0s\n",
			check: func(t *testing.T, cfg Config) {
				assert.False(t, cfg.Cache.Enabled)
				assert.False(t, cfg.Retry.Enabled)
				assert.Zero(t, cfg.Timeout)
				assert.Equal(t, cache.NoCachePolicy(), cfg.policy())
			},
		},
		{
			name: "literal dollar",
			yaml: "name: price$$\n",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "price$", cfg.Name)
			},
		},
		{name: "empty document", yaml: "", wantErr: ErrInvalidConfig},
		{name: "unknown field", yaml: "name: x\nretries: 3\n", wantErr: ErrInvalidConfig},
		{name: "bad duration", yaml: "name: x\ntimeout: soon\n", wantErr: ErrInvalidConfig},
		{name: "unknown strategy", yaml: "name: x\nretry: {strategy: fibonacci}\n", wantErr: ErrInvalidConfig},
		{name: "ttl above max", yaml: "name: x\ncache: {ttl: 2h, max_ttl: 1h}\n", wantErr: ErrInvalidConfig},
		{name: "negative timeout", yaml: "name: x\ntimeout: -1s\n", wantErr: ErrInvalidConfig},
		{name: "negative bulkhead", yaml: "name: x\nbulkhead: {enabled: true, max_concurrent: -1}\n", wantErr: ErrInvalidConfig},
		{name: "missing env", yaml: "name: ${GUARD_TEST_UNSET_VAR}\n", wantErr: ErrMissingEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.yaml))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Policy(t *testing.T) {
	cfg := DefaultConfig("op")
	cfg.Cache.TTL = 0
	cfg.Cache.MaxTTL = 0

	p := cfg.policy()
	assert.True(t, p.ShouldCache())
	assert.Equal(t, cache.DefaultTTL, p.DefaultTTL)
}
