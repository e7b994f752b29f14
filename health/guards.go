package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolguard/observe"
	"github.com/jonwraymond/toolguard/resilience"
)

// CircuitChecker reports a circuit breaker's state: closed is healthy,
// half-open is degraded and open is unhealthy.
type CircuitChecker struct {
	name string
	cb   *resilience.CircuitBreaker
}

// NewCircuitChecker creates a checker for cb.
func NewCircuitChecker(name string, cb *resilience.CircuitBreaker) *CircuitChecker {
	return &CircuitChecker{name: name, cb: cb}
}

// Name returns the checker name.
func (c *CircuitChecker) Name() string {
	return c.name
}

// Check reports the breaker's current state.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	m := c.cb.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}
	if !m.LastFailure.IsZero() {
		details["last_failure"] = m.LastFailure
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open, probing upstream").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}

// Sized is any bounded store that reports its fill level, such as
// cache.TimedCache or observe.Collector.
type Sized interface {
	Len() int
	Cap() int
}

// CapacityCheckerConfig configures a CapacityChecker.
type CapacityCheckerConfig struct {
	// WarningThreshold is the fill ratio at or above which the store is
	// degraded. Value should be in (0, 1]. Default: 0.9
	WarningThreshold float64

	// CriticalThreshold is the fill ratio at or above which the store is
	// unhealthy. Zero disables the unhealthy state.
	CriticalThreshold float64
}

// CapacityChecker reports how full a bounded store is.
type CapacityChecker struct {
	name   string
	store  Sized
	config CapacityCheckerConfig
}

// NewCapacityChecker creates a checker for store.
func NewCapacityChecker(name string, store Sized, config CapacityCheckerConfig) *CapacityChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold > 1 {
		config.WarningThreshold = 0.9
	}
	if config.CriticalThreshold < 0 || config.CriticalThreshold > 1 {
		config.CriticalThreshold = 0
	}
	return &CapacityChecker{name: name, store: store, config: config}
}

// Name returns the checker name.
func (c *CapacityChecker) Name() string {
	return c.name
}

// Check reports the store's fill ratio.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	size, capacity := c.store.Len(), c.store.Cap()
	if capacity <= 0 {
		return Healthy("unbounded").WithDetails(map[string]any{"len": size})
	}

	ratio := float64(size) / float64(capacity)
	details := map[string]any{
		"len":          size,
		"cap":          capacity,
		"fill_percent": ratio * 100,
	}

	switch {
	case c.config.CriticalThreshold > 0 && ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("capacity critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("capacity high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("capacity normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}

// SuccessRateCheckerConfig configures a SuccessRateChecker.
type SuccessRateCheckerConfig struct {
	// Operation is the Collector name to inspect.
	Operation string

	// MinSamples is the number of entries required before the rate is
	// judged. Default: 10
	MinSamples int

	// DegradedBelow is the success rate under which the operation is
	// degraded. Default: 0.95
	DegradedBelow float64

	// UnhealthyBelow is the success rate under which the operation is
	// unhealthy. Default: 0.5
	UnhealthyBelow float64
}

// SuccessRateChecker judges an operation by its success rate over the
// Collector's window.
type SuccessRateChecker struct {
	name      string
	collector *observe.Collector
	config    SuccessRateCheckerConfig
}

// NewSuccessRateChecker creates a checker over collector.
func NewSuccessRateChecker(name string, collector *observe.Collector, config SuccessRateCheckerConfig) *SuccessRateChecker {
	if config.Operation == "" {
		config.Operation = name
	}
	if config.MinSamples <= 0 {
		config.MinSamples = 10
	}
	if config.DegradedBelow <= 0 || config.DegradedBelow > 1 {
		config.DegradedBelow = 0.95
	}
	if config.UnhealthyBelow <= 0 || config.UnhealthyBelow > config.DegradedBelow {
		config.UnhealthyBelow = min(0.5, config.DegradedBelow)
	}
	return &SuccessRateChecker{name: name, collector: collector, config: config}
}

// Name returns the checker name.
func (c *SuccessRateChecker) Name() string {
	return c.name
}

// Check reports the operation's success rate.
func (c *SuccessRateChecker) Check(ctx context.Context) Result {
	stats, ok := c.collector.Stats(c.config.Operation)
	if !ok || stats.Count < c.config.MinSamples {
		return Healthy("insufficient samples").WithDetails(map[string]any{
			"samples":     stats.Count,
			"min_samples": c.config.MinSamples,
		})
	}

	details := map[string]any{
		"samples":      stats.Count,
		"success_rate": stats.SuccessRate,
		"p95":          stats.P95.String(),
	}
	msg := fmt.Sprintf("success rate %.1f%% over %d calls", stats.SuccessRate*100, stats.Count)

	switch {
	case stats.SuccessRate < c.config.UnhealthyBelow:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case stats.SuccessRate < c.config.DegradedBelow:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}
