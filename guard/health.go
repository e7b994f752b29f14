package guard

import "github.com/jonwraymond/toolguard/health"

// HealthCheckers returns checkers for the guard's components: the breaker
// state, the cache fill level and, with a collector, the success rate.
// Checker names are prefixed with the operation ID.
func (g *Guard[T]) HealthCheckers() []health.Checker {
	id := g.op.ID()

	var checkers []health.Checker
	if g.breaker != nil {
		checkers = append(checkers, health.NewCircuitChecker(id+".breaker", g.breaker))
	}
	if g.config.Cache.Enabled {
		checkers = append(checkers, health.NewCapacityChecker(id+".cache", g.memo.Cache(), health.CapacityCheckerConfig{}))
	}
	if g.collector != nil {
		checkers = append(checkers, health.NewSuccessRateChecker(id+".success_rate", g.collector, health.SuccessRateCheckerConfig{
			Operation: id,
		}))
	}
	return checkers
}

// RegisterHealth adds HealthCheckers to agg.
func (g *Guard[T]) RegisterHealth(agg *health.Aggregator) {
	for _, c := range g.HealthCheckers() {
		agg.Add(c)
	}
}
