package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exposes a Collector's rolling-window statistics as
// Prometheus metrics. Values are computed on each scrape.
//
// Exported series (namespace defaults to "guard"):
//
//	<ns>_collector_duration_seconds{name}  summary with 0.5, 0.95, 0.99 quantiles
//	<ns>_collector_success_ratio{name}     gauge
//	<ns>_collector_entries                 gauge, retained entries
type PrometheusCollector struct {
	source *Collector

	duration *prometheus.Desc
	success  *prometheus.Desc
	entries  *prometheus.Desc
}

var _ prometheus.Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector wraps c for registration with a prometheus.Registerer.
func NewPrometheusCollector(c *Collector, namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "guard"
	}
	return &PrometheusCollector{
		source: c,
		duration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "collector", "duration_seconds"),
			"Duration of recorded calls over the collector window.",
			[]string{"name"}, nil,
		),
		success: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "collector", "success_ratio"),
			"Fraction of recorded calls that succeeded over the collector window.",
			[]string{"name"}, nil,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "collector", "entries"),
			"Number of entries retained by the collector.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.duration
	ch <- p.success
	ch <- p.entries
}

// Collect implements prometheus.Collector. A name that is not a valid
// label value is reported as an invalid metric for that series only.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(p.entries, prometheus.GaugeValue, float64(p.source.Len()))

	for name, s := range p.source.Summary() {
		summary, err := prometheus.NewConstSummary(
			p.duration,
			uint64(s.Count),
			s.Total.Seconds(),
			map[float64]float64{
				0.5:  s.P50.Seconds(),
				0.95: s.P95.Seconds(),
				0.99: s.P99.Seconds(),
			},
			name,
		)
		if err != nil {
			summary = prometheus.NewInvalidMetric(p.duration, err)
		}
		ch <- summary

		ratio, err := prometheus.NewConstMetric(p.success, prometheus.GaugeValue, s.SuccessRate, name)
		if err != nil {
			ratio = prometheus.NewInvalidMetric(p.success, err)
		}
		ch <- ratio
	}
}
