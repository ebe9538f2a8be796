// Package metrics provides Prometheus instrumentation for the poll engine.
//
// All metrics are exposed via the /metrics HTTP endpoint for Prometheus
// scraping.
//
// Metrics exposed:
//   - servermonitor_poll_cycles_total: Counter of completed poll cycles by target
//   - servermonitor_fetch_errors_total: Counter of failed fetches by target
//   - servermonitor_fetch_duration_seconds: Histogram of fetch durations by target
//   - servermonitor_targets_monitored: Gauge of configured targets
//   - servermonitor_targets_healthy: Gauge of targets whose last fetch succeeded
//   - servermonitor_targets_errored: Gauge of targets whose last fetch failed
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PollCyclesTotal  *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	TargetsMonitored prometheus.Gauge
	TargetsHealthy   prometheus.Gauge
	TargetsErrored   prometheus.Gauge
}

// New registers the engine metrics against reg. Taking the registerer as a
// parameter keeps tests isolated from the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PollCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "servermonitor_poll_cycles_total",
			Help: "Total number of completed poll cycles by target",
		}, []string{"target"}),

		FetchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "servermonitor_fetch_errors_total",
			Help: "Total number of failed fetches by target",
		}, []string{"target"}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servermonitor_fetch_duration_seconds",
			Help:    "Duration of target fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),

		TargetsMonitored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "servermonitor_targets_monitored",
			Help: "Number of configured targets",
		}),

		TargetsHealthy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "servermonitor_targets_healthy",
			Help: "Number of targets whose last fetch succeeded",
		}),

		TargetsErrored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "servermonitor_targets_errored",
			Help: "Number of targets whose last fetch failed",
		}),
	}
}

func (m *Metrics) RecordPollCycle(target string) {
	m.PollCyclesTotal.WithLabelValues(target).Inc()
}

func (m *Metrics) RecordFetchError(target string) {
	m.FetchErrorsTotal.WithLabelValues(target).Inc()
}

func (m *Metrics) ObserveFetchDuration(target string, seconds float64) {
	m.FetchDuration.WithLabelValues(target).Observe(seconds)
}

func (m *Metrics) SetTargetCounts(monitored, healthy, errored int) {
	m.TargetsMonitored.Set(float64(monitored))
	m.TargetsHealthy.Set(float64(healthy))
	m.TargetsErrored.Set(float64(errored))
}
