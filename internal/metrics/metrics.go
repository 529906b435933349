// Package metrics exposes Prometheus collectors for the monitor, the
// backtester and the WebSocket gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec // labels: outcome
	CycleDuration      prometheus.Histogram
	AlertsTotal        *prometheus.CounterVec // labels: call
	SubscriberFailures *prometheus.CounterVec // labels: subscriber
	BacktestsTotal     *prometheus.CounterVec // labels: outcome
	BacktestDuration   prometheus.Histogram
	WSClients          prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all collectors on reg. Passing nil uses a
// fresh registry, which keeps tests independent of the default one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Evaluation cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Duration of one fetch-compute-aggregate cycle",
			Buckets: prometheus.DefBuckets,
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_total",
			Help: "Alerts emitted by call",
		}, []string{"call"}),
		SubscriberFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_subscriber_failures_total",
			Help: "Failed or panicking subscriber deliveries",
		}, []string{"subscriber"}),
		BacktestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_backtests_total",
			Help: "Backtest runs by outcome",
		}, []string{"outcome"}),
		BacktestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_backtest_duration_seconds",
			Help:    "Backtest wall time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.AlertsTotal,
		m.SubscriberFailures,
		m.BacktestsTotal,
		m.BacktestDuration,
		m.WSClients,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) Alert(call string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(call).Inc()
}

func (m *Metrics) SubscriberFailed(name string) {
	if m == nil {
		return
	}
	m.SubscriberFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveBacktest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BacktestsTotal.WithLabelValues(outcome).Inc()
	m.BacktestDuration.Observe(d.Seconds())
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}
