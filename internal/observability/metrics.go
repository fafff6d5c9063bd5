// Package observability holds the dispatcher's Prometheus metrics and the
// small HTTP server that exposes them.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets fit notification round trips, from 10ms to 60s.
var LatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics groups the dispatch collectors. A nil *Metrics records nothing.
type Metrics struct {
	DispatchTotal   *prometheus.CounterVec
	TargetResults   *prometheus.CounterVec
	TargetLatency   *prometheus.HistogramVec
	ThrottleWait    *prometheus.HistogramVec
	ChunksSent      *prometheus.CounterVec
	ConfiguredTotal prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_dispatch_total",
				Help: "Dispatch calls by outcome",
			},
			[]string{"outcome", "mode"},
		),
		TargetResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_target_results_total",
				Help: "Per-target delivery results",
			},
			[]string{"target", "status", "kind"},
		),
		TargetLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notify_target_duration_seconds",
				Help:    "Time spent delivering to one target",
				Buckets: LatencyBuckets,
			},
			[]string{"target"},
		),
		ThrottleWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notify_throttle_wait_seconds",
				Help:    "Time a chunk waited on its target's rate limit",
				Buckets: LatencyBuckets,
			},
			[]string{"target"},
		),
		ChunksSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_chunks_sent_total",
				Help: "Chunks delivered successfully",
			},
			[]string{"target"},
		),
		ConfiguredTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "notify_targets_configured",
				Help: "Targets currently in the collection",
			},
		),
	}
	reg.MustRegister(
		m.DispatchTotal,
		m.TargetResults,
		m.TargetLatency,
		m.ThrottleWait,
		m.ChunksSent,
		m.ConfiguredTotal,
	)
	return m
}

func (m *Metrics) ObserveDispatch(outcome, mode string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(outcome, mode).Inc()
}

func (m *Metrics) ObserveTarget(url, status, kind string, sent int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TargetResults.WithLabelValues(url, status, kind).Inc()
	m.TargetLatency.WithLabelValues(url).Observe(elapsed.Seconds())
	if sent > 0 {
		m.ChunksSent.WithLabelValues(url).Add(float64(sent))
	}
}

func (m *Metrics) ObserveThrottleWait(url string, d time.Duration) {
	if m == nil {
		return
	}
	m.ThrottleWait.WithLabelValues(url).Observe(d.Seconds())
}

func (m *Metrics) SetConfigured(n int) {
	if m == nil {
		return
	}
	m.ConfiguredTotal.Set(float64(n))
}
