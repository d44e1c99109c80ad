package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricFinalizeTotal     = "pagetrack_session_finalize_total"
	MetricFinalizeCoalesced = "pagetrack_session_finalize_coalesced_total"
	MetricFinalizeDuration  = "pagetrack_session_finalize_duration_seconds"
	MetricPendingChunks     = "pagetrack_session_pending_chunks"
)

// Metrics counts finalize attempts by trigger and outcome.
type Metrics struct {
	finalizeTotal    *prometheus.CounterVec
	coalesced        *prometheus.CounterVec
	finalizeDuration *prometheus.HistogramVec
	pending          prometheus.Gauge
}

// NewMetrics creates unregistered collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		finalizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFinalizeTotal,
				Help: "Session finalize attempts by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		coalesced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFinalizeCoalesced,
				Help: "Finalize calls that joined an in-flight finalize for the same session",
			},
			[]string{"trigger"},
		),
		finalizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFinalizeDuration,
				Help:    "Time spent persisting and aggregating one session chunk",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"trigger"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricPendingChunks,
			Help: "Chunks from closed sessions still waiting to be persisted",
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.finalizeTotal, m.coalesced, m.finalizeDuration, m.pending} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeFinalize(trigger string, outcome Outcome, elapsed time.Duration) {
	m.finalizeTotal.WithLabelValues(trigger, string(outcome)).Inc()
	m.finalizeDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

func (m *Metrics) observeCoalesced(trigger string) {
	m.coalesced.WithLabelValues(trigger).Inc()
}

func (m *Metrics) setPending(n int) {
	m.pending.Set(float64(n))
}
