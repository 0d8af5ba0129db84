// Package http provides the HTTP transport adapter for the validation service.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for FieldGate.
// Pass to components that need to record metrics.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	UnsafeContentTotal *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldgate",
				Name:      "validations_total",
				Help:      "Total number of field validations performed",
			},
			[]string{"kind", "outcome"}, // kind=name/identifier/tool_name/uri, outcome=accepted/rejected
		),
		RejectionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldgate",
				Name:      "rejections_total",
				Help:      "Total rejections by violation signal",
			},
			[]string{"kind", "signal"},
		),
		UnsafeContentTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldgate",
				Name:      "unsafe_content_total",
				Help:      "Total unsafe content findings by finding kind",
			},
			[]string{"finding"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fieldgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}
}

// observeOutcome records the per-validation counters for a single outcome.
func (m *Metrics) observeOutcome(kind string, accepted bool, signal string, findings []string) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
		m.RejectionsTotal.WithLabelValues(kind, signal).Inc()
		for _, f := range findings {
			m.UnsafeContentTotal.WithLabelValues(f).Inc()
		}
	}
	m.ValidationsTotal.WithLabelValues(kind, outcome).Inc()
}
