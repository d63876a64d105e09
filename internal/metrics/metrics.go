package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Record methods are safe on a nil
// receiver so components can run without metrics in tests.
type Metrics struct {
	// Backend metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendDurationSeconds *prometheus.HistogramVec

	// Disk cache metrics
	CacheFallbackTotal *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Calendar metrics
	EventsMaterializedTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPResponsesTotal *prometheus.CounterVec

	// Refresh job metrics
	RefreshRunsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		BackendRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_backend_requests_total",
				Help: "Total number of backend requests by endpoint and status",
			},
			[]string{"endpoint", "status"}, // status: success, error, unauthorized, not_found, cached
		),

		BackendDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campuscal_backend_duration_seconds",
				Help:    "Backend request duration in seconds by endpoint",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"endpoint"},
		),

		CacheFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_cache_fallback_total",
				Help: "Total number of responses served from the disk cache by reason",
			},
			[]string{"reason"}, // reason: not_modified, network, status
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_singleflight_dedup_total",
				Help: "Total number of backend calls that shared an in-flight request",
			},
			[]string{"endpoint"},
		),

		EventsMaterializedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_events_materialized_total",
				Help: "Total number of calendar events produced by type and source",
			},
			[]string{"type", "source"},
		),

		HTTPResponsesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_http_responses_total",
				Help: "Total HTTP responses by route and status code",
			},
			[]string{"route", "code"},
		),

		RefreshRunsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campuscal_refresh_runs_total",
				Help: "Total number of background refresh runs by status",
			},
			[]string{"status"}, // status: success, error, skipped
		),
	}
}

// RecordBackendRequest records a backend call with status
func (m *Metrics) RecordBackendRequest(endpoint, status string, duration float64) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.BackendDurationSeconds.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheFallback records a response served from the disk cache
func (m *Metrics) RecordCacheFallback(reason string) {
	if m == nil {
		return
	}
	m.CacheFallbackTotal.WithLabelValues(reason).Inc()
}

// RecordSingleflightDedup records a shared in-flight call
func (m *Metrics) RecordSingleflightDedup(endpoint string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(endpoint).Inc()
}

// RecordEvent records one materialized calendar event
func (m *Metrics) RecordEvent(eventType, source string) {
	if m == nil {
		return
	}
	m.EventsMaterializedTotal.WithLabelValues(eventType, source).Inc()
}

// RecordHTTPResponse records an HTTP response
func (m *Metrics) RecordHTTPResponse(route, code string) {
	if m == nil {
		return
	}
	m.HTTPResponsesTotal.WithLabelValues(route, code).Inc()
}

// RecordRefresh records a refresh job run
func (m *Metrics) RecordRefresh(status string) {
	if m == nil {
		return
	}
	m.RefreshRunsTotal.WithLabelValues(status).Inc()
}
