package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for orchard
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Remote table Metrics
	TableCallsTotal   *prometheus.CounterVec
	TableCallDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	PointsActive       prometheus.Gauge
	RowsDroppedTotal   *prometheus.CounterVec
	PointsAddedTotal   prometheus.Counter
	PointsDeletedTotal prometheus.Counter
}

// NewMetricsRegistry registers every metric with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchard_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orchard_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed, by method",
			},
			[]string{"method"},
		),

		// Remote table Metrics
		TableCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_table_calls_total",
				Help: "Total remote table calls by backend, operation and outcome",
			},
			[]string{"backend", "operation", "outcome"},
		),
		TableCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchard_table_call_duration_seconds",
				Help:    "Remote table call latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend", "operation"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_cache_hits_total",
				Help: "Total snapshot cache hits by cache backend",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_cache_misses_total",
				Help: "Total snapshot cache misses by cache backend",
			},
			[]string{"cache"},
		),

		// Business Metrics
		PointsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "orchard_points_active",
				Help: "Number of active points in the last listing",
			},
		),
		RowsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_rows_dropped_total",
				Help: "Rows skipped while listing, by reason",
			},
			[]string{"reason"},
		),
		PointsAddedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orchard_points_added_total",
				Help: "Total points added",
			},
		),
		PointsDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orchard_points_deleted_total",
				Help: "Total points soft-deleted",
			},
		),
	}
}

// The helpers below accept a nil registry so callers can run unmetered.

// ObserveTableCall records one remote table call.
func (m *MetricsRegistry) ObserveTableCall(backend, operation string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.TableCallsTotal.WithLabelValues(backend, operation, outcome).Inc()
	m.TableCallDuration.WithLabelValues(backend, operation).Observe(took.Seconds())
}

func (m *MetricsRegistry) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

func (m *MetricsRegistry) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func (m *MetricsRegistry) RowDropped(reason string) {
	if m == nil {
		return
	}
	m.RowsDroppedTotal.WithLabelValues(reason).Inc()
}

func (m *MetricsRegistry) SetActivePoints(n int) {
	if m == nil {
		return
	}
	m.PointsActive.Set(float64(n))
}

func (m *MetricsRegistry) PointAdded() {
	if m == nil {
		return
	}
	m.PointsAddedTotal.Inc()
}

func (m *MetricsRegistry) PointDeleted() {
	if m == nil {
		return
	}
	m.PointsDeletedTotal.Inc()
}
