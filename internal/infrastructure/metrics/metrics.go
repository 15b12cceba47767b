package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported by the service
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CacheEvictionsTotal *prometheus.CounterVec

	SourceFailuresTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_hits_total",
				Help: "Rate cache lookups served from a fresh entry",
			},
			[]string{"shape"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_misses_total",
				Help: "Rate cache lookups that went to the wrapped source",
			},
			[]string{"shape"},
		),

		CacheEvictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_evictions_total",
				Help: "Expired rate cache entries removed on lookup",
			},
			[]string{"shape"},
		),

		SourceFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_source_failures_total",
				Help: "Failed attempts per rate source tier",
			},
			[]string{"tier", "operation"},
		),
	}
}

// CacheHit implements cache.StatsRecorder
func (m *Metrics) CacheHit(shape string) {
	m.CacheHitsTotal.WithLabelValues(shape).Inc()
}

// CacheMiss implements cache.StatsRecorder
func (m *Metrics) CacheMiss(shape string) {
	m.CacheMissesTotal.WithLabelValues(shape).Inc()
}

// CacheEviction implements cache.StatsRecorder
func (m *Metrics) CacheEviction(shape string) {
	m.CacheEvictionsTotal.WithLabelValues(shape).Inc()
}

// SourceFailure implements provider.FailureRecorder
func (m *Metrics) SourceFailure(tier, operation string) {
	m.SourceFailuresTotal.WithLabelValues(tier, operation).Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(path, method string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(path, method).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
