package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheCounters(t *testing.T) {
	m := NewMetrics()

	m.CacheHit("rate")
	m.CacheHit("rate")
	m.CacheMiss("rate")
	m.CacheEviction("historical")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("rate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("rate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("historical")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("conversion")))
}

func TestSourceFailure(t *testing.T) {
	m := NewMetrics()
	m.SourceFailure("external_api", "get_rate")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailuresTotal.WithLabelValues("external_api", "get_rate")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("/api/exchange/rates/{from}/{to}", http.MethodGet, http.StatusOK, 15*time.Millisecond)
	m.CacheMiss("conversion")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `rate_cache_misses_total{shape="conversion"} 1`)
}

func TestRegistryGathersObservedSeries(t *testing.T) {
	m := NewMetrics()
	m.CacheHit("rate")
	m.CacheHit("conversion")
	m.SourceFailure("internal_api", "convert")

	count, err := testutil.GatherAndCount(m.Registry(), "rate_cache_hits_total", "rate_source_failures_total")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
