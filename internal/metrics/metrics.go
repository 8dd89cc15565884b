// Package metrics exposes Prometheus collectors for the registry service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamRequestDuration    *prometheus.HistogramVec
	upstreamBytesTotal         *prometheus.CounterVec
	rateLimitWaitSeconds       prometheus.Histogram
	extractionFailuresTotal    *prometheus.CounterVec
	cacheLookupsTotal          *prometheus.CounterVec
	cacheWriteFailuresTotal    prometheus.Counter
	handshakeRetriesTotal      prometheus.Counter
	lookupsTotal               *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_upstream_requests_total",
				Help: "Total number of upstream requests, labeled by kind and status code.",
			},
			[]string{"kind", "code"},
		)

		upstreamRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "registry_upstream_request_duration_seconds",
				Help:    "Histogram of upstream request latencies, labeled by kind.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"kind"},
		)

		upstreamBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_upstream_bytes_total",
				Help: "Total number of bytes fetched from upstream, labeled by kind.",
			},
			[]string{"kind"},
		)

		rateLimitWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "registry_rate_limit_wait_seconds",
				Help:    "Histogram of time spent waiting on the outbound request gate.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		)

		extractionFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_extraction_failures_total",
				Help: "Total number of extraction rule failures, labeled by rule.",
			},
			[]string{"rule"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_cache_lookups_total",
				Help: "Total number of cache reads, labeled by result (hit, miss, error, bypass).",
			},
			[]string{"result"},
		)

		cacheWriteFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_cache_write_failures_total",
				Help: "Total number of cache writes that failed after a live lookup.",
			},
		)

		handshakeRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_upstream_handshake_retries_total",
				Help: "Total number of upstream requests retried after a transient TLS handshake failure.",
			},
		)

		lookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_lookups_total",
				Help: "Total number of lookups, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstream records one upstream exchange. code is 0 when no response arrived.
func ObserveUpstream(kind string, code int, bytesFetched int, duration time.Duration) {
	Init()
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	upstreamRequestsTotal.WithLabelValues(kind, label).Inc()
	upstreamRequestDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if bytesFetched > 0 {
		upstreamBytesTotal.WithLabelValues(kind).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitWait records the time a caller spent on the request gate.
func ObserveRateLimitWait(duration time.Duration) {
	Init()
	rateLimitWaitSeconds.Observe(duration.Seconds())
}

// ObserveExtractionFailure counts a failed extraction rule.
func ObserveExtractionFailure(rule string) {
	Init()
	extractionFailuresTotal.WithLabelValues(rule).Inc()
}

// ObserveCacheLookup counts a cache read by result.
func ObserveCacheLookup(result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveCacheWriteFailure counts a swallowed cache write error.
func ObserveCacheWriteFailure() {
	Init()
	cacheWriteFailuresTotal.Inc()
}

// ObserveHandshakeRetry counts one retried TLS handshake.
func ObserveHandshakeRetry() {
	Init()
	handshakeRetriesTotal.Inc()
}

// ObserveLookup counts a finished lookup by kind (tax_id, registration_number, search) and outcome.
func ObserveLookup(kind, outcome string) {
	Init()
	lookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
