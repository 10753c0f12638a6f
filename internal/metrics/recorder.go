package metrics

/*
Recorder captures structured fetch and cache events as prometheus
series.
It must not:
- perform I/O decisions
- affect control flow
- be read back by any component to influence caching or retries
Metrics are write-only from the application's point of view; the only
reader is the scrape endpoint.
*/

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rohmanhakim/ghibli-proxy/internal/cache"
)

type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	retriesTotal  *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
}

// NewRecorder registers the proxy's metric series against registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry so parallel tests do not collide on series names.
func NewRecorder(registerer prometheus.Registerer) *Recorder {
	factory := promauto.With(registerer)

	return &Recorder{
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghibli_upstream_fetches_total",
				Help: "Total number of upstream fetch attempts, by final status",
			},
			[]string{"endpoint", "status"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ghibli_upstream_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghibli_upstream_retries_total",
				Help: "Total number of upstream retry attempts",
			},
			[]string{"endpoint"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghibli_cache_requests_total",
				Help: "Total number of orchestrated cache requests, by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordFetch implements the upstream fetch sink. A status code of 0
// means the request never produced a response.
func (r *Recorder) RecordFetch(endpoint string, statusCode int, duration time.Duration, retryCount int) {
	r.fetchesTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	r.fetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if retryCount > 0 {
		r.retriesTotal.WithLabelValues(endpoint).Add(float64(retryCount))
	}
}

// ObserveRefresh implements the cache refresh observer.
func (r *Recorder) ObserveRefresh(operation string, outcome cache.RefreshOutcome) {
	r.cacheRequests.WithLabelValues(operation, string(outcome)).Inc()
}
