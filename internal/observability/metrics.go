// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScanRunsTotal     *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	CandidatesTotal   prometheus.Counter
	FreshWalletsTotal prometheus.Counter

	// Upstream API metrics
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamLatency       *prometheus.HistogramVec
	RateLimitWait         prometheus.Histogram

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fresh_wallet_scout"
	}

	return &Metrics{
		// Scan metrics
		ScanRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan runs by status",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CandidatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Total number of wallet candidates extracted from transfers",
		}),
		FreshWalletsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "fresh_wallets_total",
			Help:      "Total number of fresh wallets detected",
		}),

		// Upstream API metrics
		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Upstream API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RateLimitWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a rate limit slot in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),

		// Cache metrics
		CacheHitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by cache name",
		}, []string{"cache"}),
		CacheMissesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by cache name",
		}, []string{"cache"}),

		// Notification metrics
		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total number of notification deliveries by notifier and status",
		}, []string{"notifier", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScanRun records one completed scan run.
func RecordScanRun(status string, durationSeconds float64) {
	DefaultMetrics.ScanRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordCandidates adds to the extracted candidate counter.
func RecordCandidates(n int) {
	DefaultMetrics.CandidatesTotal.Add(float64(n))
}

// RecordFreshWallets adds to the fresh wallet counter.
func RecordFreshWallets(n int) {
	DefaultMetrics.FreshWalletsTotal.Add(float64(n))
}

// RecordUpstreamRequest records one upstream API request. A zero status
// code means the request never produced a response.
func RecordUpstreamRequest(endpoint string, statusCode int, seconds float64) {
	status := "network_error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	DefaultMetrics.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRateLimitWait records time spent blocked by the rate limiter.
func RecordRateLimitWait(seconds float64) {
	DefaultMetrics.RateLimitWait.Observe(seconds)
}

// RecordCacheHit increments the hit counter for the named cache.
func RecordCacheHit(cache string) {
	DefaultMetrics.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for the named cache.
func RecordCacheMiss(cache string) {
	DefaultMetrics.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordNotification records one notification delivery attempt.
func RecordNotification(notifier, status string) {
	DefaultMetrics.NotificationsTotal.WithLabelValues(notifier, status).Inc()
}
