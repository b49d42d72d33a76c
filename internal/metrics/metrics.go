package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chef_next_door",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	cacheReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "cache",
			Name:      "reads_total",
			Help:      "Read hook lookups by outcome (hit, miss, stale, suspended).",
		},
		[]string{"namespace", "result"},
	)

	cacheFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Fetches issued against the remote data service.",
		},
		[]string{"namespace", "outcome"},
	)

	cacheFetchRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "cache",
			Name:      "fetch_retries_total",
			Help:      "Retried fetch attempts.",
		},
		[]string{"namespace"},
	)

	cacheCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "cache",
			Name:      "commands_total",
			Help:      "Cache commands applied by mutations.",
		},
		[]string{"action"},
	)

	readFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "cache",
			Name:      "read_failures_total",
			Help:      "Reads that finally failed, by error kind.",
		},
		[]string{"namespace", "kind"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chef_next_door",
			Subsystem: "remote",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort remote procedure calls that failed and were discarded.",
		},
		[]string{"rpc"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		cacheReads,
		cacheFetches,
		cacheFetchRetries,
		cacheCommands,
		readFailures,
		sideEffectFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordCacheRead counts a read hook lookup.
func RecordCacheRead(namespace, result string) {
	cacheReads.WithLabelValues(namespace, result).Inc()
}

// RecordFetch counts a completed fetch; outcome is "ok", "error" or
// "superseded".
func RecordFetch(namespace, outcome string) {
	cacheFetches.WithLabelValues(namespace, outcome).Inc()
}

func RecordFetchRetry(namespace string) {
	cacheFetchRetries.WithLabelValues(namespace).Inc()
}

func RecordCacheCommand(action string) {
	cacheCommands.WithLabelValues(action).Inc()
}

func RecordReadFailure(namespace, kind string) {
	readFailures.WithLabelValues(namespace, kind).Inc()
}

// RecordSideEffectFailure counts a discarded remote procedure failure.
func RecordSideEffectFailure(rpc string) {
	sideEffectFailures.WithLabelValues(rpc).Inc()
}
