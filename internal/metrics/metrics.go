package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookscout_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_searches_total",
		Help: "Recommendation searches by outcome",
	}, []string{"status"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookscout_search_duration_seconds",
		Help:    "End-to-end duration of a search run, detail fan-out included",
		Buckets: prometheus.DefBuckets,
	})

	DetailFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_detail_failures_total",
		Help: "Per-book detail lookups that failed during enrichment",
	})

	CoverCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_cover_cache_total",
		Help: "Cover proxy lookups by cache outcome",
	}, []string{"outcome"})
)

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}
