// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and master-data mutations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masterdata",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "masterdata",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	mutationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masterdata",
			Name:      "record_mutations_total",
			Help:      "Total number of master-data record mutations",
		},
		[]string{"entity", "action"},
	)
)

// RecordMutation counts one successful create/update/delete.
func RecordMutation(entityKey, action string) {
	mutationCounter.WithLabelValues(entityKey, action).Inc()
}

// Middleware records request count and duration per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
