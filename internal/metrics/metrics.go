// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the lead pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LeadsAdmitted counts new leads by ingestion path.
	LeadsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_admitted_total",
			Help: "Total number of new leads admitted",
		},
		[]string{"source"},
	)

	// LeadsRedelivered counts idempotent re-admissions of known leads.
	LeadsRedelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_redelivered_total",
			Help: "Total number of redeliveries of already known leads",
		},
		[]string{"source"},
	)

	// TouchPointsSent counts delivered touch points by ordinal.
	TouchPointsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touch_points_sent_total",
			Help: "Total number of touch points delivered",
		},
		[]string{"touch_point"},
	)

	// LeadsLost counts leads closed after an exhausted sequence.
	LeadsLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_lost_total",
			Help: "Total number of leads marked lost",
		},
	)

	// LeadsResponded counts customer replies.
	LeadsResponded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_responded_total",
			Help: "Total number of leads that responded",
		},
	)

	// PollCycleErrors counts failed poll cycles by tenant.
	PollCycleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycle_errors_total",
			Help: "Total number of failed CRM poll cycles",
		},
		[]string{"tenant"},
	)
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

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
