// Package metrics exposes Prometheus collectors for HTTP traffic and domain operations.
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
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examadmin",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "examadmin",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CSVImports counts import runs by kind (roster, attendance, users) and outcome
	CSVImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examadmin",
		Name:      "csv_imports_total",
		Help:      "CSV import runs by kind and outcome.",
	}, []string{"kind", "outcome"})

	// CSVRows counts rows processed by import kind and result
	CSVRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examadmin",
		Name:      "csv_import_rows_total",
		Help:      "CSV rows processed by kind and result.",
	}, []string{"kind", "result"})

	// AssignmentChanges counts staff assignment rows written by reconciliation
	AssignmentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examadmin",
		Name:      "staff_assignment_changes_total",
		Help:      "Staff assignment rows created or deleted by reconciliation.",
	}, []string{"op"})

	// ExamRegistrations counts registrations by outcome
	ExamRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examadmin",
		Name:      "exam_registrations_total",
		Help:      "Exam registration attempts by outcome.",
	}, []string{"outcome"})
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
