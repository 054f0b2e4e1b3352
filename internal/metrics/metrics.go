// Package metrics exposes prometheus collectors for queries, edits, checks
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridsql_build_info",
			Help: "Build information of gridsql",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsql_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridsql_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsql_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsql_queries_total",
			Help: "Total number of grid queries",
		},
		[]string{"kind", "status"}, // kind: "query", "check"
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridsql_query_duration_seconds",
			Help:    "Duration of grid queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"kind"},
	)

	QueryRowsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridsql_query_rows_returned",
			Help:    "Number of rows returned per grid query",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
	)

	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsql_edits_total",
			Help: "Total number of cell edits by outcome",
		},
		[]string{"status"}, // "applied", "no_match", "failed"
	)

	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsql_checks_total",
			Help: "Total number of data-quality check runs",
		},
		[]string{"check", "status"},
	)

	EditsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridsql_edits_rate_limited_total",
			Help: "Total number of edit requests rejected by the rate limiter",
		},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Route pattern keeps table names out of the label set.
		path := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			path = rctx.RoutePattern()
		}
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(ww.Status())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordQuery records metrics for a grid query or check read.
func RecordQuery(kind string, duration time.Duration, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(kind, status).Inc()
	QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil {
		QueryRowsReturned.Observe(float64(rows))
	}
}

// RecordCheck records a check run.
func RecordCheck(name string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ChecksTotal.WithLabelValues(name, status).Inc()
}

// RecordEdit records one edit outcome.
func RecordEdit(status string) {
	EditsTotal.WithLabelValues(status).Inc()
}

// SetBuildInfo publishes version labels.
func SetBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
}
