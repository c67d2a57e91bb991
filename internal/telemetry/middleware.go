package telemetry

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
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
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	snapshotWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_writes_total",
			Help: "Snapshot file writes by result",
		},
		[]string{"result"},
	)

	snapshotWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_write_duration_seconds",
			Help:    "Time spent writing the snapshot file, retries included",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const unmatchedPath = "unmatched"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records count and latency per route and logs every request.
// It must wrap the ServeMux so the matched pattern is known afterwards;
// requests that matched nothing share one label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		path := r.Pattern
		if path == "" {
			path = unmatchedPath
		}

		httpRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(rw.statusCode),
		).Inc()

		httpRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration.Seconds())

		slog.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", path,
			"status", rw.statusCode,
			"duration", duration,
		)
	})
}

// ObserveSnapshotWrite records the outcome of one snapshot save.
func ObserveSnapshotWrite(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	snapshotWritesTotal.WithLabelValues(result).Inc()
	snapshotWriteDuration.Observe(duration.Seconds())
}
