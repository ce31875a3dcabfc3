// Package telemetry records per-request HTTP metrics and flags slow
// requests in the log. Counters and latencies are exported through the
// process-wide prometheus registry and scraped at /metrics.
package telemetry

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"noticeboard/pkg/logger"
)

var slowThreshold = 200 * time.Millisecond

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noticeboard_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// SetSlowThreshold sets the duration above which a request gets a warning
// log entry.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThreshold = d
	}
}

// Middleware records count and latency for every request. Routes are
// labeled by their registered pattern, not the raw path, so ids do not
// explode metric cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		route := routeLabel(r)
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(dur.Seconds())

		if dur > slowThreshold {
			logger.Warn("slow_request", "route", route, "method", r.Method, "status", srw.status, "duration_ms", dur.Milliseconds())
		}
	})
}

func routeLabel(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so websocket upgrades work
// behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("telemetry: underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
