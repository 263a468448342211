// Package metrics provides Prometheus instrumentation for the simulation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersTotal counts orders, partitioned by side and outcome
	// (filled, insufficient_funds, insufficient_shares, unknown_symbol, ...).
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_orders_total",
		Help: "Total number of orders submitted",
	}, []string{"side", "outcome"})

	// OrderLatency tracks order execution latency.
	OrderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simengine_order_latency_seconds",
		Help:    "Order execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"side"})

	// StepsAdvanced counts simulation steps entered across all sessions.
	StepsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simengine_steps_advanced_total",
		Help: "Simulation steps advanced",
	})

	// ActiveSessions tracks the number of live simulation sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simengine_active_sessions",
		Help: "Number of live simulation sessions",
	})

	// SessionsSwept counts sessions removed for inactivity.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simengine_sessions_swept_total",
		Help: "Idle sessions removed by the sweeper",
	})

	// ReportsGenerated counts reports, partitioned by grade letter.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_reports_total",
		Help: "Reports generated by grade",
	}, []string{"grade"})

	// HistoryOps counts history store calls by operation and result.
	HistoryOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_history_ops_total",
		Help: "History store operations",
	}, []string{"op", "result"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simengine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simengine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simengine_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern prefers chi's matched pattern (/api/v1/simulations/{id})
// over the raw path so session ids do not explode label cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
