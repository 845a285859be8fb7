// Package metrics exposes Prometheus collectors for the page analyzer.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check outcomes recorded by ObserveCheck.
const (
	CheckOutcomeOK         = "ok"
	CheckOutcomeFetchError = "fetch_error"
	CheckOutcomeStoreError = "store_error"
)

var (
	checksTotal                *prometheus.CounterVec
	urlsRegisteredTotal        prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		checksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_checks_total",
				Help: "Total number of page checks, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		urlsRegisteredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analyzer_urls_registered_total",
				Help: "Total number of URLs registered.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveCheck counts one page check with the given outcome.
func ObserveCheck(outcome string) {
	if checksTotal == nil {
		return
	}
	checksTotal.WithLabelValues(outcome).Inc()
}

// ObserveURLRegistered counts one newly registered URL.
func ObserveURLRegistered() {
	if urlsRegisteredTotal == nil {
		return
	}
	urlsRegisteredTotal.Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		if httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
			return
		}
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
