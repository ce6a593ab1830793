package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bffgate/internal/oauth"
	"bffgate/internal/session"
)

const namespace = "bffgate"

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	retries         prometheus.Counter
	decisions       *prometheus.CounterVec
}

// New registers the gateway collectors on a fresh registry that also
// carries the Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry, registry)
}

// NewWithRegistry registers the gateway collectors on reg and serves them
// from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Counter for HTTP requests by method, status, route",
			},
			[]string{"method", "status", "route"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:                       namespace,
				Name:                            "http_request_duration_seconds",
				Help:                            "Histogram of latencies for HTTP requests by method, status, route",
				Buckets:                         prometheus.DefBuckets,
				NativeHistogramBucketFactor:     1.1,
				NativeHistogramMaxBucketNumber:  100,
				NativeHistogramMinResetDuration: 1 * time.Hour,
			},
			[]string{"method", "status", "route"},
		),
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Token refreshes by outcome",
			},
			[]string{"outcome"},
		),
		refreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "token_refresh_duration_seconds",
				Help:      "Time spent refreshing tokens, including retries",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 130},
			},
		),
		retries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_endpoint_retries_total",
				Help:      "Retried token endpoint calls",
			},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_decisions_total",
				Help:      "Session validation decisions by kind",
			},
			[]string{"decision"},
		),
	}
}

// ObserveRefresh records a refresh outcome. It satisfies
// oauth.RefreshObserver.
func (m *Metrics) ObserveRefresh(outcome oauth.RefreshOutcome, d time.Duration) {
	label := "renewed"
	if !outcome.IsRenewed() {
		label = string(outcome.Reason)
	}
	m.refreshes.WithLabelValues(label).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// ObserveRetry counts a backoff wait. It has the oauth.RetryNotify shape.
func (m *Metrics) ObserveRetry(_ error, _ time.Duration) {
	m.retries.Inc()
}

// ObserveDecision counts a session validation decision.
func (m *Metrics) ObserveDecision(kind session.DecisionKind) {
	m.decisions.WithLabelValues(kind.String()).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code sent to the client.
func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush supports streaming upstream responses.
func (sr *statusRecorder) Flush() {
	if flusher, ok := sr.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker to support WebSocket upgrades.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

type routeLabelKey struct{}

// routeLabel is written by the handler goroutine and read by WithMetrics
// after next returns.
type routeLabel struct {
	name string
}

// SetRoute replaces the route label of a request measured by WithMetrics.
// Outside WithMetrics it does nothing.
func SetRoute(r *http.Request, name string) {
	if label, ok := r.Context().Value(routeLabelKey{}).(*routeLabel); ok {
		label.name = name
	}
}

// WithMetrics counts and times requests handled by next. They are labelled
// with route unless a handler further down calls SetRoute.
func (m *Metrics) WithMetrics(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		label := &routeLabel{name: route}

		next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), routeLabelKey{}, label)))

		duration := time.Since(startTime).Seconds()
		status := strconv.Itoa(sr.statusCode)
		m.requests.WithLabelValues(r.Method, status, label.name).Inc()
		m.requestDuration.WithLabelValues(r.Method, status, label.name).Observe(duration)
	})
}
