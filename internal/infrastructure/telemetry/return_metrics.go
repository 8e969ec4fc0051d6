package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "rma"

// ReturnMetrics records RMA transitions, refund dispatches and outbox relay
// results on a private Prometheus registry
type ReturnMetrics struct {
	registry *prometheus.Registry

	transitions        *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	dispatches         *prometheus.CounterVec
	dispatchDuration   *prometheus.HistogramVec
	outboxRelayed      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewReturnMetrics creates and registers the collectors
func NewReturnMetrics() *ReturnMetrics {
	m := &ReturnMetrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transitions_total",
			Help:      "RMA lifecycle transitions by action and result.",
		}, []string{"action", "result"}),
		transitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent in an RMA transition including its transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refund_dispatches_total",
			Help:      "Refund executions by payment method and outcome.",
		}, []string{"payment_method", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refund_dispatch_duration_seconds",
			Help:      "Refund execution latency by payment method.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"payment_method"}),
		outboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outbox_relayed_total",
			Help:      "Outbox entries handed to the sink per batch result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.transitionDuration,
		m.dispatches,
		m.dispatchDuration,
		m.outboxRelayed,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTransition counts one transition attempt
func (m *ReturnMetrics) ObserveTransition(action string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transitions.WithLabelValues(action, result).Inc()
	m.transitionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveDispatch counts one refund execution
func (m *ReturnMetrics) ObserveDispatch(paymentMethod, outcome string, elapsed time.Duration) {
	m.dispatches.WithLabelValues(paymentMethod, outcome).Inc()
	m.dispatchDuration.WithLabelValues(paymentMethod).Observe(elapsed.Seconds())
}

// ObserveOutboxRelay adds sent entries to the relay counter
func (m *ReturnMetrics) ObserveOutboxRelay(sent int) {
	if sent > 0 {
		m.outboxRelayed.WithLabelValues("sent").Add(float64(sent))
	}
}

// ObserveHTTP counts one finished HTTP request
func (m *ReturnMetrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the registry for tests and extra collectors
func (m *ReturnMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *ReturnMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
