package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by every service.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	loginAttempts    *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(service string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "transit",
			Name:        "http_requests_total",
			Help:        "HTTP requests processed.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "transit",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "transit",
			Name:        "http_errors_total",
			Help:        "Error responses by code.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "code"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "transit",
			Name:        "upstream_requests_total",
			Help:        "Outbound calls to collaborator services.",
			ConstLabels: constLabels,
		}, []string{"target", "outcome"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "transit",
			Name:        "login_attempts_total",
			Help:        "Login attempts by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.errors, m.upstreamRequests, m.loginAttempts)
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response by its public code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordUpstream counts an outbound call. outcome is ok, not_found, error or unavailable.
func (m *Metrics) RecordUpstream(target, outcome string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(target, outcome).Inc()
}

// RecordLogin counts a login attempt by result.
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}
