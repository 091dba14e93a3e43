package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API server.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authDecisions   *prometheus.CounterVec
	ownershipClaims *prometheus.CounterVec
}

// NewMetrics registers the collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connexa_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connexa_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),

		authDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connexa_access_decisions_total",
			Help: "Access policy decisions by outcome",
		}, []string{"outcome"}),

		ownershipClaims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connexa_ownership_claims_total",
			Help: "First-write ownership claim attempts by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDecision records an access policy outcome (allow, deny, not_found).
func (m *Metrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(outcome).Inc()
}

// RecordClaim records an ownership claim attempt (won or lost).
func (m *Metrics) RecordClaim(result string) {
	if m == nil {
		return
	}
	m.ownershipClaims.WithLabelValues(result).Inc()
}
