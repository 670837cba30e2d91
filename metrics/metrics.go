// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements verification.Recorder and notify.Recorder.
type Metrics struct {
	RequestsCreated prometheus.Counter

	// Transitions by event and outcome (ok, invalid_transition, forbidden, ...)
	Transitions *prometheus.CounterVec

	TransitionLatency *prometheus.HistogramVec

	// Outbox messages handled by the relay, by topic and result
	RelayedMessages *prometheus.CounterVec

	HTTPRequests *prometheus.HistogramVec
}

// New registers every instrument with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "addressme_requests_created_total",
			Help: "Total address requests submitted",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressme_transitions_total",
			Help: "Workflow transitions attempted by event and outcome",
		}, []string{"event", "outcome"}),
		TransitionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addressme_transition_duration_seconds",
			Help:    "Duration of workflow transitions including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"event"}),
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressme_outbox_messages_total",
			Help: "Outbox messages handled by the relay by topic and result",
		}, []string{"topic", "result"}),
		HTTPRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addressme_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

func (m *Metrics) RequestCreated() {
	if m != nil {
		m.RequestsCreated.Inc()
	}
}

func (m *Metrics) TransitionObserved(event, outcome string, elapsed time.Duration) {
	if m != nil {
		m.Transitions.WithLabelValues(event, outcome).Inc()
		m.TransitionLatency.WithLabelValues(event).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) MessageRelayed(topic, result string) {
	if m != nil {
		m.RelayedMessages.WithLabelValues(topic, result).Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
	}
}
