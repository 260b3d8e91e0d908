package api

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess     = "success"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
	outcomeUnreachable = "unreachable"
	outcomeTimeout     = "timeout"
	outcomeNetwork     = "network"
	outcomeCanceled    = "canceled"
)

// Metrics holds the executor's collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	invalidCreds prometheus.Counter
}

// NewMetrics registers the executor collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appeals_client_requests_total",
			Help: "API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appeals_client_request_duration_seconds",
			Help:    "API request latency including the reachability probe.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		invalidCreds: factory.NewCounter(prometheus.CounterOpts{
			Name: "appeals_client_credential_invalid_total",
			Help: "401 responses that carried a credential-invalid marker.",
		}),
	}
}

// Requests exposes the request counter for inspection.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}

func (m *Metrics) CredentialInvalid() prometheus.Counter {
	return m.invalidCreds
}

func (m *Metrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	method = strings.ToUpper(method)
	if method == "" {
		method = "GET"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) markCredentialInvalid() {
	if m == nil {
		return
	}
	m.invalidCreds.Inc()
}

func outcomeForStatus(status int) string {
	if status >= 500 {
		return outcomeServerError
	}
	return outcomeClientError
}

func outcomeForError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrServerUnreachable):
		return outcomeUnreachable
	case errors.Is(err, apperrors.ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	default:
		return outcomeNetwork
	}
}
