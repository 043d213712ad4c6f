package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ingest"

// Exchange outcome labels.
const (
	OutcomeResponded        = "responded"
	OutcomeUnsupportedType  = "unsupported_type"
	OutcomeMalformedPayload = "malformed_payload"
	OutcomeEmpty            = "empty"
	OutcomeDecodeError      = "decode_error"
	OutcomeTooLarge         = "too_large"
	OutcomeInvalidEncoding  = "invalid_encoding"
	OutcomeTimeout          = "timeout"
	OutcomeTransportError   = "transport_error"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	exchanges        *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
	activeExchanges  prometheus.Gauge
	readings         *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	forwarded        prometheus.Counter
	forwardFailures  prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "exchanges_total",
			Help:      "Exchanges by outcome.",
		}, []string{"outcome"}),
		exchangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "exchange_duration_seconds",
			Help:      "Server-side time from request receipt to response built.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		activeExchanges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "active_exchanges",
			Help:      "Connections currently being served.",
		}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "readings_total",
			Help:      "Validated readings by result.",
		}, []string{"result"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "errors_total",
			Help:      "Validation errors by field.",
		}, []string{"field"}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "readings_total",
			Help:      "Accepted readings handed to the forwarder.",
		}),
		forwardFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forward",
			Name:      "failures_total",
			Help:      "Forwarding attempts that failed.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.exchanges, m.exchangeDuration, m.activeExchanges,
			m.readings, m.validationErrors,
			m.forwarded, m.forwardFailures,
			m.httpRequests, m.httpDuration,
		)
	}
	return m
}

func (m *Metrics) ExchangeStarted() {
	if m == nil {
		return
	}
	m.activeExchanges.Inc()
}

func (m *Metrics) ExchangeFinished(outcome string) {
	if m == nil {
		return
	}
	m.activeExchanges.Dec()
	m.exchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveProcessing(d time.Duration) {
	if m == nil {
		return
	}
	m.exchangeDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveReading(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.readings.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveValidationError(field string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(field).Inc()
}

// ObserveForward records one forwarding attempt of n readings.
func (m *Metrics) ObserveForward(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.forwardFailures.Inc()
		return
	}
	m.forwarded.Add(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
