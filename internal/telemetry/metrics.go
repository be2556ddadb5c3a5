package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by ContactMetrics.
const (
	OutcomeDelivered      = "delivered"
	OutcomeRejected       = "rejected"
	OutcomeRateLimited    = "rate_limited"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeTooLarge       = "too_large"
)

// Email types recorded by ContactMetrics.
const (
	EmailNotification = "notification"
	EmailConfirmation = "confirmation"
)

// ContactMetrics holds Prometheus metrics for the contact pipeline.
type ContactMetrics struct {
	Submissions           *prometheus.CounterVec
	EmailSent             *prometheus.CounterVec
	EmailFailed           *prometheus.CounterVec
	EmailLatency          *prometheus.HistogramVec
	ConfirmationsInFlight prometheus.Gauge
}

// NewContactMetrics creates the contact metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewContactMetrics(namespace string, reg prometheus.Registerer) *ContactMetrics {
	if namespace == "" {
		namespace = "portfolio"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "contact"

	return &ContactMetrics{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Total contact submissions by outcome",
			},
			[]string{"outcome"}, // delivered, rejected, rate_limited, delivery_failed, too_large
		),
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total emails sent by type",
			},
			[]string{"email_type"},
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total email delivery failures",
			},
			[]string{"email_type", "error_type"}, // error_type: timeout, circuit_open, smtp
		),
		EmailLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_send_duration_seconds",
				Help:      "Time spent handing one email to the mail server",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"email_type"},
		),
		ConfirmationsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "confirmations_in_flight",
				Help:      "Confirmation emails currently being sent in the background",
			},
		),
	}
}

// RecordSubmission counts one finished submission. Safe on a nil receiver.
func (m *ContactMetrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// RecordEmail records one send attempt. errorType is ignored when ok is true.
func (m *ContactMetrics) RecordEmail(emailType string, started time.Time, ok bool, errorType string) {
	if m == nil {
		return
	}
	m.EmailLatency.WithLabelValues(emailType).Observe(time.Since(started).Seconds())
	if ok {
		m.EmailSent.WithLabelValues(emailType).Inc()
		return
	}
	m.EmailFailed.WithLabelValues(emailType, errorType).Inc()
}
