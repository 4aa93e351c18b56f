package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	VisitsIngested *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
	SinkErrors     *prometheus.CounterVec
	PublishErrors  prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VisitsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitaudit",
			Name:      "visits_ingested_total",
			Help:      "Visit ingestion calls by outcome.",
		}, []string{"outcome"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitaudit",
			Name:      "admin_login_attempts_total",
			Help:      "Admin login attempts by outcome.",
		}, []string{"outcome"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitaudit",
			Name:      "sink_errors_total",
			Help:      "Visit sink failures by operation.",
		}, []string{"op"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visitaudit",
			Name:      "visit_publish_errors_total",
			Help:      "Visit stream publish failures.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.VisitsIngested, m.LoginAttempts, m.SinkErrors, m.PublishErrors)
	}
	return m
}

// Ingested counts one ingestion call.
func (m *Metrics) Ingested(outcome string) {
	if m == nil {
		return
	}
	m.VisitsIngested.WithLabelValues(outcome).Inc()
}

// Login counts one login attempt.
func (m *Metrics) Login(success bool) {
	if m == nil {
		return
	}
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// SinkError counts a failed sink operation ("append" or "list").
func (m *Metrics) SinkError(op string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(op).Inc()
}

// PublishError counts a failed stream publish.
func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}
