// Package metrics holds the Prometheus instruments shared by the contact
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeInFlight = "in_flight"
	OutcomeFailed   = "failed"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Submit attempts partitioned by outcome.",
		}, []string{"outcome"})

	ValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_validation_errors_total",
			Help: "Field errors seen on rejected submit attempts.",
		}, []string{"field", "kind"})

	SubmissionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_submissions_in_flight",
			Help: "Submissions currently running their side effects.",
		})

	OutboxJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_outbox_jobs_total",
			Help: "Outbox jobs partitioned by kind and outcome.",
		}, []string{"kind", "outcome"})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_sessions_active",
			Help: "Form sessions currently held in memory.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		ValidationErrorsTotal,
		SubmissionsInFlight,
		OutboxJobsTotal,
		ActiveSessions,
	)
}
