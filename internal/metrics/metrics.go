// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DonationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_recorded_total",
		Help: "Donations appended to the ledger, by donation type.",
	}, []string{"type"})

	DonationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donations_rejected_total",
		Help: "Ledger create calls refused by the defensive re-check, by reason.",
	}, []string{"reason"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_status_transitions_total",
		Help: "Donation status changes applied by reconciliation.",
	}, []string{"status"})

	IntakeRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_transitions_rejected_total",
		Help: "Intake transitions that stayed on the step, by step.",
	}, []string{"step"})

	IntakeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intake_sessions_active",
		Help: "Live intake sessions.",
	})

	QRTimerExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_qr_timer_expired_total",
		Help: "QR payment windows that expired and auto-advanced.",
	})

	ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_summary_duration_seconds",
		Help:    "Time to assemble the dashboard summary.",
		Buckets: prometheus.DefBuckets,
	})
)
