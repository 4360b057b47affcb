package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MatchingMetrics covers ingestion, reservation and approval activity.
type MatchingMetrics struct {
	// Ingestion
	IngestionRequestsTotal *prometheus.CounterVec
	IngestionDuration      *prometheus.HistogramVec

	// Reservations
	ReservationsTotal     *prometheus.CounterVec
	ReservationMatchTotal *prometheus.CounterVec

	// Approvals
	ApprovalTransitionsTotal *prometheus.CounterVec
	ApprovalConfidenceTotal  *prometheus.CounterVec

	// Background jobs
	SweptRowsTotal *prometheus.CounterVec

	// Errors
	EventPublishErrorsTotal *prometheus.CounterVec
	HookErrorsTotal         *prometheus.CounterVec
}

// NewMatchingMetrics registers on reg; a nil reg uses the default registerer.
func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MatchingMetrics{
		IngestionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_ingestion_requests_total",
				Help: "Notification ingestion requests by outcome",
			},
			[]string{"outcome"},
		),

		IngestionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sms_ingestion_duration_seconds",
				Help:    "Time spent processing an ingestion request",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms, 10ms, 20ms...
			},
			[]string{"outcome"},
		),

		ReservationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_reservations_total",
				Help: "Unique amount reservation attempts by result",
			},
			[]string{"result"},
		),

		ReservationMatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_reservation_matches_total",
				Help: "Credit notifications checked against reservations by result",
			},
			[]string{"result"},
		),

		ApprovalTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_approval_transitions_total",
				Help: "Approval state transitions by target status",
			},
			[]string{"status"},
		),

		ApprovalConfidenceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_approval_confidence_total",
				Help: "Confidence assessed for new approvals",
			},
			[]string{"confidence"},
		),

		SweptRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_swept_rows_total",
				Help: "Rows changed by background sweepers",
			},
			[]string{"kind"},
		),

		EventPublishErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_event_publish_errors_total",
				Help: "Failed event publications by topic",
			},
			[]string{"topic"},
		),

		HookErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_hook_errors_total",
				Help: "Failed order hook invocations",
			},
			[]string{"hook"},
		),
	}
}

func (m *MatchingMetrics) RecordIngestion(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.IngestionRequestsTotal.WithLabelValues(outcome).Inc()
	m.IngestionDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

func (m *MatchingMetrics) RecordReservation(result string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(result).Inc()
}

func (m *MatchingMetrics) RecordMatch(matched bool) {
	if m == nil {
		return
	}
	result := "unmatched"
	if matched {
		result = "matched"
	}
	m.ReservationMatchTotal.WithLabelValues(result).Inc()
}

func (m *MatchingMetrics) RecordApprovalTransition(status string) {
	if m == nil {
		return
	}
	m.ApprovalTransitionsTotal.WithLabelValues(status).Inc()
}

func (m *MatchingMetrics) RecordConfidence(confidence string) {
	if m == nil {
		return
	}
	m.ApprovalConfidenceTotal.WithLabelValues(confidence).Inc()
}

func (m *MatchingMetrics) RecordSwept(kind string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.SweptRowsTotal.WithLabelValues(kind).Add(float64(rows))
}

func (m *MatchingMetrics) RecordPublishError(topic string) {
	if m == nil {
		return
	}
	m.EventPublishErrorsTotal.WithLabelValues(topic).Inc()
}

func (m *MatchingMetrics) RecordHookError(hook string) {
	if m == nil {
		return
	}
	m.HookErrorsTotal.WithLabelValues(hook).Inc()
}

// Handler exposes the registry that holds these metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
