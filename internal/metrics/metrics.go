package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parallax/audit-backend/internal/model"
)

// Metrics tracks submissions, store fallbacks and notification failures.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions          *prometheus.CounterVec
	StoreFallbacks       *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	PrimaryDuration      *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_requests_submitted_total",
			Help: "Accepted audit request submissions by the store that persisted them",
		}, []string{"store"}),
		StoreFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_store_fallbacks_total",
			Help: "Operations served by the local fallback after the primary store failed",
		}, []string{"operation"}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_notification_failures_total",
			Help: "Notification emails that could not be sent",
		}, []string{"kind"}),
		PrimaryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_primary_store_duration_seconds",
			Help:    "Duration of primary store calls, including failed ones",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}
}

// IncrementSubmitted records an accepted submission.
func (m *Metrics) IncrementSubmitted(store model.Store) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(string(store)).Inc()
}

// IncrementFallback records an operation that fell back to local storage.
func (m *Metrics) IncrementFallback(operation string) {
	if m == nil {
		return
	}
	m.StoreFallbacks.WithLabelValues(operation).Inc()
}

// IncrementNotificationFailure records a failed email of the given kind.
func (m *Metrics) IncrementNotificationFailure(kind string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(kind).Inc()
}

// ObservePrimary records the duration of a primary store call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePrimary(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.PrimaryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
