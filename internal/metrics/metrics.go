package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cart and booking workflow.
type Metrics struct {
	CommitsTotal         *prometheus.CounterVec
	CommitDuration       prometheus.Histogram
	DelegatesRejected    *prometheus.CounterVec
	NotificationFailures prometheus.Counter
}

// New registers the workflow metrics with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_commits_total",
			Help: "Total number of cart commits by outcome",
		}, []string{"outcome"}),
		CommitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookcart_commit_duration_seconds",
			Help:    "Duration of the booking commit transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		DelegatesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_delegates_rejected_total",
			Help: "Delegates rejected when added to a cart, by reason",
		}, []string{"reason"}),
		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bookcart_notification_failures_total",
			Help: "Booking notifications that could not be dispatched",
		}),
	}
}

// ObserveCommit records the outcome and duration of a commit.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCommit(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(outcome).Inc()
	m.CommitDuration.Observe(time.Since(start).Seconds())
}

// IncrementDelegateRejected records a delegate refused by the cart.
func (m *Metrics) IncrementDelegateRejected(reason string) {
	if m == nil {
		return
	}
	m.DelegatesRejected.WithLabelValues(reason).Inc()
}

// IncrementNotificationFailure records a notification the notifier refused.
func (m *Metrics) IncrementNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}
