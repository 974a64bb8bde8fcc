package metrics

import (
	"time"

	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payflow"

// CheckoutMetrics records payment resolutions, order submissions and cart
// snapshot failures.
type CheckoutMetrics struct {
	resolutions      *prometheus.CounterVec
	submission       *prometheus.HistogramVec
	snapshotFailures *prometheus.CounterVec
	publishFailures  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_resolutions_total",
		Help:      "Payment resolutions by terminal state and payment origin.",
	}, []string{"state", "origin"})
	submission := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_submission_seconds",
		Help:      "Duration of order submissions to the backend in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	snapshotFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_snapshot_failures_total",
		Help:      "Failed cart snapshot operations.",
	}, []string{"op"})
	publishFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_event_publish_failures_total",
		Help:      "Checkout outcome events that could not be published.",
	})
	reg.MustRegister(resolutions, submission, snapshotFailures, publishFailures)
	return &CheckoutMetrics{
		resolutions:      resolutions,
		submission:       submission,
		snapshotFailures: snapshotFailures,
		publishFailures:  publishFailures,
	}
}

// ObserveResolution counts a finished resolution.
func (m *CheckoutMetrics) ObserveResolution(state enums.ResolutionState, origin enums.PaymentOrigin) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(string(state)), normalizeLabel(string(origin))).Inc()
}

// ObserveSubmission records how long the backend took to answer.
func (m *CheckoutMetrics) ObserveSubmission(outcome enums.ResolutionState, duration time.Duration) {
	if m == nil || m.submission == nil {
		return
	}
	m.submission.WithLabelValues(normalizeLabel(string(outcome))).Observe(duration.Seconds())
}

// IncSnapshotFailure counts a failed snapshot operation (load, decode, save, delete).
func (m *CheckoutMetrics) IncSnapshotFailure(op string) {
	if m == nil || m.snapshotFailures == nil {
		return
	}
	m.snapshotFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *CheckoutMetrics) IncPublishFailure() {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
