package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// NotificationMetrics records order alert deliveries per channel.
type NotificationMetrics struct {
	duration   *prometheus.HistogramVec
	deliveries *prometheus.CounterVec
}

// NewNotificationMetrics registers the delivery metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_notification_duration_seconds",
		Help:    "Duration of order alert deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notification_deliveries_total",
		Help: "Order alert delivery attempts by channel and outcome.",
	}, []string{"channel", "outcome"})
	reg.MustRegister(duration, deliveries)
	return &NotificationMetrics{
		duration:   duration,
		deliveries: deliveries,
	}
}

// ObserveDelivery records one delivery attempt.
func (n *NotificationMetrics) ObserveDelivery(channel string, duration time.Duration, err error) {
	if n == nil || n.deliveries == nil {
		return
	}
	channel = normalizeLabel(channel)
	n.duration.WithLabelValues(channel).Observe(duration.Seconds())
	n.deliveries.WithLabelValues(channel, outcomeFor(err)).Inc()
}

func outcomeFor(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
