package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway calls and signature verification outcomes.
type PaymentMetrics struct {
	gatewayDuration *prometheus.HistogramVec
	gatewayCalls    *prometheus.CounterVec
	verifications   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_calls_total",
		Help: "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment callback verifications by result.",
	}, []string{"result"})
	reg.MustRegister(gatewayDuration, gatewayCalls, verifications)
	return &PaymentMetrics{
		gatewayDuration: gatewayDuration,
		gatewayCalls:    gatewayCalls,
		verifications:   verifications,
	}
}

// ObserveGatewayCall records one outbound call to the payment gateway.
func (p *PaymentMetrics) ObserveGatewayCall(operation string, duration time.Duration, err error) {
	if p == nil || p.gatewayCalls == nil {
		return
	}
	operation = normalizeLabel(operation)
	p.gatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
	p.gatewayCalls.WithLabelValues(operation, outcomeFor(err)).Inc()
}

// IncVerification counts a verified or rejected callback.
func (p *PaymentMetrics) IncVerification(verified bool) {
	if p == nil || p.verifications == nil {
		return
	}
	result := "rejected"
	if verified {
		result = "verified"
	}
	p.verifications.WithLabelValues(result).Inc()
}
