package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart operation outcomes and fallback activity.
type CartMetrics struct {
	operations      *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by outcome.",
	}, []string{"op", "outcome"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_fallbacks_total",
		Help: "Remote cart failures absorbed by the local snapshot fallback.",
	}, []string{"op", "reason"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_gateway_duration_seconds",
		Help:    "Duration of upstream cart API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(operations, fallbacks, gatewayDuration)
	return &CartMetrics{
		operations:      operations,
		fallbacks:       fallbacks,
		gatewayDuration: gatewayDuration,
	}
}

// IncOperation counts one completed operation with its outcome.
func (c *CartMetrics) IncOperation(op, outcome string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncFallback counts one remote failure absorbed locally, split by reason
// (auth vs transport) so the two failure classes stay distinguishable.
func (c *CartMetrics) IncFallback(op, reason string) {
	if c == nil || c.fallbacks == nil {
		return
	}
	c.fallbacks.WithLabelValues(normalizeLabel(op), normalizeLabel(reason)).Inc()
}

// ObserveGatewayDuration records one upstream call duration.
func (c *CartMetrics) ObserveGatewayDuration(op string, duration time.Duration) {
	if c == nil || c.gatewayDuration == nil {
		return
	}
	c.gatewayDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
