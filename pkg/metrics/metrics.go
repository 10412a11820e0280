package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shophub"

type CheckoutMetrics struct {
	Outcomes   *prometheus.CounterVec
	DurationMS prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_ms",
		Help:      "Checkout latency in milliseconds, lock wait included.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	reg.MustRegister(outcomes, duration)
	return &CheckoutMetrics{Outcomes: outcomes, DurationMS: duration}
}

// Observe is safe on a nil receiver so services can run without metrics.
func (m *CheckoutMetrics) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
	m.DurationMS.Observe(float64(d.Milliseconds()))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
