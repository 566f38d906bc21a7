package billing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments the billing service maintains.
type Metrics struct {
	charges       *prometheus.CounterVec
	rateLimited   prometheus.Counter
	grants        prometheus.Counter
	webhookEvents *prometheus.CounterVec
}

// NewMetrics creates the billing instruments and registers them with reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.charges, m.rateLimited, m.grants, m.webhookEvents)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "credits_charged_total",
			Help:      "Credits debited from wallets, by metric.",
		}, []string{"metric"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "rate_limited_total",
			Help:      "Requests denied by the rate limiter.",
		}),
		grants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "plan_grants_total",
			Help:      "Plan allowance grants applied to wallets.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "webhook_events_total",
			Help:      "Subscription webhook events processed, by normalized type.",
		}, []string{"type"}),
	}
}
