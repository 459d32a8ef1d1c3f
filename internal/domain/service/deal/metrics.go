package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dealmint"

type Metrics struct {
	dealsCreated    prometheus.Counter
	negotiations    prometheus.Counter
	discountPercent prometheus.Histogram
	payments        *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	bridgeDuration  *prometheus.HistogramVec
	bridgeErrors    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		dealsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deals_created_total",
			Help:      "Deals created.",
		}),
		negotiations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "negotiations_total",
			Help:      "Agreements reached by negotiation.",
		}),
		discountPercent: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "negotiation_discount_percent",
			Help:      "Total discount granted, as a percentage of the original amount.",
			Buckets:   []float64{0, 2, 4, 6, 8, 10, 12, 14, 17},
		}),
		payments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded, by network.",
		}, []string{"network"}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "settlement_transitions_total",
			Help:      "Settlement status changes, by new status.",
		}, []string{"status"}),
		bridgeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "bridge_request_duration_seconds",
			Help:      "Latency of bridging service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		bridgeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bridge_errors_total",
			Help:      "Failed bridging service calls.",
		}, []string{"operation"}),
	}
}
