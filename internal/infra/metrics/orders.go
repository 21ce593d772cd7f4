package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(ordersCreatedTotal, orderFailuresTotal, orderChargeCents) }

var ordersCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created, by platform tag of the service.",
	},
	[]string{"platform"},
)

var orderFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_failures_total",
		Help: "Rejected redemption attempts by failure reason.",
	},
	[]string{"reason"}, // invalid_key, limit_reached, quantity, not_found, not_entitled, internal
)

var orderChargeCents = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "order_charge_cents",
		Help:    "Distribution of computed order charges in cents.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	},
)

func IncOrderCreated(platform string) {
	ordersCreatedTotal.WithLabelValues(norm(platform)).Inc()
}

func IncOrderFailure(reason string) {
	orderFailuresTotal.WithLabelValues(norm(reason)).Inc()
}

func ObserveOrderChargeCents(cents float64) {
	orderChargeCents.Observe(cents)
}
