package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestDurationMs, adminLoginsTotal) }

var httpRequestDurationMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
	[]string{"route", "method", "status"},
)

var adminLoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_logins_total",
		Help: "Admin login attempts by result.",
	},
	[]string{"result"}, // ok, rejected
)

func ObserveHTTPRequest(route, method string, status int, ms float64) {
	httpRequestDurationMs.WithLabelValues(route, method, strconv.Itoa(status)).Observe(ms)
}

func IncAdminLogin(result string) {
	adminLoginsTotal.WithLabelValues(norm(result)).Inc()
}
