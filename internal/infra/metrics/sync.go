package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(syncServicesTotal, syncRunsTotal) }

var syncServicesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provider_sync_services_total",
		Help: "Catalog records processed during provider sync, by outcome.",
	},
	[]string{"outcome"}, // created, updated, skipped
)

var syncRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provider_sync_runs_total",
		Help: "Provider sync runs by result.",
	},
	[]string{"result"}, // ok, upstream_error
)

func AddSyncServices(outcome string, n int) {
	syncServicesTotal.WithLabelValues(norm(outcome)).Add(float64(n))
}

func IncSyncRun(result string) {
	syncRunsTotal.WithLabelValues(norm(result)).Inc()
}
