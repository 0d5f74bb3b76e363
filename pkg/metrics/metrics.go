package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Searches counts directory searches by effective backend (osm|google).
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localservices_searches_total",
			Help: "Total number of directory searches",
		},
		[]string{"source"},
	)

	// ProviderRequests records calls to external provider backends by
	// backend (OSM|GOOGLE) and result (ok|error).
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localservices_provider_requests_total",
			Help: "Total number of external provider backend calls",
		},
		[]string{"backend", "result"},
	)

	// UsageEvents counts recorded provider interactions by action.
	UsageEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localservices_usage_events_total",
			Help: "Total number of recorded provider usage events",
		},
		[]string{"action"},
	)

	// BackupRuns counts archive runs by result (ok|error).
	BackupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localservices_backup_runs_total",
			Help: "Total number of backup archive runs",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "localservices_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
