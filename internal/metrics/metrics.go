package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taller_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taller_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DocumentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taller_documents_created_total",
			Help: "Documents created by kind (sale, purchase, collection, payment, check, work_order)",
		},
		[]string{"kind"},
	)

	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taller_ledger_operations_total",
			Help: "Balance changes by document kind and operation (apply, reverse, adjust)",
		},
		[]string{"kind", "op"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		DocumentsCreated,
		LedgerOperations,
	)
}

func DocumentCreated(kind string) {
	DocumentsCreated.WithLabelValues(kind).Inc()
}

func LedgerOperation(kind, op string) {
	LedgerOperations.WithLabelValues(kind, op).Inc()
}
