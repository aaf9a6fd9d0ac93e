package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Domain
	StrainsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strains_created_total",
			Help: "Total strains created, including auto-created offspring",
		},
	)
	CrossesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crosses_created_total",
			Help: "Total crosses recorded",
		},
	)
	ExportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_exports_generated_total",
			Help: "Total PDF exports generated",
		},
		[]string{"plan"}, // basic|premium
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestLatency)
	prometheus.MustRegister(StrainsCreated)
	prometheus.MustRegister(CrossesCreated)
	prometheus.MustRegister(ExportsGenerated)
}
