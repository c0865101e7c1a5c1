package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "price_optimizer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "price_optimizer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "price_optimizer",
			Subsystem: "pricing",
			Name:      "optimizations_total",
			Help:      "Optimal price computations by outcome.",
		},
		[]string{"outcome"},
	)

	productStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "price_optimizer",
			Subsystem: "pricing",
			Name:      "status_assignments_total",
			Help:      "Status values assigned by the optimizer.",
		},
		[]string{"status"},
	)

	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "price_optimizer",
			Subsystem: "competitors",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of competitor price refresh runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	quotesSimulated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "price_optimizer",
			Subsystem: "competitors",
			Name:      "quotes_simulated_total",
			Help:      "Competitor quotes produced by the simulator.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		optimizations,
		productStatus,
		refreshDuration,
		quotesSimulated,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordOptimization counts one OptimizeOne outcome: "updated", "no_data",
// "not_found" or "error". status is empty unless outcome is "updated".
func RecordOptimization(outcome, status string) {
	optimizations.WithLabelValues(outcome).Inc()
	if status != "" {
		productStatus.WithLabelValues(status).Inc()
	}
}

func RecordRefresh(d time.Duration, quotes int) {
	refreshDuration.Observe(d.Seconds())
	quotesSimulated.Add(float64(quotes))
}
