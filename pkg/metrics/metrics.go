package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	StoresTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_stores_total",
			Help: "Total number of stores by status",
		},
		[]string{"status"},
	)

	OperationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_operations_in_flight",
			Help: "Number of stores with a lifecycle operation in progress",
		},
	)

	// Provisioning metrics
	ProvisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_provisions_total",
			Help: "Total number of provision attempts by outcome",
		},
		[]string{"outcome"},
	)

	ProvisionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_provision_duration_seconds",
			Help:    "Time from provision start to ready in seconds",
			Buckets: []float64{15, 30, 60, 120, 240, 480, 600},
		},
	)

	DeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_deletes_total",
			Help: "Total number of delete attempts by outcome",
		},
		[]string{"outcome"},
	)

	UninstallFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_uninstall_failures_total",
			Help: "Helm uninstall failures tolerated during store deletion",
		},
	)

	// Recovery metrics
	RecoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_recoveries_total",
			Help: "Stores recovered at startup by resolution",
		},
		[]string{"resolution"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_rate_limit_rejections_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
		[]string{"limiter"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(StoresTotal)
	prometheus.MustRegister(OperationsInFlight)
	prometheus.MustRegister(ProvisionsTotal)
	prometheus.MustRegister(ProvisionDuration)
	prometheus.MustRegister(DeletesTotal)
	prometheus.MustRegister(UninstallFailures)
	prometheus.MustRegister(RecoveriesTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(RateLimitRejections)
}

// SetStoreCounts replaces the per-status store gauge from a histogram of
// current statuses. Statuses absent from the map are reset to zero so a
// status that empties out does not keep its stale value.
func SetStoreCounts(byStatus map[string]int) {
	StoresTotal.Reset()
	for status, count := range byStatus {
		StoresTotal.WithLabelValues(status).Set(float64(count))
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
