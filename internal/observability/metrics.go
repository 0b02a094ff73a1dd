package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	operationRequestsTotal  *prometheus.CounterVec
	operationLatencySeconds *prometheus.HistogramVec
	operationErrorsTotal    *prometheus.CounterVec
	dashboardCacheTotal     *prometheus.CounterVec
	enrollmentsTotal        prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors exposed on /metrics.
func RegisterMetrics() {
	registerOnce.Do(func() {
		operationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_operation_requests_total",
			Help: "Total number of API operations served.",
		}, []string{"operation", "status"})

		operationLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academia_operation_latency_seconds",
			Help:    "Latency distribution for API operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"operation"})

		operationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_operation_errors_total",
			Help: "Total number of API operations that returned an error response.",
		}, []string{"operation", "status"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_dashboard_cache_total",
			Help: "Dashboard summary cache lookups by result.",
		}, []string{"result"})

		enrollmentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_enrollments_total",
			Help: "Total number of new course enrollments.",
		})

		prometheus.MustRegister(
			operationRequestsTotal,
			operationLatencySeconds,
			operationErrorsTotal,
			dashboardCacheTotal,
			enrollmentsTotal,
		)
	})
}

// OperationRequests exposes the counter for served operations.
func OperationRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return operationRequestsTotal
}

// OperationLatency exposes the latency histogram for operations.
func OperationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return operationLatencySeconds
}

// OperationErrors exposes the counter for error responses.
func OperationErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return operationErrorsTotal
}

// DashboardCache exposes the dashboard cache hit/miss counter.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// Enrollments exposes the counter of new enrollments.
func Enrollments() prometheus.Counter {
	RegisterMetrics()
	return enrollmentsTotal
}
