package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	gatewayRequestsTotal   *prometheus.CounterVec
	gatewayLatencySeconds  *prometheus.HistogramVec
	gatewayErrorsTotal     *prometheus.CounterVec
	upstreamRequestsTotal  *prometheus.CounterVec
	upstreamLatencySeconds *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for gateway traffic
// and grading backend calls.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gatewayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of gateway API requests served.",
		}, []string{"method", "route", "status"})

		gatewayLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_latency_seconds",
			Help:    "Latency distribution for gateway API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gatewayErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Total number of error responses returned by gateway endpoints.",
		}, []string{"method", "route", "status"})

		upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of calls issued to the grading backend.",
		}, []string{"method", "path", "status"})

		upstreamLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency distribution for grading backend calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "path"})

		prometheus.MustRegister(
			gatewayRequestsTotal,
			gatewayLatencySeconds,
			gatewayErrorsTotal,
			upstreamRequestsTotal,
			upstreamLatencySeconds,
		)
	})
}

// GatewayRequests exposes the counter for gateway requests.
func GatewayRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return gatewayRequestsTotal
}

// GatewayLatency exposes the latency histogram for gateway requests.
func GatewayLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return gatewayLatencySeconds
}

// GatewayErrors exposes the counter for gateway error responses.
func GatewayErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return gatewayErrorsTotal
}

// UpstreamRequests exposes the counter for grading backend calls.
func UpstreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamRequestsTotal
}

// UpstreamLatency exposes the latency histogram for grading backend calls.
func UpstreamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return upstreamLatencySeconds
}
