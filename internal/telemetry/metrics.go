package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CalculationsTotal counts completed score computations
	CalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnmanager",
			Name:      "cvss_calculations_total",
			Help:      "Total number of CVSS base scores computed",
		},
		[]string{"transport", "severity"},
	)

	// CalculationFailures counts computations rejected for invalid input
	CalculationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnmanager",
			Name:      "cvss_calculation_failures_total",
			Help:      "Total number of CVSS computations that failed",
		},
		[]string{"transport", "reason"},
	)

	// FallbacksTotal counts neutral results served in place of a failure
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vulnmanager",
			Name:      "cvss_fallbacks_total",
			Help:      "Total number of neutral results returned after a failed computation",
		},
		[]string{"transport"},
	)

	// HTTPRequestDuration observes HTTP handler latency
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vulnmanager",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// LiveSessions tracks open WebSocket calculator sessions
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vulnmanager",
			Name:      "cvss_live_sessions",
			Help:      "Number of open live calculator sessions",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Safe to call more than once.
func InitMetrics() {
	once.Do(func() {
		// Already-registered errors are ignored on purpose
		prometheus.DefaultRegisterer.Register(CalculationsTotal)
		prometheus.DefaultRegisterer.Register(CalculationFailures)
		prometheus.DefaultRegisterer.Register(FallbacksTotal)
		prometheus.DefaultRegisterer.Register(HTTPRequestDuration)
		prometheus.DefaultRegisterer.Register(LiveSessions)
	})
}
