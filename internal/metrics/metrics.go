// Package metrics defines Prometheus metrics for the application.
//
// Metrics are declared as package-level variables using promauto so they
// self-register with the default registry. The /metrics endpoint is exposed
// by the server with optional basic auth.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobscout"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Entitlement metrics
var (
	EntitlementDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_decisions_total",
			Help:      "Entitlement check outcomes by action",
		},
		[]string{"action", "decision"},
	)

	UsageEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_events_recorded_total",
			Help:      "Usage events appended, by action",
		},
		[]string{"action"},
	)
)

// Billing webhook metrics
var (
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Billing webhook events received, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// Alert sweep metrics
var (
	AlertSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_sweeps_total",
			Help:      "Total number of alert sweep invocations",
		},
	)

	AlertsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_processed_total",
			Help:      "Alerts handled per sweep, by result",
		},
		[]string{"result"},
	)

	AlertSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_sweep_duration_seconds",
			Help:      "Alert sweep wall-clock duration",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
)
