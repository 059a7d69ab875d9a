// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "buildwise"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Enhancement job metrics
var (
	// EnhanceJobsTotal counts jobs by outcome (ok, or the error kind).
	EnhanceJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enhance",
			Name:      "jobs_total",
			Help:      "Total floor plan enhancement jobs by outcome",
		},
		[]string{"outcome"},
	)

	EnhanceJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enhance",
			Name:      "job_duration_seconds",
			Help:      "Wall time of the external processing tool",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	EnhanceJobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "enhance",
			Name:      "jobs_running",
			Help:      "Enhancement processes currently running",
		},
	)

	EnhanceCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enhance",
			Name:      "cleanup_failures_total",
			Help:      "Temporary work dirs that could not be removed",
		},
	)

	SweptWorkDirs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enhance",
			Name:      "swept_work_dirs_total",
			Help:      "Stale work dirs removed by the sweeper",
		},
	)
)

// Storage and provider metrics
var (
	ImagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "persisted_total",
			Help:      "Images written under the public upload tree",
		},
		[]string{"category", "source"},
	)

	ImageMirrorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "mirror_failures_total",
			Help:      "Failed uploads to the object store mirror",
		},
	)

	GeneratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "calls_total",
			Help:      "AI floor plan generation calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	MailSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound emails by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// SideEffectFailures counts swallowed failures on best-effort endpoints.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Secondary side effects that failed and were ignored",
		},
		[]string{"side_effect"},
	)
)
