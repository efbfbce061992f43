// Package telemetry defines the service's Prometheus collectors on a private registry.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockcast"

// Metrics holds every collector exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	IngestedRows     *prometheus.CounterVec
	RejectedUploads  *prometheus.CounterVec
	Predictions      *prometheus.CounterVec
	TrainingRuns     *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	ModelReloads     *prometheus.CounterVec
	ModelQuality     *prometheus.GaugeVec
	HTTPRequests     *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		IngestedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingested_rows_total",
				Help:      "Sales records persisted by ingestion",
			},
			[]string{"source"}, // upload|sweep
		),

		RejectedUploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_uploads_total",
				Help:      "Tabular files rejected before persistence",
			},
			[]string{"reason"}, // schema|data_quality|format|storage
		),

		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Prediction requests by outcome",
			},
			[]string{"outcome"},
		),

		TrainingRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_runs_total",
				Help:      "Training runs by final status",
			},
			[]string{"status"},
		),

		TrainingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Wall time of a full training run",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),

		ModelReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_reloads_total",
				Help:      "Artifact reload attempts by result",
			},
			[]string{"status"},
		),

		ModelQuality: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_quality",
				Help:      "Latest held-out evaluation metric per model",
			},
			[]string{"model", "metric"},
		),

		HTTPRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency by route and status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.IngestedRows,
		m.RejectedUploads,
		m.Predictions,
		m.TrainingRuns,
		m.TrainingDuration,
		m.ModelReloads,
		m.ModelQuality,
		m.HTTPRequests,
	)

	return m
}

// ObserveRequest records one API request. Unmatched requests share a single
// route label to keep cardinality bounded.
func (m *Metrics) ObserveRequest(method, pattern string, status int, elapsed time.Duration) {
	route := pattern
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.
		WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry for tests and custom gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
