// Package prometheus records ingestion metrics with the Prometheus client.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.IngestionMetrics = (*Metrics)(nil)

const namespace = "ingestd"

// Metrics owns a private registry so tests and multiple instances do not
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	filesPerRun  *prometheus.HistogramVec
	filesHandled *prometheus.CounterVec
}

// New creates and registers the ingestion collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished ingestion runs by company and final status.",
		}, []string{"company", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of finished ingestion runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"company"}),
		filesPerRun: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_processed_files",
			Help:      "Files processed per finished run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"company"}),
		filesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files handed to the knowledge base by outcome.",
		}, []string{"company", "ok"}),
	}
	m.registry.MustRegister(m.runs, m.runDuration, m.filesPerRun, m.filesHandled)
	return m
}

// RunFinished records a finished run.
func (m *Metrics) RunFinished(company, status string, processed int, elapsed time.Duration) {
	m.runs.WithLabelValues(company, status).Inc()
	m.runDuration.WithLabelValues(company).Observe(elapsed.Seconds())
	m.filesPerRun.WithLabelValues(company).Observe(float64(processed))
}

// FileProcessed records one file.
func (m *Metrics) FileProcessed(company string, ok bool) {
	m.filesHandled.WithLabelValues(company, strconv.FormatBool(ok)).Inc()
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
