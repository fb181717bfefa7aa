// Package telemetry exposes Prometheus metrics for the development backend.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricImportRequestsTotal = "importer_import_requests_total"
	MetricUploadsTotal        = "importer_uploads_total"
	MetricJobsRunning         = "importer_jobs_running"
	MetricHTTPRequestsTotal   = "importer_http_requests_total"
	MetricHTTPDurationSeconds = "importer_http_request_duration_seconds"
	MetricPreviewRowsTotal    = "importer_preview_rows_total"
)

// Import request outcomes
const (
	OutcomeStarted   = "started"
	OutcomeForbidden = "forbidden"
	OutcomeInvalid   = "invalid"
	OutcomeUnknown   = "unknown_file"
	OutcomeError     = "error"
)

// ImportMetrics holds the backend's Prometheus instruments on a private
// registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type ImportMetrics struct {
	registry *prometheus.Registry

	importRequests *prometheus.CounterVec
	uploads        *prometheus.CounterVec
	previewRows    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewImportMetrics creates and registers every instrument. running reports
// the number of jobs in flight and may be nil.
func NewImportMetrics(running func() int) *ImportMetrics {
	m := &ImportMetrics{
		registry: prometheus.NewRegistry(),
		importRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricImportRequestsTotal,
				Help: "Import requests received, by module type and outcome.",
			},
			[]string{"module_type", "outcome"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricUploadsTotal,
				Help: "Spreadsheet uploads, by module type and result.",
			},
			[]string{"module_type", "result"},
		),
		previewRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPreviewRowsTotal,
				Help: "Data rows found in uploaded spreadsheets.",
			},
			[]string{"module_type"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "HTTP requests served, by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPDurationSeconds,
				Help:    "HTTP request latency distribution in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.importRequests,
		m.uploads,
		m.previewRows,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if running != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: MetricJobsRunning,
				Help: "Import jobs currently running.",
			},
			func() float64 { return float64(running()) },
		))
	}
	return m
}

// Registry returns the registry the instruments live on
func (m *ImportMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *ImportMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordImportRequest counts one import request
func (m *ImportMetrics) RecordImportRequest(moduleType, outcome string) {
	m.importRequests.WithLabelValues(labelOrNone(moduleType), outcome).Inc()
}

// RecordUpload counts one upload and the rows it held
func (m *ImportMetrics) RecordUpload(moduleType, result string, rows int) {
	moduleType = labelOrNone(moduleType)
	m.uploads.WithLabelValues(moduleType, result).Inc()
	if rows > 0 {
		m.previewRows.WithLabelValues(moduleType).Add(float64(rows))
	}
}

// RecordHTTPRequest records one served request
func (m *ImportMetrics) RecordHTTPRequest(method, route, status string, elapsed time.Duration) {
	route = labelOrNone(route)
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func labelOrNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
