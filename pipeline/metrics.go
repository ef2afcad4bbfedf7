package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the collector pipeline.
type Metrics struct {
	Registry           *prometheus.Registry
	RunsTotal          *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	ReadingsTotal      prometheus.Counter
	RowsAppendedTotal  prometheus.Counter
	DuplicatesDropped  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	WindowSkippedTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_runs_total",
			Help: "Total pipeline invocations by terminal outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collector_fetch_duration_seconds",
			Help:    "Latency of the proxied page fetch.",
			Buckets: prometheus.DefBuckets,
		},
	)
	readings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_readings_total",
			Help: "Total readings extracted from fetched pages.",
		},
	)
	rowsAppended := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_rows_appended_total",
			Help: "Total rows appended to the destination table.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_duplicates_dropped_total",
			Help: "Readings dropped because their key was already seen.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Total pipeline errors by type.",
		},
		[]string{"error_type"},
	)
	windowSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_window_skipped_total",
			Help: "Invocations skipped because the operating window was closed.",
		},
	)

	registry.MustRegister(runs, fetchDuration, readings, rowsAppended, duplicates, errorsTotal, windowSkipped)

	return &Metrics{
		Registry:           registry,
		RunsTotal:          runs,
		FetchDuration:      fetchDuration,
		ReadingsTotal:      readings,
		RowsAppendedTotal:  rowsAppended,
		DuplicatesDropped:  duplicates,
		ErrorsTotal:        errorsTotal,
		WindowSkippedTotal: windowSkipped,
	}
}

// IncRun increments the run counter for a terminal outcome.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddReadings counts extracted readings.
func (m *Metrics) AddReadings(n int) {
	if m == nil {
		return
	}
	m.ReadingsTotal.Add(float64(n))
}

// AddRows counts appended rows.
func (m *Metrics) AddRows(n int) {
	if m == nil {
		return
	}
	m.RowsAppendedTotal.Add(float64(n))
}

// AddDuplicates counts dropped duplicate readings.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil {
		return
	}
	m.DuplicatesDropped.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncWindowSkipped counts a closed-window skip.
func (m *Metrics) IncWindowSkipped() {
	if m == nil {
		return
	}
	m.WindowSkippedTotal.Inc()
}
