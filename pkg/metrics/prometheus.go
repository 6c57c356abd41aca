// Package metrics provides Prometheus metrics for the match digest pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values shared by callers.
const (
	PipelinePossessions = "possessions"
	PipelineTranscripts = "transcripts"

	OutcomeSuccess     = "success"
	OutcomeRetry       = "retry"
	OutcomeFailure     = "failure"
	OutcomePlaceholder = "placeholder"

	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)

// Manager manages all Prometheus metrics for the pipelines.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Planning
	unitsPlanned *prometheus.CounterVec

	// Enrichment
	enrichCalls   *prometheus.CounterVec
	enrichLatency *prometheus.HistogramVec
	pacingWait    *prometheus.HistogramVec
	unitFailures  *prometheus.CounterVec

	// Progress stream
	progressQueueSize prometheus.Gauge
	progressDropped   prometheus.Counter

	// Audio
	clipsExtracted       prometheus.Counter
	clipExtractLatency   prometheus.Histogram
	clipsSkippedEmpty    prometheus.Counter
	audioDurationSeconds prometheus.Gauge

	// Runs and artifacts
	runDuration   *prometheus.HistogramVec
	artifactBytes *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchdigest",
		subsystem:        "pipeline",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.unitsPlanned = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "units_planned_total",
		Help:        "Units (possessions or clips) planned for enrichment",
		ConstLabels: m.constLabels,
	}, []string{"pipeline"})

	m.enrichCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrich_calls_total",
		Help:        "Inference attempts by outcome",
		ConstLabels: m.constLabels,
	}, []string{"pipeline", "outcome"})

	m.enrichLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrich_latency_milliseconds",
		Help:        "Time spent per unit including retries and pacing",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"pipeline"})

	m.pacingWait = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pacing_wait_milliseconds",
		Help:        "Time spent waiting on the pacer per unit",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"pipeline"})

	m.unitFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unit_failures_total",
		Help:        "Units that exhausted their retries",
		ConstLabels: m.constLabels,
	}, []string{"pipeline"})

	m.progressQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "progress_queue_size",
		Help:        "Progress events waiting for the reporter",
		ConstLabels: m.constLabels,
	})

	m.progressDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "progress_dropped_total",
		Help:        "Progress events dropped because the stream was full",
		ConstLabels: m.constLabels,
	})

	m.clipsExtracted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "clips_extracted_total",
		Help:        "Audio clips written to disk",
		ConstLabels: m.constLabels,
	})

	m.clipExtractLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "clip_extract_latency_milliseconds",
		Help:        "Time spent extracting a single clip",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.clipsSkippedEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "clips_skipped_empty_total",
		Help:        "Planned clips that fell entirely past the end of the audio",
		ConstLabels: m.constLabels,
	})

	m.audioDurationSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "audio_duration_seconds",
		Help:        "Duration of the most recently planned recording",
		ConstLabels: m.constLabels,
	})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_milliseconds",
		Help:        "Wall time of a whole pipeline run",
		Buckets:     prometheus.ExponentialBuckets(100, 4, 10),
		ConstLabels: m.constLabels,
	}, []string{"pipeline", "status"})

	m.artifactBytes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "artifact_bytes_total",
		Help:        "Bytes written to output artifacts",
		ConstLabels: m.constLabels,
	}, []string{"pipeline"})
}

// RecordUnitsPlanned adds n planned units for pipeline.
func RecordUnitsPlanned(pipeline string, n int) {
	globalManager.unitsPlanned.WithLabelValues(pipeline).Add(float64(n))
}

// RecordEnrichCall counts one attempt outcome.
func RecordEnrichCall(pipeline, outcome string) {
	globalManager.enrichCalls.WithLabelValues(pipeline, outcome).Inc()
}

// RecordEnrichLatency records the time spent on one unit.
func RecordEnrichLatency(pipeline string, latencyMs float64) {
	globalManager.enrichLatency.WithLabelValues(pipeline).Observe(latencyMs)
}

// RecordPacingWait records pacer wait for one unit.
func RecordPacingWait(pipeline string, waitMs float64) {
	globalManager.pacingWait.WithLabelValues(pipeline).Observe(waitMs)
}

// RecordUnitFailure counts a unit that exhausted its retries.
func RecordUnitFailure(pipeline string) {
	globalManager.unitFailures.WithLabelValues(pipeline).Inc()
}

// UpdateProgressQueueSize sets the progress stream backlog.
func UpdateProgressQueueSize(size int) {
	globalManager.progressQueueSize.Set(float64(size))
}

// RecordProgressDropped counts a dropped progress event.
func RecordProgressDropped() {
	globalManager.progressDropped.Inc()
}

// RecordClipExtracted counts an extracted clip and its latency.
func RecordClipExtracted(latencyMs float64) {
	globalManager.clipsExtracted.Inc()
	globalManager.clipExtractLatency.Observe(latencyMs)
}

// RecordClipSkippedEmpty counts a clip that had no audio to extract.
func RecordClipSkippedEmpty() {
	globalManager.clipsSkippedEmpty.Inc()
}

// UpdateAudioDuration sets the duration of the recording being processed.
func UpdateAudioDuration(seconds float64) {
	globalManager.audioDurationSeconds.Set(seconds)
}

// RecordRunDuration records the wall time of a run.
func RecordRunDuration(pipeline, status string, durationMs float64) {
	globalManager.runDuration.WithLabelValues(pipeline, status).Observe(durationMs)
}

// RecordArtifactBytes adds n bytes written for pipeline.
func RecordArtifactBytes(pipeline string, n int) {
	globalManager.artifactBytes.WithLabelValues(pipeline).Add(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the custom registry to path for the node exporter
// textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoTextfilePath
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
