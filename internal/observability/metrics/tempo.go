// Package metrics provides Prometheus metrics for the tempo analysis pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TempoMetrics contains Prometheus metrics for tempo analysis operations
type TempoMetrics struct {
	registry *prometheus.Registry

	// Analysis loop metrics
	analysisPassesTotal   *prometheus.CounterVec
	analysisPassDuration  *prometheus.HistogramVec
	analysisErrorsTotal   *prometheus.CounterVec
	noEstimateCyclesTotal prometheus.Counter

	// Published estimate metrics
	currentBPMGauge  prometheus.Gauge
	estimatesTotal   prometheus.Counter
	bandSwitchsTotal *prometheus.CounterVec

	// Buffer metrics
	bufferSnapshotsTotal   prometheus.Counter
	bufferSnapshotSamples  prometheus.Histogram
	bufferSnapshotTimeouts prometheus.Counter
}

// NewTempoMetrics creates a new TempoMetrics instance and registers its
// collectors with the given registry.
func NewTempoMetrics(registry *prometheus.Registry) (*TempoMetrics, error) {
	m := &TempoMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TempoMetrics) initMetrics() error {
	m.analysisPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_analysis_passes_total",
			Help: "Total number of tempo analysis passes by result",
		},
		[]string{"result"},
	)

	m.analysisPassDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempo_analysis_pass_duration_seconds",
			Help:    "Duration of tempo analysis passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"band"},
	)

	m.analysisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_analysis_errors_total",
			Help: "Total number of tempo analysis errors by type",
		},
		[]string{"error_type"},
	)

	m.noEstimateCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_no_estimate_cycles_total",
			Help: "Total number of analysis cycles without a confident estimate",
		},
	)

	m.currentBPMGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempo_current_bpm",
			Help: "Most recently published smoothed BPM estimate",
		},
	)

	m.estimatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_estimates_total",
			Help: "Total number of published BPM estimates",
		},
	)

	m.bandSwitchsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_band_switches_total",
			Help: "Total number of tempo band switches by target band",
		},
		[]string{"band"},
	)

	m.bufferSnapshotsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_buffer_snapshots_total",
			Help: "Total number of rolling window snapshots taken",
		},
	)

	m.bufferSnapshotSamples = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tempo_buffer_snapshot_samples",
			Help:    "Number of samples returned per rolling window snapshot",
			Buckets: prometheus.LinearBuckets(0, 16384, 10),
		},
	)

	m.bufferSnapshotTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tempo_buffer_snapshot_timeouts_total",
			Help: "Total number of snapshots that timed out waiting for new data",
		},
	)

	return m.registry.Register(m)
}

// Describe implements the prometheus.Collector interface
func (m *TempoMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.analysisPassesTotal.Describe(ch)
	m.analysisPassDuration.Describe(ch)
	m.analysisErrorsTotal.Describe(ch)
	m.noEstimateCyclesTotal.Describe(ch)
	m.currentBPMGauge.Describe(ch)
	m.estimatesTotal.Describe(ch)
	m.bandSwitchsTotal.Describe(ch)
	m.bufferSnapshotsTotal.Describe(ch)
	m.bufferSnapshotSamples.Describe(ch)
	m.bufferSnapshotTimeouts.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *TempoMetrics) Collect(ch chan<- prometheus.Metric) {
	m.analysisPassesTotal.Collect(ch)
	m.analysisPassDuration.Collect(ch)
	m.analysisErrorsTotal.Collect(ch)
	m.noEstimateCyclesTotal.Collect(ch)
	m.currentBPMGauge.Collect(ch)
	m.estimatesTotal.Collect(ch)
	m.bandSwitchsTotal.Collect(ch)
	m.bufferSnapshotsTotal.Collect(ch)
	m.bufferSnapshotSamples.Collect(ch)
	m.bufferSnapshotTimeouts.Collect(ch)
}

// RecordAnalysisPass records the outcome of one analysis pass.
func (m *TempoMetrics) RecordAnalysisPass(result string) {
	m.analysisPassesTotal.WithLabelValues(result).Inc()
}

// RecordAnalysisPassDuration records the duration of one analysis pass.
func (m *TempoMetrics) RecordAnalysisPassDuration(band string, seconds float64) {
	m.analysisPassDuration.WithLabelValues(band).Observe(seconds)
}

// RecordAnalysisError records an analysis error by type.
func (m *TempoMetrics) RecordAnalysisError(errorType string) {
	m.analysisErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordNoEstimate records a cycle without a confident estimate.
func (m *TempoMetrics) RecordNoEstimate() {
	m.noEstimateCyclesTotal.Inc()
}

// RecordEstimate records a published smoothed estimate.
func (m *TempoMetrics) RecordEstimate(bpm float64) {
	m.currentBPMGauge.Set(bpm)
	m.estimatesTotal.Inc()
}

// RecordBandSwitch records a tempo band switch.
func (m *TempoMetrics) RecordBandSwitch(band string) {
	m.bandSwitchsTotal.WithLabelValues(band).Inc()
}

// RecordSnapshot records a rolling window snapshot and its sample count.
func (m *TempoMetrics) RecordSnapshot(samples int) {
	m.bufferSnapshotsTotal.Inc()
	m.bufferSnapshotSamples.Observe(float64(samples))
}

// RecordSnapshotTimeout records a snapshot that returned without new data.
func (m *TempoMetrics) RecordSnapshotTimeout() {
	m.bufferSnapshotTimeouts.Inc()
}
