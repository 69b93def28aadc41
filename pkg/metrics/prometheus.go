// Package metrics provides Prometheus metrics for the examcast prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcome label values.
const (
	OutcomeSuccess          = "success"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeEncodingError    = "encoding_error"
	OutcomeInternalError    = "internal_error"
)

// Bundle load result label values.
const (
	LoadSucceeded = "succeeded"
	LoadFailed    = "failed"
)

// Manager manages all Prometheus metrics for the examcast service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Prediction pipeline
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	calibratedScores  prometheus.Histogram
	calibrationClamps prometheus.Counter
	categoryFallbacks *prometheus.CounterVec
	inferenceErrors   prometheus.Counter

	// Model bundle
	bundleLoaded       prometheus.Gauge
	bundleLoads        *prometheus.CounterVec
	bundleLoadDuration prometheus.Histogram
	bundleLastLoadUnix prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "examcast",
		subsystem:        "predictor",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the configured prefix to a metric name.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of prediction requests by outcome"),
		[]string{"outcome"},
	)

	m.predictionLatency = auto.NewHistogram(m.histogramOpts(
		"prediction_latency_milliseconds",
		"End-to-end prediction latency in milliseconds (assemble, infer, calibrate)",
		m.histogramBuckets,
	))

	m.calibratedScores = auto.NewHistogram(m.histogramOpts(
		"calibrated_score",
		"Distribution of calibrated scores returned to callers",
		prometheus.LinearBuckets(0, 10, 11),
	))

	m.calibrationClamps = auto.NewCounter(m.counterOpts(
		"calibration_clamps_total",
		"Total number of predictions where the baseline floor overrode the model",
	))

	m.categoryFallbacks = auto.NewCounterVec(
		m.counterOpts("category_fallbacks_total", "Total number of unseen labels collapsed to the first known class"),
		[]string{"encoder"},
	)

	m.inferenceErrors = auto.NewCounter(m.counterOpts(
		"inference_errors_total",
		"Total number of regressor failures",
	))

	m.bundleLoaded = auto.NewGauge(m.gaugeOpts(
		"bundle_loaded",
		"1 when a model bundle is being served, 0 when degraded",
	))

	m.bundleLoads = auto.NewCounterVec(
		m.counterOpts("bundle_loads_total", "Total number of model bundle load attempts by result"),
		[]string{"result"},
	)

	m.bundleLoadDuration = auto.NewHistogram(m.histogramOpts(
		"bundle_load_duration_milliseconds",
		"Model bundle load duration in milliseconds",
		m.histogramBuckets,
	))

	m.bundleLastLoadUnix = auto.NewGauge(m.gaugeOpts(
		"bundle_last_load_unix",
		"Unix timestamp of the last successful bundle load",
	))

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes",
		"System memory usage in bytes",
	))

	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count",
		"Number of goroutines",
	))

	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Prediction Metrics Functions.

// RecordPrediction increments the prediction counter for an outcome.
func RecordPrediction(outcome string) {
	globalManager.predictions.WithLabelValues(outcome).Inc()
}

// RecordPredictionLatency records end-to-end prediction latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordCalibratedScore records a served calibrated score.
func RecordCalibratedScore(score float64) {
	globalManager.calibratedScores.Observe(score)
}

// RecordCalibrationClamp increments the floor-override counter.
func RecordCalibrationClamp() {
	globalManager.calibrationClamps.Inc()
}

// RecordCategoryFallback increments the fallback counter for an encoder.
func RecordCategoryFallback(encoder string) {
	globalManager.categoryFallbacks.WithLabelValues(encoder).Inc()
}

// RecordInferenceError increments the regressor failure counter.
func RecordInferenceError() {
	globalManager.inferenceErrors.Inc()
}

// Bundle Metrics Functions.

// UpdateBundleLoaded sets the bundle availability gauge.
func UpdateBundleLoaded(loaded bool) {
	if loaded {
		globalManager.bundleLoaded.Set(1)
		return
	}
	globalManager.bundleLoaded.Set(0)
}

// RecordBundleLoad records a bundle load attempt and its duration.
func RecordBundleLoad(result string, durationMs float64, unix int64) {
	globalManager.bundleLoads.WithLabelValues(result).Inc()
	globalManager.bundleLoadDuration.Observe(durationMs)
	if result == LoadSucceeded {
		globalManager.bundleLastLoadUnix.Set(float64(unix))
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
