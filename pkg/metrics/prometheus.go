// Package metrics provides Prometheus metrics for the perfect circle service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	scoresComputed  *prometheus.CounterVec
	scoreValue      prometheus.Histogram
	scoreSeverity   *prometheus.CounterVec
	scoringLatency  prometheus.Histogram
	liveRecomputes  prometheus.Counter
	floorApplied    prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionsExpired prometheus.Counter
	gesturesEnded   *prometheus.CounterVec

	// Leaderboard
	submissions        *prometheus.CounterVec
	leaderboardUpdates prometheus.Counter

	// Repository
	repositoryRecordsTotal  prometheus.Gauge
	repositoryInsertLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Render and tools
	renders       prometheus.Counter
	renderLatency prometheus.Histogram
	toolCalls     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "perfectcircle",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounterVec(m.counter("scores_computed_total", "Total number of final scores computed by validity"), []string{"result"})
	m.scoreValue = auto.NewHistogram(m.histogram("score_value", "Distribution of valid final scores", prometheus.LinearBuckets(0, 10, 10)))
	m.scoreSeverity = auto.NewCounterVec(m.counter("score_severity_total", "Final scores by presentation bucket"), []string{"severity"})
	m.scoringLatency = auto.NewHistogram(m.histogram("scoring_latency_milliseconds", "Histogram of scoring latency in milliseconds", nil))
	m.liveRecomputes = auto.NewCounter(m.counter("live_recomputes_total", "Total number of live score recomputes during gestures"))
	m.floorApplied = auto.NewCounter(m.counter("floor_applied_total", "Total number of scores lifted by the closed circle floor"))
	m.sessionsActive = auto.NewGauge(m.gauge("sessions_active", "Current number of drawing sessions"))
	m.sessionsExpired = auto.NewCounter(m.counter("sessions_expired_total", "Total number of sessions expired for inactivity"))
	m.gesturesEnded = auto.NewCounterVec(m.counter("gestures_ended_total", "Total number of finished gestures by outcome"), []string{"outcome"})

	m.submissions = auto.NewCounterVec(m.counter("submissions_total", "Leaderboard submissions by outcome"), []string{"outcome"})
	m.leaderboardUpdates = auto.NewCounter(m.counter("leaderboard_updates_total", "Total number of entries written to the leaderboard"))

	m.repositoryRecordsTotal = auto.NewGauge(m.gauge("repository_records_total", "Total number of leaderboard records"))
	m.repositoryInsertLatency = auto.NewHistogram(m.histogram("repository_insert_latency_milliseconds", "Repository insert latency in milliseconds", nil))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogram("repository_query_latency_milliseconds", "Repository query latency in milliseconds", nil))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current size of the submission queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Total number of submissions enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counter("queue_dequeue_total", "Total number of submissions dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Number of submission workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Number of workers currently processing"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", nil))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Total number of worker errors"))

	m.renders = auto.NewCounter(m.counter("renders_total", "Total number of rendered previews"))
	m.renderLatency = auto.NewHistogram(m.histogram("render_latency_milliseconds", "Preview render latency in milliseconds", nil))
	m.toolCalls = auto.NewCounterVec(m.counter("tool_calls_total", "MCP tool calls by tool and status"), []string{"tool", "status"})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordScore records one final score with its validity and severity bucket.
func RecordScore(valid bool, value float64, severity string, floorApplied bool) {
	if !valid {
		globalManager.scoresComputed.WithLabelValues("invalid").Inc()
		return
	}
	globalManager.scoresComputed.WithLabelValues("valid").Inc()
	globalManager.scoreValue.Observe(value)
	globalManager.scoreSeverity.WithLabelValues(severity).Inc()
	if floorApplied {
		globalManager.floorApplied.Inc()
	}
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordLiveRecompute increments the live recompute counter.
func RecordLiveRecompute() {
	globalManager.liveRecomputes.Inc()
}

// UpdateSessionsActive sets the number of tracked sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionsExpired adds n expired sessions.
func RecordSessionsExpired(n int) {
	globalManager.sessionsExpired.Add(float64(n))
}

// RecordGestureEnded counts a finished gesture. outcome is one of valid, invalid or eligible.
func RecordGestureEnded(outcome string) {
	globalManager.gesturesEnded.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a submission by outcome
// (accepted, duplicate, rejected, backpressure, stored, dropped).
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// UpdateRepositoryRecordsTotal sets the total number of leaderboard records.
func UpdateRepositoryRecordsTotal(count int) {
	globalManager.repositoryRecordsTotal.Set(float64(count))
}

// RecordRepositoryInsertLatency records repository insert latency.
func RecordRepositoryInsertLatency(latencyMs float64) {
	globalManager.repositoryInsertLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordRender records a rendered preview and its latency.
func RecordRender(latencyMs float64) {
	globalManager.renders.Inc()
	globalManager.renderLatency.Observe(latencyMs)
}

// RecordToolCall counts an MCP tool call.
func RecordToolCall(tool, status string) {
	globalManager.toolCalls.WithLabelValues(tool, status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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

// Totals sums every counter and gauge family of the registry by metric name,
// summing across label values.
func Totals() (map[string]float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				sum += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = sum
	}
	return out, nil
}
