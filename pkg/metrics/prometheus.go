// Package metrics provides Prometheus metrics for the xptrack service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// snapshotBuckets sizes the snapshots-per-aggregation histogram; a range is
// typically one snapshot per day for up to a year.
var snapshotBuckets = []float64{1, 2, 5, 7, 14, 31, 90, 180, 366, 1000} //nolint:gochecknoglobals // static bucket layout

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	snapshotsAccepted  prometheus.Counter
	snapshotsDuplicate prometheus.Counter
	snapshotsStored    prometheus.Counter
	snapshotsRejected  *prometheus.CounterVec

	// Tracker reads
	aggregations         prometheus.Counter
	aggregationLatency   prometheus.Histogram
	aggregationSnapshots prometheus.Histogram
	pluginCardsServed    prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueErrors      prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeRecords      prometheus.Gauge
	storeWriteLatency prometheus.Histogram
	storeQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "xptrack",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.snapshotsAccepted = m.counter("snapshots_accepted_total", "Snapshots accepted onto the ingestion queue")
	m.snapshotsDuplicate = m.counter("snapshots_duplicate_total", "Snapshots dropped as duplicates of an account/date pair")
	m.snapshotsStored = m.counter("snapshots_stored_total", "Snapshots persisted by the workers")
	m.snapshotsRejected = m.counterVec("snapshots_rejected_total", "Snapshots rejected before queuing", "reason")

	m.aggregations = m.counter("aggregations_total", "Delta aggregations computed")
	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds", "Time to load a range and compute its deltas", m.histogramBuckets)
	m.aggregationSnapshots = m.histogram("aggregation_snapshots", "Snapshots folded into one aggregation", snapshotBuckets)
	m.pluginCardsServed = m.counter("plugin_cards_served_total", "Plugin hub cards returned")

	m.queueSize = m.gauge("queue_size", "Current ingestion queue length")
	m.queueCapacity = m.gauge("queue_capacity", "Ingestion queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue length / capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Messages enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Messages dequeued")
	m.queueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts refused")

	m.workerCount = m.gauge("worker_count", "Configured ingestion workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-snapshot worker latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker failures")

	m.storeRecords = m.gauge("store_records", "Snapshots held by the store")
	m.storeWriteLatency = m.histogram("store_write_latency_milliseconds", "Store write latency", m.histogramBuckets)
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Store range query latency", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSnapshotAccepted increments the accepted snapshots counter.
func RecordSnapshotAccepted() { globalManager.snapshotsAccepted.Inc() }

// RecordSnapshotDuplicate increments the duplicate snapshots counter.
func RecordSnapshotDuplicate() { globalManager.snapshotsDuplicate.Inc() }

// RecordSnapshotStored increments the stored snapshots counter.
func RecordSnapshotStored() { globalManager.snapshotsStored.Inc() }

// RecordSnapshotRejected counts a snapshot refused for reason.
func RecordSnapshotRejected(reason string) {
	globalManager.snapshotsRejected.WithLabelValues(reason).Inc()
}

// RecordAggregation records one delta aggregation over n snapshots.
func RecordAggregation(snapshots int, latencyMs float64) {
	globalManager.aggregations.Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
	globalManager.aggregationSnapshots.Observe(float64(snapshots))
}

// RecordPluginCardsServed adds n served plugin cards.
func RecordPluginCardsServed(n int) { globalManager.pluginCardsServed.Add(float64(n)) }

// UpdateQueueSize sets the queue length and utilization against capacity.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the refused-enqueue counter.
func RecordQueueEnqueueError() { globalManager.queueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateStoreRecords sets the number of stored snapshots.
func UpdateStoreRecords(count int) { globalManager.storeRecords.Set(float64(count)) }

// RecordStoreWriteLatency records store write latency.
func RecordStoreWriteLatency(latencyMs float64) { globalManager.storeWriteLatency.Observe(latencyMs) }

// RecordStoreQueryLatency records store query latency.
func RecordStoreQueryLatency(latencyMs float64) { globalManager.storeQueryLatency.Observe(latencyMs) }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// SinceMs returns the time elapsed since start in fractional milliseconds.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
