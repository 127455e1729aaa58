// Package metrics provides Prometheus metrics for the podium results service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second

	// Namespace and Subsystem prefix every metric of the default manager.
	Namespace = "podium"
	Subsystem = "results"
)

// Metric names read back by clients scraping /healthz.
const (
	ReloadsName         = "reloads_total"
	SnapshotVersionName = "snapshot_version"
)

// FQName returns the exposed name of a default-manager metric.
func FQName(name string) string {
	return prometheus.BuildFQName(Namespace, Subsystem, name)
}

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Reload pipeline
	reloads            *prometheus.CounterVec
	aggregationLatency prometheus.Histogram
	sourceLoadLatency  prometheus.Histogram
	structuralErrors   prometheus.Counter

	// Published snapshot
	snapshotTeams       prometheus.Gauge
	snapshotEvents      prometheus.Gauge
	snapshotDisciplines prometheus.Gauge
	snapshotVersion     prometheus.Gauge
	snapshotLastUnix    prometheus.Gauge

	// Reload queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Editor and redirect listeners
	loginAttempts *prometheus.CounterVec
	documentSaves *prometheus.CounterVec
	redirects     prometheus.Counter

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
		namespace:        Namespace,
		subsystem:        Subsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often callers should sample gauges such as system stats.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.reloads = m.counterVec(ReloadsName, "Total number of reloads by trigger reason and outcome", "reason", "outcome")
	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds", "Time spent deriving a snapshot from records", m.histogramBuckets)
	m.sourceLoadLatency = m.histogram("source_load_latency_milliseconds", "Time spent reading and decoding the results document", m.histogramBuckets)
	m.structuralErrors = m.counter("structural_errors_total", "Snapshots published with a structural error message")

	m.snapshotTeams = m.gauge("snapshot_teams", "Number of teams in the published snapshot")
	m.snapshotEvents = m.gauge("snapshot_events", "Number of records in the published snapshot")
	m.snapshotDisciplines = m.gauge("snapshot_disciplines", "Number of disciplines in the published snapshot")
	m.snapshotVersion = m.gauge(SnapshotVersionName, "Version of the published snapshot")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix timestamp of the last snapshot publish")

	m.queueSize = m.gauge("queue_size", "Current number of pending reload events")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum reload queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of reload events enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of reload events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected reload events")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.loginAttempts = m.counterVec("login_attempts_total", "Editor login attempts by outcome", "outcome")
	m.documentSaves = m.counterVec("document_saves_total", "Editor document saves by document and outcome", "document", "outcome")
	m.redirects = m.counter("redirects_total", "Requests answered by the redirect listener")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Reload pipeline.

// RecordReload counts a finished reload.
func RecordReload(reason, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.reloads.WithLabelValues(reason, outcome).Inc()
}

// RecordAggregationLatency records aggregation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordSourceLoadLatency records source load latency in milliseconds.
func RecordSourceLoadLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceLoadLatency.Observe(latencyMs)
}

// RecordStructuralError counts a snapshot published with an error message.
func RecordStructuralError() {
	if !globalManager.enabled {
		return
	}
	globalManager.structuralErrors.Inc()
}

// UpdateSnapshot sets the published snapshot gauges.
func UpdateSnapshot(teams, events, disciplines int, version uint64, publishedAt time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotTeams.Set(float64(teams))
	globalManager.snapshotEvents.Set(float64(events))
	globalManager.snapshotDisciplines.Set(float64(disciplines))
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotLastUnix.Set(float64(publishedAt.Unix()))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordLoginAttempt counts an editor login by outcome (success, denied, invalid, limited).
func RecordLoginAttempt(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordDocumentSave counts an editor save by document and outcome.
func RecordDocumentSave(document, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.documentSaves.WithLabelValues(document, outcome).Inc()
}

// RecordRedirect counts a request answered by the redirect listener.
func RecordRedirect() {
	if !globalManager.enabled {
		return
	}
	globalManager.redirects.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval is the sampling interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
