package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Latency buckets in milliseconds, sized for network verification calls.
var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the attendance service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Registration path
	registrations       *prometheus.CounterVec
	registrationLatency prometheus.Histogram
	lockWait            prometheus.Histogram
	holidayLookupErrors prometheus.Counter
	verifications       *prometheus.CounterVec
	verificationLatency *prometheus.HistogramVec

	// Reporting path
	reportSessions *prometheus.CounterVec
	reportLatency  prometheus.Histogram
	openSessions   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid exposing unrelated default collectors twice.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	customRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hris",
		subsystem:        "attendance",
		histogramBuckets: defaultBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations
	auto := promauto.With(m.registry)

	m.registrations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "registrations_total",
			Help:      "Attendance registrations by direction, method and outcome",
		},
		[]string{"direction", "method", "outcome"},
	)

	m.registrationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registration_latency_milliseconds",
		Help:      "End-to-end registration latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.lockWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "key_lock_wait_milliseconds",
		Help:      "Time spent waiting for the per-key registration lock",
		Buckets:   m.histogramBuckets,
	})

	m.holidayLookupErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "holiday_lookup_errors_total",
		Help:      "Holiday lookups that failed and were treated as working days",
	})

	m.verifications = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "verifications_total",
			Help:      "Biometric verification calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	m.verificationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "verification_latency_milliseconds",
			Help:      "Biometric verification latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"provider"},
	)

	m.reportSessions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "report_sessions_total",
			Help:      "Reconciled sessions by state (valid, open, invalid, missing_entry)",
		},
		[]string{"state"},
	)

	m.reportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_latency_milliseconds",
		Help:      "Hours report computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.openSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_sessions",
		Help:      "Sessions without an exit found by the last sweep",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRegistration counts one registration attempt.
func RecordRegistration(direction, method, outcome string) {
	globalManager.registrations.WithLabelValues(direction, method, outcome).Inc()
}

// RecordRegistrationLatency records registration latency in milliseconds.
func RecordRegistrationLatency(latencyMs float64) {
	globalManager.registrationLatency.Observe(latencyMs)
}

// RecordLockWait records how long a registration waited for its key lock.
func RecordLockWait(latencyMs float64) {
	globalManager.lockWait.Observe(latencyMs)
}

// RecordHolidayLookupError increments the holiday lookup failure counter.
func RecordHolidayLookupError() {
	globalManager.holidayLookupErrors.Inc()
}

// RecordVerification counts a verification call and records its latency.
func RecordVerification(provider, result string, latencyMs float64) {
	globalManager.verifications.WithLabelValues(provider, result).Inc()
	globalManager.verificationLatency.WithLabelValues(provider).Observe(latencyMs)
}

// RecordReportSession counts one reconciled session by state.
func RecordReportSession(state string) {
	globalManager.reportSessions.WithLabelValues(state).Inc()
}

// RecordReportLatency records hours report latency in milliseconds.
func RecordReportLatency(latencyMs float64) {
	globalManager.reportLatency.Observe(latencyMs)
}

// UpdateOpenSessions sets the open session count from the last sweep.
func UpdateOpenSessions(count int) {
	globalManager.openSessions.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler exposes the custom registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
