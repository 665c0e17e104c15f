package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics
	AuthFailuresTotal *prometheus.CounterVec

	// Record metrics
	RecordsCreatedTotal prometheus.Counter
	StoreRecords        prometheus.Gauge

	// Client metrics
	ClientRequestsTotal *prometheus.CounterVec
	ClientErrorsTotal   *prometheus.CounterVec
	ClientDuration      *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// sizeBuckets are histogram buckets for response sizes (in bytes)
var sizeBuckets = prometheus.ExponentialBuckets(64, 4, 8)

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "records_api",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "records_api",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   sizeBuckets,
			},
			[]string{"method", "path"},
		),

		AuthFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "auth",
				Name:      "failures_total",
				Help:      "Total number of rejected credentials by reason",
			},
			[]string{"reason"},
		),

		RecordsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "records",
				Name:      "created_total",
				Help:      "Total number of records created",
			},
		),
		StoreRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "records_api",
				Subsystem: "store",
				Name:      "records",
				Help:      "Number of records currently held in the store",
			},
		),

		ClientRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of requests issued by the API client",
			},
			[]string{"operation"},
		),
		ClientErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "client",
				Name:      "errors_total",
				Help:      "Total number of API client errors",
			},
			[]string{"operation", "error_type"},
		),
		ClientDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "records_api",
				Subsystem: "client",
				Name:      "duration_seconds",
				Help:      "Duration of API client calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "records_api",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "records_api",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// SetMetrics replaces the global metrics instance
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordAuthFailure records a rejected credential
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordCreated records a record creation and the resulting store size
func (m *Metrics) RecordCreated(storeSize int) {
	m.RecordsCreatedTotal.Inc()
	m.StoreRecords.Set(float64(storeSize))
}

// SetStoreSize sets the store size gauge
func (m *Metrics) SetStoreSize(size int) {
	m.StoreRecords.Set(float64(size))
}

// RecordClientRequest records an API client call
func (m *Metrics) RecordClientRequest(operation string, duration time.Duration) {
	m.ClientRequestsTotal.WithLabelValues(operation).Inc()
	m.ClientDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordClientError records an API client error
func (m *Metrics) RecordClientError(operation, errorType string) {
	m.ClientErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveClient records the client call duration
func (t *Timer) ObserveClient(operation string) {
	t.metrics.RecordClientRequest(operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
