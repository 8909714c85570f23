package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all simulator metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Temporal metrics
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Simulation metrics
	EventsProcessed     *prometheus.CounterVec
	OrdersReceived      *prometheus.CounterVec
	PickRequestsCreated *prometheus.CounterVec
	Scans               *prometheus.CounterVec
	Discards            *prometheus.CounterVec
	TrucksLoaded        *prometheus.CounterVec
	LowStockAlerts      *prometheus.CounterVec
	Replenishments      *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
	ActiveSessions      prometheus.Gauge

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	Subsystem   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
		Subsystem:   "simulation",
	}
}

// New creates a new Metrics instance on its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      name,
			Help:      help,
		}, append([]string{"service"}, labels...))
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		}, append([]string{"service"}, labels...))
	}

	// HTTP metrics
	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status")
	m.HTTPRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds",
		prometheus.DefBuckets, "method", "path")
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	// Kafka metrics
	m.KafkaEventsPublished = counter("kafka_events_published_total", "Total number of Kafka events published",
		"topic", "event_type", "status")
	m.KafkaPublishDuration = histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds",
		[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}, "topic")

	// MongoDB metrics
	m.MongoDBOperations = counter("mongodb_operations_total", "Total number of MongoDB operations",
		"collection", "operation", "status")
	m.MongoDBOperationDuration = histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds",
		[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}, "collection", "operation")

	// Temporal metrics
	m.ActivitiesCompleted = counter("temporal_activities_completed_total", "Total number of Temporal activities completed",
		"activity_type", "status")
	m.ActivityDuration = histogram("temporal_activity_duration_seconds", "Temporal activity duration in seconds",
		prometheus.ExponentialBuckets(0.01, 4, 8), "activity_type")

	// Simulation metrics
	m.EventsProcessed = counter("events_processed_total", "Script events applied to a warehouse", "kind", "outcome")
	m.OrdersReceived = counter("orders_received_total", "Orders placed with the order handler", "outcome")
	m.PickRequestsCreated = counter("pick_requests_created_total", "Pick requests formed from full order batches")
	m.Scans = counter("scans_total", "SKU scans by station and result", "station", "result")
	m.Discards = counter("pick_request_discards_total", "Pick requests discarded and sent back for re-picking", "station")
	m.TrucksLoaded = counter("trucks_loaded_total", "Pick requests loaded onto trucks")
	m.LowStockAlerts = counter("low_stock_alerts_total", "Shelves that reached the replenish threshold")
	m.Replenishments = counter("replenishments_total", "Shelves restocked by replenishers")
	m.RunDuration = histogram("run_duration_seconds", "Wall time of one warehouse simulation run",
		prometheus.ExponentialBuckets(0.001, 4, 10), "outcome")
	m.ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "active_sessions",
		Help:        "Live warehouse sessions held by the API",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	// Circuit breaker metrics
	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"service", "name"})
	m.CircuitBreakerTrips = counter("circuit_breaker_trips_total", "Total number of circuit breaker trips", "name")

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.ActivitiesCompleted,
		m.ActivityDuration,
		m.EventsProcessed,
		m.OrdersReceived,
		m.PickRequestsCreated,
		m.Scans,
		m.Discards,
		m.TrucksLoaded,
		m.LowStockAlerts,
		m.Replenishments,
		m.RunDuration,
		m.ActiveSessions,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordActivityCompleted records a completed activity
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, status(success)).Inc()
	m.ActivityDuration.WithLabelValues(m.serviceName, activityType).Observe(duration.Seconds())
}

// RecordEvent records one applied script event. outcome is "applied",
// "refused" or "unavailable".
func (m *Metrics) RecordEvent(kind, outcome string) {
	m.EventsProcessed.WithLabelValues(m.serviceName, kind, outcome).Inc()
}

// RecordOrder records an order being accepted or rejected
func (m *Metrics) RecordOrder(accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.OrdersReceived.WithLabelValues(m.serviceName, outcome).Inc()
}

// RecordPickRequestCreated records a new pick request
func (m *Metrics) RecordPickRequestCreated() {
	m.PickRequestsCreated.WithLabelValues(m.serviceName).Inc()
}

// RecordScan records a scan at a station
func (m *Metrics) RecordScan(station string, ok bool) {
	result := "match"
	if !ok {
		result = "mismatch"
	}
	m.Scans.WithLabelValues(m.serviceName, station, result).Inc()
}

// RecordDiscard records a discarded pick request
func (m *Metrics) RecordDiscard(station string) {
	m.Discards.WithLabelValues(m.serviceName, station).Inc()
}

// RecordTruckLoaded records a pick request loaded onto a truck
func (m *Metrics) RecordTruckLoaded() {
	m.TrucksLoaded.WithLabelValues(m.serviceName).Inc()
}

// RecordLowStockAlert records a low stock alert
func (m *Metrics) RecordLowStockAlert() {
	m.LowStockAlerts.WithLabelValues(m.serviceName).Inc()
}

// RecordReplenishment records a restocked shelf
func (m *Metrics) RecordReplenishment() {
	m.Replenishments.WithLabelValues(m.serviceName).Inc()
}

// RecordRun records the duration of a warehouse run
func (m *Metrics) RecordRun(success bool, duration time.Duration) {
	m.RunDuration.WithLabelValues(m.serviceName, status(success)).Observe(duration.Seconds())
}

// SetActiveSessions sets the live session gauge
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
