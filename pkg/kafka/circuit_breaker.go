package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/resilience"
)

// ProducerBreakerConfig is the breaker configuration used for publishing. A
// dead broker is given less time to recover than the archive: events are
// best effort and the simulation never waits on them.
func ProducerBreakerConfig() *resilience.CircuitBreakerConfig {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.Timeout = 15 * time.Second
	return config
}

// CircuitBreakerProducer wraps a Publisher with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       Publisher
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer Publisher, config *resilience.CircuitBreakerConfig, logger *logging.Logger) *CircuitBreakerProducer {
	if config == nil {
		config = ProducerBreakerConfig()
	}
	var slogger *slog.Logger
	if logger != nil {
		slogger = logger.Logger
	}
	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogger),
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	return p.circuitBreaker.Run(ctx, func() error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
}

// PublishBatch publishes multiple events with circuit breaker protection
func (p *CircuitBreakerProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.WMSCloudEvent) error {
	return p.circuitBreaker.Run(ctx, func() error {
		return p.producer.PublishBatch(ctx, topic, events)
	})
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// CircuitBreaker exposes the breaker for health reporting
func (p *CircuitBreakerProducer) CircuitBreaker() *resilience.CircuitBreaker {
	return p.circuitBreaker
}

// NewProductionProducer stacks the breaker on an instrumented producer and
// reports breaker transitions to m
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	instrumented := NewInstrumentedProducer(NewProducer(config), m, logger)
	breaker := ProducerBreakerConfig()
	if m != nil {
		breaker.OnStateChange = resilience.RecordTransitions(m)
	}
	return NewCircuitBreakerProducer(instrumented, breaker, logger)
}
