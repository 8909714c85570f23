package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/tracing"
)

// addSimulationAttributes adds the event's extension attributes to a span
func addSimulationAttributes(span trace.Span, event *cloudevents.WMSCloudEvent) {
	if event.CorrelationID != "" {
		span.SetAttributes(attribute.String("wms.correlation_id", event.CorrelationID))
	}
	if event.WorkflowID != "" {
		span.SetAttributes(attribute.String("wms.workflow_id", event.WorkflowID))
	}
	if event.HasRunContext() {
		span.SetAttributes(tracing.SimulationSpanAttributes(event.RunID, *event.Warehouse)...)
	}
}

// stampTraceContext copies the active span context onto the event
func stampTraceContext(ctx context.Context, event *cloudevents.WMSCloudEvent) {
	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	if tp := carrier.Get("traceparent"); tp != "" {
		event.TraceParent = tp
		event.TraceState = carrier.Get("tracestate")
	}
}

// InstrumentedProducer wraps a Publisher with metrics and tracing
type InstrumentedProducer struct {
	producer Publisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer. m and logger may be nil.
func NewInstrumentedProducer(producer Publisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent with metrics and tracing
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()

	addSimulationAttributes(span, event)
	stampTraceContext(ctx, event)

	err := p.producer.PublishEvent(ctx, topic, event)
	p.record(ctx, topic, event.Type, err, time.Since(start))
	tracing.RecordResult(span, err)

	return err
}

// PublishBatch publishes multiple events with metrics and tracing
func (p *InstrumentedProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.WMSCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish_batch",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(events))),
	)
	defer span.End()

	for _, event := range events {
		stampTraceContext(ctx, event)
	}

	err := p.producer.PublishBatch(ctx, topic, events)
	duration := time.Since(start)
	for _, event := range events {
		p.record(ctx, topic, event.Type, err, duration)
	}
	tracing.RecordResult(span, err)

	return err
}

func (p *InstrumentedProducer) record(ctx context.Context, topic, eventType string, err error, duration time.Duration) {
	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, eventType, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, eventType, success, duration)
	}
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}
