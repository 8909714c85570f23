package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/contracts/asyncapi"
	"github.com/wms-platform/fulfillment-simulator/pkg/kafka"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// ErrInvalidEvent is returned when an event does not match its published
// contract. Invalid events are dropped; the rest of the batch is published.
var ErrInvalidEvent = errors.New("event does not match its contract")

// KafkaPublisher routes simulation CloudEvents to their Kafka topics
type KafkaPublisher struct {
	producer  kafka.Publisher
	validator *asyncapi.EventValidator
	logger    *logging.Logger
}

// PublisherOption configures a KafkaPublisher
type PublisherOption func(*KafkaPublisher)

// WithContractValidation checks every event against its AsyncAPI payload
// schema before it is published
func WithContractValidation(v *asyncapi.EventValidator) PublisherOption {
	return func(p *KafkaPublisher) { p.validator = v }
}

// NewKafkaPublisher creates a KafkaPublisher on top of producer
func NewKafkaPublisher(producer kafka.Publisher, logger *logging.Logger, opts ...PublisherOption) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		logger:   logger.WithComponent("kafka-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends the events in order. Consecutive events bound for the same
// topic go out as one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...*cloudevents.WMSCloudEvent) error {
	var errs []error

	valid := make([]*cloudevents.WMSCloudEvent, 0, len(events))
	for _, event := range events {
		if err := p.validate(event); err != nil {
			p.logger.WithError(err).Error("Dropping invalid event", "eventType", event.Type, "eventId", event.ID)
			errs = append(errs, err)
			continue
		}
		valid = append(valid, event)
	}

	for start := 0; start < len(valid); {
		topic := kafka.TopicFor(valid[start].Type)
		end := start + 1
		for end < len(valid) && kafka.TopicFor(valid[end].Type) == topic {
			end++
		}
		if err := p.producer.PublishBatch(ctx, topic, valid[start:end]); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish %d events to %s: %w", end-start, topic, err))
		}
		start = end
	}

	return errors.Join(errs...)
}

func (p *KafkaPublisher) validate(event *cloudevents.WMSCloudEvent) error {
	if p.validator == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := p.validator.ValidateEventJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return nil
}

// Close closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
