package application

import (
	"context"
	"sync"

	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// EventPublisher delivers simulation CloudEvents. Events passed in one call
// keep their order.
type EventPublisher interface {
	Publish(ctx context.Context, events ...*cloudevents.WMSCloudEvent) error
	Close() error
}

// LogPublisher writes every event as a structured log line
type LogPublisher struct {
	logger *logging.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithComponent("event-log")}
}

// Publish logs each event
func (p *LogPublisher) Publish(ctx context.Context, events ...*cloudevents.WMSCloudEvent) error {
	for _, event := range events {
		p.logger.Event(ctx, event.Type, map[string]any{
			"eventId": event.ID,
			"subject": event.Subject,
			"data":    event.Data,
		})
	}
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error {
	return nil
}

// MemoryPublisher keeps published events in memory
type MemoryPublisher struct {
	mu     sync.Mutex
	events []*cloudevents.WMSCloudEvent

	// Err, when set, is returned from Publish and nothing is kept
	Err error
}

// NewMemoryPublisher creates an empty MemoryPublisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish stores the events
func (p *MemoryPublisher) Publish(_ context.Context, events ...*cloudevents.WMSCloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, events...)
	return nil
}

// Events returns the published events in order
func (p *MemoryPublisher) Events() []*cloudevents.WMSCloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*cloudevents.WMSCloudEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the type of every published event in order
func (p *MemoryPublisher) Types() []string {
	events := p.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// OfType returns the published events of one type
func (p *MemoryPublisher) OfType(eventType string) []*cloudevents.WMSCloudEvent {
	var out []*cloudevents.WMSCloudEvent
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets every published event
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// Close is a no-op
func (p *MemoryPublisher) Close() error {
	return nil
}
