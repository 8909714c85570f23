package cloudevents

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

// EventFactory creates CloudEvents for simulation events
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Source returns the source attribute stamped on created events
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent with the given parameters. A
// correlation id on ctx is copied onto the event.
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
	}

	return event
}

// CreateEventAt creates an event stamped with the time the underlying domain
// event occurred rather than the time it was published
func (f *EventFactory) CreateEventAt(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	occurredAt time.Time,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	if !occurredAt.IsZero() {
		event.Time = occurredAt.UTC()
	}
	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
	workflowID string,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	event.WorkflowID = workflowID
	return event
}

// PickRequestSubject is the subject of events about one pick request
func PickRequestSubject(id int) string {
	return "pick-request/" + strconv.Itoa(id)
}

// CreatePickRequestCreatedEvent creates a PickRequestCreated event
func (f *EventFactory) CreatePickRequestCreatedEvent(
	ctx context.Context,
	data PickRequestCreatedData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, PickRequestCreated, PickRequestSubject(data.PickRequestID), data, occurredAt)
}

// CreateStationCompletedEvent creates a StationCompleted event
func (f *EventFactory) CreateStationCompletedEvent(
	ctx context.Context,
	data StationActivityData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, StationCompleted, PickRequestSubject(data.PickRequestID), data, occurredAt)
}

// CreatePickRequestDiscardedEvent creates a PickRequestDiscarded event
func (f *EventFactory) CreatePickRequestDiscardedEvent(
	ctx context.Context,
	data StationActivityData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, PickRequestDiscarded, PickRequestSubject(data.PickRequestID), data, occurredAt)
}

// CreateLowStockAlertEvent creates a LowStockAlert event
func (f *EventFactory) CreateLowStockAlertEvent(
	ctx context.Context,
	data LowStockAlertData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, LowStockAlert, "inventory/"+data.SKU, data, occurredAt)
}

// CreateShelfReplenishedEvent creates a ShelfReplenished event
func (f *EventFactory) CreateShelfReplenishedEvent(
	ctx context.Context,
	data ShelfReplenishedData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, ShelfReplenished, "inventory/"+data.SKU, data, occurredAt)
}

// CreateTruckLoadedEvent creates a TruckLoaded event
func (f *EventFactory) CreateTruckLoadedEvent(
	ctx context.Context,
	data TruckLoadedData,
	occurredAt time.Time,
) *WMSCloudEvent {
	return f.CreateEventAt(ctx, TruckLoaded, "truck/"+strconv.Itoa(data.TruckID), data, occurredAt)
}

// CreateRunEvent creates a RunStarted or RunCompleted event
func (f *EventFactory) CreateRunEvent(
	ctx context.Context,
	eventType string,
	data RunSummaryData,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, "run/"+data.RunID, data)
	return event.WithRun(data.RunID, data.Warehouse)
}
