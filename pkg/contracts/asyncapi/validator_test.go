package asyncapi

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-simulator/api"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
)

func newTestValidator(t *testing.T) *EventValidator {
	t.Helper()
	v, err := NewEventValidatorFromBytes(api.AsyncAPI)
	require.NoError(t, err)
	return v
}

func TestEventValidator_SupportedEventTypes(t *testing.T) {
	v := newTestValidator(t)

	assert.Equal(t, []string{
		cloudevents.LowStockAlert,
		cloudevents.ShelfReplenished,
		cloudevents.TruckLoaded,
		cloudevents.PickRequestCreated,
		cloudevents.PickRequestDiscarded,
		cloudevents.RunCompleted,
		cloudevents.RunStarted,
		cloudevents.StationCompleted,
	}, v.SupportedEventTypes())
	assert.True(t, v.HasSchema(cloudevents.TruckLoaded))
	assert.False(t, v.HasSchema("wms.simulation.unknown"))
}

// Every event the factory can build must satisfy the published contract.
func TestEventValidator_FactoryEvents(t *testing.T) {
	v := newTestValidator(t)
	f := cloudevents.NewEventFactory(cloudevents.SourceSimulator)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []*cloudevents.WMSCloudEvent{
		f.CreatePickRequestCreatedEvent(ctx, cloudevents.PickRequestCreatedData{
			PickRequestID: 1,
			SKUPackage:    []string{"7", "5", "3", "1", "8", "6", "4", "2"},
			RouteSKUs:     []string{"1", "2", "3", "4", "5", "6", "7", "8"},
			OrderCount:    4,
		}, at),
		f.CreateStationCompletedEvent(ctx, cloudevents.StationActivityData{PickRequestID: 1, Station: "Picker", Worker: "Alice"}, at),
		f.CreatePickRequestDiscardedEvent(ctx, cloudevents.StationActivityData{PickRequestID: 1, Station: "Loader", Worker: "Bob"}, at),
		f.CreateLowStockAlertEvent(ctx, cloudevents.LowStockAlertData{SKU: "1", LocationID: "A,0,0,0", Quantity: 5}, at),
		f.CreateShelfReplenishedEvent(ctx, cloudevents.ShelfReplenishedData{
			SKU: "1", LocationID: "A,0,0,0", PreviousQuantity: 5, NewQuantity: 30,
		}, at),
		f.CreateTruckLoadedEvent(ctx, cloudevents.TruckLoadedData{TruckID: 0, PickRequestID: 1, Load: 1, Capacity: 20, NewTruck: true}, at),
		f.CreateRunEvent(ctx, cloudevents.RunStarted, cloudevents.RunSummaryData{RunID: "run-1", Warehouse: 0}),
		f.CreateRunEvent(ctx, cloudevents.RunCompleted, cloudevents.RunSummaryData{
			RunID: "run-1", Warehouse: 0, EventsApplied: 40, TrucksLoaded: 1, OrdersShipped: 4, InventoryLines: 48,
		}),
	}

	for _, event := range events {
		t.Run(event.Type, func(t *testing.T) {
			raw, err := json.Marshal(event)
			require.NoError(t, err)
			assert.NoError(t, v.ValidateEventJSON(raw))
		})
	}
}

func TestEventValidator_Rejects(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name  string
		event CloudEvent
	}{
		{
			name: "wrong specversion",
			event: CloudEvent{SpecVersion: "0.3", Type: cloudevents.TruckLoaded, Source: "/x", ID: "1",
				Data: map[string]interface{}{}},
		},
		{
			name:  "missing id",
			event: CloudEvent{SpecVersion: "1.0", Type: cloudevents.TruckLoaded, Source: "/x"},
		},
		{
			name:  "unknown type",
			event: CloudEvent{SpecVersion: "1.0", Type: "wms.simulation.unknown", Source: "/x", ID: "1", Data: map[string]interface{}{}},
		},
		{
			name:  "missing data",
			event: CloudEvent{SpecVersion: "1.0", Type: cloudevents.TruckLoaded, Source: "/x", ID: "1"},
		},
		{
			name: "payload missing required field",
			event: CloudEvent{SpecVersion: "1.0", Type: cloudevents.LowStockAlert, Source: "/x", ID: "1",
				Data: map[string]interface{}{"sku": "1", "quantity": 5}},
		},
		{
			name: "payload with wrong station",
			event: CloudEvent{SpecVersion: "1.0", Type: cloudevents.StationCompleted, Source: "/x", ID: "1",
				Data: map[string]interface{}{"pickRequestId": 1, "station": "Replenisher", "worker": "Ann"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.ValidateEvent(tt.event))
		})
	}
}

func TestEventValidator_UnknownTypeIsErrNoSchema(t *testing.T) {
	v := newTestValidator(t)
	err := v.ValidateEvent(CloudEvent{SpecVersion: "1.0", Type: "wms.x", Source: "/x", ID: "1", Data: 1})
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestNewEventValidatorFromBytes_RequiresPayloadRef(t *testing.T) {
	doc := []byte(`
asyncapi: 2.6.0
info: {title: t, version: "1"}
components:
  messages:
    Broken:
      name: wms.broken
      payload:
        type: object
`)
	_, err := NewEventValidatorFromBytes(doc)
	assert.Error(t, err)
}
