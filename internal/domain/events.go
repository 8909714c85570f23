package domain

import (
	"sync"
	"time"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// Event types
const (
	EventTypePickRequestCreated   = "wms.simulation.pick-request-created"
	EventTypePickRequestDiscarded = "wms.simulation.pick-request-discarded"
	EventTypeStationCompleted     = "wms.simulation.station-completed"
	EventTypeLowStock             = "wms.inventory.low-stock-alert"
	EventTypeShelfReplenished     = "wms.inventory.shelf-replenished"
	EventTypeTruckLoaded          = "wms.shipping.truck-loaded"
)

// PickRequestCreatedEvent is recorded when a batch of orders becomes a job
type PickRequestCreatedEvent struct {
	PickRequestID int       `json:"pickRequestId"`
	SKUPackage    []string  `json:"skuPackage"`
	RouteSKUs     []string  `json:"routeSkus"`
	OrderCount    int       `json:"orderCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *PickRequestCreatedEvent) EventType() string     { return EventTypePickRequestCreated }
func (e *PickRequestCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// PickRequestDiscardedEvent is recorded when a station gives up on a job and
// sends it back for re-picking and re-sequencing
type PickRequestDiscardedEvent struct {
	PickRequestID int         `json:"pickRequestId"`
	Station       StationKind `json:"station"`
	Worker        string      `json:"worker"`
	DiscardedAt   time.Time   `json:"discardedAt"`
}

func (e *PickRequestDiscardedEvent) EventType() string     { return EventTypePickRequestDiscarded }
func (e *PickRequestDiscardedEvent) OccurredAt() time.Time { return e.DiscardedAt }

// StationCompletedEvent is recorded when a station finishes a verified job
type StationCompletedEvent struct {
	PickRequestID int         `json:"pickRequestId"`
	Station       StationKind `json:"station"`
	Worker        string      `json:"worker"`
	CompletedAt   time.Time   `json:"completedAt"`
}

func (e *StationCompletedEvent) EventType() string     { return EventTypeStationCompleted }
func (e *StationCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// LowStockEvent is recorded when a pick leaves a sku at the low-stock threshold
type LowStockEvent struct {
	SKU        string    `json:"sku"`
	Location   string    `json:"location"`
	Quantity   int       `json:"quantity"`
	DetectedAt time.Time `json:"detectedAt"`
}

func (e *LowStockEvent) EventType() string     { return EventTypeLowStock }
func (e *LowStockEvent) OccurredAt() time.Time { return e.DetectedAt }

// ShelfReplenishedEvent is recorded for every product restocked at a location
type ShelfReplenishedEvent struct {
	SKU            string    `json:"sku"`
	Location       string    `json:"location"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	Overstocked    bool      `json:"overstocked"`
	ReplenishedAt  time.Time `json:"replenishedAt"`
}

func (e *ShelfReplenishedEvent) EventType() string     { return EventTypeShelfReplenished }
func (e *ShelfReplenishedEvent) OccurredAt() time.Time { return e.ReplenishedAt }

// TruckLoadedEvent is recorded when a loader puts a pallet on a truck
type TruckLoadedEvent struct {
	TruckID       int       `json:"truckId"`
	PickRequestID int       `json:"pickRequestId"`
	Load          int       `json:"load"`
	Capacity      int       `json:"capacity"`
	NewTruck      bool      `json:"newTruck"`
	LoadedAt      time.Time `json:"loadedAt"`
}

func (e *TruckLoadedEvent) EventType() string     { return EventTypeTruckLoaded }
func (e *TruckLoadedEvent) OccurredAt() time.Time { return e.LoadedAt }

// EventLog collects domain events raised by the components of one warehouse.
// A nil *EventLog drops events.
type EventLog struct {
	mu     sync.Mutex
	events []DomainEvent
	clock  func() time.Time
}

// NewEventLog creates an EventLog. A nil clock uses UTC wall time.
func NewEventLog(clock func() time.Time) *EventLog {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &EventLog{clock: clock}
}

func (l *EventLog) now() time.Time {
	if l == nil {
		return time.Now().UTC()
	}
	return l.clock()
}

func (l *EventLog) record(event DomainEvent) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns the recorded events in order
func (l *EventLog) Events() []DomainEvent {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]DomainEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Drain returns the recorded events and clears the log
func (l *EventLog) Drain() []DomainEvent {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}
