package application

import (
	"context"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
)

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ToCloudEvent converts a domain event into its published CloudEvent. The
// second result is false for events that are not published.
func ToCloudEvent(ctx context.Context, factory *cloudevents.EventFactory, event domain.DomainEvent) (*cloudevents.WMSCloudEvent, bool) {
	switch e := event.(type) {
	case *domain.PickRequestCreatedEvent:
		return factory.CreatePickRequestCreatedEvent(ctx, cloudevents.PickRequestCreatedData{
			PickRequestID: e.PickRequestID,
			SKUPackage:    nonNil(e.SKUPackage),
			RouteSKUs:     nonNil(e.RouteSKUs),
			OrderCount:    e.OrderCount,
		}, e.CreatedAt), true
	case *domain.StationCompletedEvent:
		return factory.CreateStationCompletedEvent(ctx, cloudevents.StationActivityData{
			PickRequestID: e.PickRequestID,
			Station:       string(e.Station),
			Worker:        e.Worker,
		}, e.CompletedAt), true
	case *domain.PickRequestDiscardedEvent:
		return factory.CreatePickRequestDiscardedEvent(ctx, cloudevents.StationActivityData{
			PickRequestID: e.PickRequestID,
			Station:       string(e.Station),
			Worker:        e.Worker,
		}, e.DiscardedAt), true
	case *domain.LowStockEvent:
		return factory.CreateLowStockAlertEvent(ctx, cloudevents.LowStockAlertData{
			SKU:        e.SKU,
			LocationID: e.Location,
			Quantity:   e.Quantity,
		}, e.DetectedAt), true
	case *domain.ShelfReplenishedEvent:
		return factory.CreateShelfReplenishedEvent(ctx, cloudevents.ShelfReplenishedData{
			SKU:              e.SKU,
			LocationID:       e.Location,
			PreviousQuantity: e.QuantityBefore,
			NewQuantity:      e.QuantityAfter,
			Overstocked:      e.Overstocked,
		}, e.ReplenishedAt), true
	case *domain.TruckLoadedEvent:
		return factory.CreateTruckLoadedEvent(ctx, cloudevents.TruckLoadedData{
			TruckID:       e.TruckID,
			PickRequestID: e.PickRequestID,
			Load:          e.Load,
			Capacity:      e.Capacity,
			NewTruck:      e.NewTruck,
		}, e.LoadedAt), true
	}
	return nil, false
}

// ToSessionDTO snapshots the pipeline state of a warehouse
func ToSessionDTO(id string, run *Run) *SessionDTO {
	w := run.Warehouse
	return &SessionDTO{
		ID:              id,
		RunID:           run.ID,
		Warehouse:       w.Number(),
		CreatedAt:       run.StartedAt,
		Stats:           run.Stats,
		PendingOrders:   w.OrderHandler().PendingOrders(),
		QueuedJobs:      nonNil(w.OrderHandler().QueuedJobs()),
		SequencingQueue: nonNil(w.Marshalling().SequencingQueue()),
		DropOffs:        nonNil(w.Marshalling().DropOffs()),
		LoaderQueue:     nonNil(w.Marshalling().LoaderQueue()),
		Trucks:          len(w.Marshalling().Trucks()),
		Workers:         nonNil(w.Workers()),
	}
}

// ToInventoryDTO snapshots the stock room
func ToInventoryDTO(w *domain.Warehouse) *InventoryDTO {
	products := w.StockRoom().Snapshot()
	dto := &InventoryDTO{
		Products: make([]ProductDTO, 0, len(products)),
		Lines:    nonNil(w.FinalInventory()),
	}
	for _, p := range products {
		dto.Products = append(dto.Products, ProductDTO{
			SKU:      p.SKU,
			Quantity: p.Quantity,
			Location: p.Location.Key(),
		})
	}
	return dto
}

// ToTrucksDTO lists the trucks in registration order
func ToTrucksDTO(w *domain.Warehouse) *TrucksDTO {
	trucks := w.Marshalling().Trucks()
	dto := &TrucksDTO{
		Trucks:   make([]TruckDTO, 0, len(trucks)),
		Manifest: nonNil(w.OrderManifest()),
	}
	for _, t := range trucks {
		manifest := t.Manifest()
		entries := make([]ManifestEntryDTO, 0, len(manifest))
		for _, o := range manifest {
			entries = append(entries, ManifestEntryDTO{Model: o.Model, Colour: o.Colour})
		}
		dto.Trucks = append(dto.Trucks, TruckDTO{
			ID:       t.ID(),
			Load:     t.Load(),
			Capacity: t.Capacity(),
			Full:     t.IsFull(),
			Manifest: entries,
		})
	}
	return dto
}
