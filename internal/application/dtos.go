package application

import (
	"time"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
)

// SessionDTO represents a live warehouse session in responses
type SessionDTO struct {
	ID              string                `json:"id"`
	RunID           string                `json:"runId"`
	Warehouse       int                   `json:"warehouse"`
	CreatedAt       time.Time             `json:"createdAt"`
	Stats           domain.RunStats       `json:"stats"`
	PendingOrders   int                   `json:"pendingOrders"`
	QueuedJobs      []int                 `json:"queuedJobs"`
	SequencingQueue []int                 `json:"sequencingQueue"`
	DropOffs        []int                 `json:"dropOffs"`
	LoaderQueue     []int                 `json:"loaderQueue"`
	Trucks          int                   `json:"trucks"`
	Workers         []domain.WorkerStatus `json:"workers"`
}

// EventResultDTO reports an applied event and the notifications it raised
type EventResultDTO struct {
	Event        string   `json:"event"`
	Outcome      string   `json:"outcome"`
	DomainEvents []string `json:"domainEvents"`
}

// ProductDTO is the stock level of one sku
type ProductDTO struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

// InventoryDTO is a stock room snapshot
type InventoryDTO struct {
	Products []ProductDTO `json:"products"`
	Lines    []string     `json:"lines"`
}

// ManifestEntryDTO is one order on a truck
type ManifestEntryDTO struct {
	Model  string `json:"model"`
	Colour string `json:"colour"`
}

// TruckDTO represents a truck in responses
type TruckDTO struct {
	ID       int                `json:"id"`
	Load     int                `json:"load"`
	Capacity int                `json:"capacity"`
	Full     bool               `json:"full"`
	Manifest []ManifestEntryDTO `json:"manifest"`
}

// TrucksDTO is the truck registry of a session
type TrucksDTO struct {
	Trucks   []TruckDTO `json:"trucks"`
	Manifest []string   `json:"manifest"`
}

// RunDTO groups the archived results of one run
type RunDTO struct {
	RunID      string              `json:"runId"`
	Warehouses []*domain.RunResult `json:"warehouses"`
}
