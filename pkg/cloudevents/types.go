package cloudevents

import (
	"time"
)

// EventType constants for simulation events
const (
	// Pipeline events
	PickRequestCreated   = "wms.simulation.pick-request-created"
	PickRequestDiscarded = "wms.simulation.pick-request-discarded"
	StationCompleted     = "wms.simulation.station-completed"

	// Inventory events
	LowStockAlert    = "wms.inventory.low-stock-alert"
	ShelfReplenished = "wms.inventory.shelf-replenished"

	// Shipping events
	TruckLoaded = "wms.shipping.truck-loaded"

	// Run lifecycle events
	RunStarted   = "wms.simulation.run-started"
	RunCompleted = "wms.simulation.run-completed"
)

// Source constants for event sources
const (
	SourceSimulator = "/wms/fulfillment-simulator"
	SourceAPI       = "/wms/fulfillment-simulator-api"
	SourceWorker    = "/wms/fulfillment-simulator-worker"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	RunID         string `json:"wmsrunid,omitempty"`
	Warehouse     *int   `json:"wmswarehouse,omitempty"`

	// W3C Trace Context extension
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// PickRequestCreatedData is the payload of PickRequestCreated
type PickRequestCreatedData struct {
	PickRequestID int      `json:"pickRequestId"`
	SKUPackage    []string `json:"skuPackage"`
	RouteSKUs     []string `json:"routeSkus"`
	OrderCount    int      `json:"orderCount"`
}

// StationActivityData is the payload of StationCompleted and PickRequestDiscarded
type StationActivityData struct {
	PickRequestID int    `json:"pickRequestId"`
	Station       string `json:"station"`
	Worker        string `json:"worker"`
}

// LowStockAlertData is the payload of LowStockAlert
type LowStockAlertData struct {
	SKU        string `json:"sku"`
	LocationID string `json:"locationId"`
	Quantity   int    `json:"quantity"`
}

// ShelfReplenishedData is the payload of ShelfReplenished
type ShelfReplenishedData struct {
	SKU              string `json:"sku"`
	LocationID       string `json:"locationId"`
	PreviousQuantity int    `json:"previousQuantity"`
	NewQuantity      int    `json:"newQuantity"`
	Overstocked      bool   `json:"overstocked"`
}

// TruckLoadedData is the payload of TruckLoaded
type TruckLoadedData struct {
	TruckID       int  `json:"truckId"`
	PickRequestID int  `json:"pickRequestId"`
	Load          int  `json:"load"`
	Capacity      int  `json:"capacity"`
	NewTruck      bool `json:"newTruck"`
}

// RunSummaryData is the payload of RunStarted and RunCompleted
type RunSummaryData struct {
	RunID          string `json:"runId"`
	Warehouse      int    `json:"warehouse"`
	EventsApplied  int    `json:"eventsApplied"`
	EventsRefused  int    `json:"eventsRefused"`
	TrucksLoaded   int    `json:"trucksLoaded"`
	OrdersShipped  int    `json:"ordersShipped"`
	InventoryLines int    `json:"inventoryLines"`
}
