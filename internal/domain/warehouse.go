package domain

import (
	"fmt"
	"time"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// Tables are the lookup tables a warehouse is built from
type Tables struct {
	Translation TranslationTable
	Traversal   []TraversalRow
	Initial     []StockRow
}

type warehouseConfig struct {
	stock          []StockOption
	batchSize      int
	truckCapacity  int
	workerCapacity int
	clock          func() time.Time
}

// WarehouseOption configures a Warehouse
type WarehouseOption func(*warehouseConfig)

// WithStockOptions passes options through to the stock room
func WithStockOptions(opts ...StockOption) WarehouseOption {
	return func(c *warehouseConfig) { c.stock = append(c.stock, opts...) }
}

// WithOrderBatchSize sets the number of orders per pick request. Workers are
// sized to match.
func WithOrderBatchSize(n int) WarehouseOption {
	return func(c *warehouseConfig) {
		c.batchSize = n
		c.workerCapacity = 2 * n
	}
}

// WithTruckSize sets the load units of each truck
func WithTruckSize(n int) WarehouseOption {
	return func(c *warehouseConfig) { c.truckCapacity = n }
}

// WithClock sets the clock used to timestamp domain events
func WithClock(clock func() time.Time) WarehouseOption {
	return func(c *warehouseConfig) { c.clock = clock }
}

// WorkerStatus is a read-only view of one registered worker
type WorkerStatus struct {
	Name       string      `json:"name"`
	Station    StationKind `json:"station"`
	State      WorkerState `json:"state"`
	JobID      int         `json:"jobId,omitempty"`
	Position   int         `json:"position"`
	Expected   []string    `json:"expected,omitempty"`
	Misscanned bool        `json:"misscanned"`
}

// Warehouse is the aggregate root of one simulation run. It owns the stock
// room, order handler, marshalling area and worker registry, and dispatches
// script events to them. Events must be applied one at a time.
type Warehouse struct {
	number      int
	events      *EventLog
	stock       *StockRoom
	orders      *OrderHandler
	marshalling *Marshalling
	facilities  *Facilities

	workers     map[string]Station
	workerOrder []string
	nextTruckID int
}

// NewWarehouse builds warehouse number from its tables
func NewWarehouse(number int, tables Tables, opts ...WarehouseOption) (*Warehouse, error) {
	cfg := warehouseConfig{
		batchSize:      DefaultBatchSize,
		truckCapacity:  DefaultTruckCapacity,
		workerCapacity: DefaultWorkerCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Warehouse{
		number:  number,
		events:  NewEventLog(cfg.clock),
		workers: make(map[string]Station),
	}

	stock, err := NewStockRoom(tables.Traversal, tables.Initial, append(cfg.stock, WithStockEvents(w.events))...)
	if err != nil {
		return nil, fmt.Errorf("warehouse %d: %w", number, err)
	}
	w.stock = stock
	w.marshalling = NewMarshalling(WithTruckCapacity(cfg.truckCapacity), WithTruckIDs(w.truckID))
	w.orders = NewOrderHandler(tables.Translation, stock, w.marshalling,
		WithBatchSize(cfg.batchSize), WithOrderEvents(w.events))
	w.facilities = &Facilities{
		Stock:       w.stock,
		Orders:      w.orders,
		Marshalling: w.marshalling,
		Events:      w.events,
		Capacity:    cfg.workerCapacity,
	}
	return w, nil
}

func (w *Warehouse) truckID() int {
	id := w.nextTruckID
	w.nextTruckID++
	return id
}

func (w *Warehouse) Number() int                 { return w.number }
func (w *Warehouse) StockRoom() *StockRoom       { return w.stock }
func (w *Warehouse) OrderHandler() *OrderHandler { return w.orders }
func (w *Warehouse) Marshalling() *Marshalling   { return w.marshalling }

// PlaceOrder creates an order and hands it to the order handler
func (w *Warehouse) PlaceOrder(model, colour string) error {
	order, err := NewOrder(model, colour)
	if err != nil {
		return err
	}
	return w.orders.AddOrder(order)
}

// lookup returns the worker registered as name, checking its station
func (w *Warehouse) lookup(kind StationKind, name string) (Station, error) {
	st, ok := w.workers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownWorker, kind, name)
	}
	if st.Kind() != kind {
		return nil, fmt.Errorf("%w: %w: %s is a %s, not a %s", ErrUnknownWorker, ErrStationMismatch, name, st.Kind(), kind)
	}
	return st, nil
}

// enroll returns the worker registered as name, creating it on first use
func (w *Warehouse) enroll(kind StationKind, name string) (Station, error) {
	if _, ok := w.workers[name]; ok {
		return w.lookup(kind, name)
	}
	st, err := NewStation(kind, name, w.facilities)
	if err != nil {
		return nil, err
	}
	w.workers[name] = st
	w.workerOrder = append(w.workerOrder, name)
	return st, nil
}

func (w *Warehouse) scanner(kind StationKind, name string) (Scanner, error) {
	st, err := w.lookup(kind, name)
	if err != nil {
		return nil, err
	}
	return asScanner(st)
}

// Ready registers the worker on its first ready and asks it to claim work
func (w *Warehouse) Ready(kind StationKind, name string) error {
	st, err := w.enroll(kind, name)
	if err != nil {
		return err
	}
	return st.Ready()
}

// Scan passes one scanned sku to a worker
func (w *Warehouse) Scan(kind StationKind, name, sku string) error {
	sc, err := w.scanner(kind, name)
	if err != nil {
		return err
	}
	return sc.ScanSKU(sku)
}

// Rescan clears a worker's misscan and rewinds its verification
func (w *Warehouse) Rescan(kind StationKind, name string) error {
	sc, err := w.scanner(kind, name)
	if err != nil {
		return err
	}
	sc.ResetScan()
	return nil
}

// Complete finishes a worker's verified job
func (w *Warehouse) Complete(kind StationKind, name string) error {
	sc, err := w.scanner(kind, name)
	if err != nil {
		return err
	}
	return sc.Complete()
}

// Discard abandons a worker's job
func (w *Warehouse) Discard(kind StationKind, name string) error {
	sc, err := w.scanner(kind, name)
	if err != nil {
		return err
	}
	return sc.Discard()
}

// Replenish restocks the shelf at location. The replenisher is registered on
// its first event.
func (w *Warehouse) Replenish(name string, location shared.Location) error {
	st, err := w.enroll(StationReplenisher, name)
	if err != nil {
		return err
	}
	return st.(*Replenisher).Replenish(location)
}

// Apply dispatches one parsed script event
func (w *Warehouse) Apply(ev Event) error {
	switch ev.Kind {
	case EventOrder:
		return w.PlaceOrder(ev.Model, ev.Colour)
	case EventReady:
		return w.Ready(ev.Station, ev.Worker)
	case EventScan:
		return w.Scan(ev.Station, ev.Worker, ev.SKU)
	case EventRescan:
		return w.Rescan(ev.Station, ev.Worker)
	case EventComplete:
		return w.Complete(ev.Station, ev.Worker)
	case EventDiscard:
		return w.Discard(ev.Station, ev.Worker)
	case EventReplenish:
		return w.Replenish(ev.Worker, ev.Location)
	}
	return fmt.Errorf("%w: unknown event kind %q", ErrMalformedEvent, ev.Kind)
}

// Worker returns the worker registered as name
func (w *Warehouse) Worker(name string) (Station, bool) {
	st, ok := w.workers[name]
	return st, ok
}

// Workers returns the status of every worker in registration order
func (w *Warehouse) Workers() []WorkerStatus {
	out := make([]WorkerStatus, 0, len(w.workerOrder))
	for _, name := range w.workerOrder {
		st := w.workers[name]
		status := WorkerStatus{Name: name, Station: st.Kind(), State: WorkerIdle}
		if sc, ok := st.(Scanner); ok {
			status.State = sc.State()
			status.JobID = sc.CurrentJobID()
			status.Position = sc.Position()
			status.Expected = sc.Expected()
			status.Misscanned = sc.Misscanned()
		}
		out = append(out, status)
	}
	return out
}

// FinalInventory returns the sorted inventory export rows
func (w *Warehouse) FinalInventory() []string {
	return w.stock.ExportLines()
}

// OrderManifest returns every truck's manifest, in truck registration order
func (w *Warehouse) OrderManifest() []string {
	var lines []string
	for _, truck := range w.marshalling.Trucks() {
		lines = append(lines, truck.ManifestLines()...)
	}
	return lines
}

// DomainEvents returns the events recorded since the last clear
func (w *Warehouse) DomainEvents() []DomainEvent {
	return w.events.Events()
}

// ClearDomainEvents clears the recorded events
func (w *Warehouse) ClearDomainEvents() {
	w.events.Drain()
}

// PullDomainEvents returns the recorded events and clears them
func (w *Warehouse) PullDomainEvents() []DomainEvent {
	return w.events.Drain()
}
