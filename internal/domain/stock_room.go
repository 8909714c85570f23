package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// Stock room defaults
const (
	DefaultStockLevel        = 30
	DefaultLowStockThreshold = 5
	DefaultRestockAmount     = 25
	DefaultOverstockCeiling  = 25
)

// TraversalRow places a sku on a shelf
type TraversalRow struct {
	Location shared.Location
	SKU      string
}

// StockRow sets the starting quantity of whatever is stocked at a shelf
type StockRow struct {
	Location shared.Location
	Quantity int
}

// Product is a read-only view of one directory entry
type Product struct {
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	Location shared.Location `json:"location"`
}

// Line renders the product as an inventory export row: zone,aisle,rack,level,qty
func (p Product) Line() string {
	return p.Location.Key() + "," + strconv.Itoa(p.Quantity)
}

type product struct {
	sku      string
	quantity int
	location shared.Location
}

type stockConfig struct {
	defaultLevel int
	lowStock     int
	restock      int
	overstock    int
	events       *EventLog
}

// StockOption configures a StockRoom
type StockOption func(*stockConfig)

// WithDefaultStockLevel sets the quantity of shelves with no initial row
func WithDefaultStockLevel(n int) StockOption {
	return func(c *stockConfig) { c.defaultLevel = n }
}

// WithLowStockThreshold sets the quantity that raises a low-stock alert
func WithLowStockThreshold(n int) StockOption {
	return func(c *stockConfig) { c.lowStock = n }
}

// WithRestockAmount sets how much a replenish adds
func WithRestockAmount(n int) StockOption {
	return func(c *stockConfig) { c.restock = n }
}

// WithStockEvents sets where low-stock and replenish events are recorded
func WithStockEvents(log *EventLog) StockOption {
	return func(c *stockConfig) { c.events = log }
}

// StockRoom owns the sku to shelf to quantity directory. All methods are
// safe for concurrent use; each pick is an atomic read-modify-write.
type StockRoom struct {
	mu       sync.Mutex
	products map[string]*product
	skus     []string
	cfg      stockConfig
}

// NewStockRoom builds the directory from the traversal table, then applies
// the initial quantities. Every initial row sets the quantity of each product
// stocked at exactly that location.
func NewStockRoom(traversal []TraversalRow, initial []StockRow, opts ...StockOption) (*StockRoom, error) {
	cfg := stockConfig{
		defaultLevel: DefaultStockLevel,
		lowStock:     DefaultLowStockThreshold,
		restock:      DefaultRestockAmount,
		overstock:    DefaultOverstockCeiling,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &StockRoom{
		products: make(map[string]*product, len(traversal)),
		cfg:      cfg,
	}

	for i, row := range traversal {
		if row.SKU == "" || row.Location.IsZero() {
			return nil, fmt.Errorf("%w: traversal row %d needs a sku and a location", ErrInvalidStockRow, i)
		}
		if existing, ok := s.products[row.SKU]; ok {
			existing.location = row.Location
			continue
		}
		s.products[row.SKU] = &product{sku: row.SKU, quantity: cfg.defaultLevel, location: row.Location}
		s.skus = append(s.skus, row.SKU)
	}

	for i, row := range initial {
		if row.Quantity < 0 {
			return nil, fmt.Errorf("%w: initial row %d has negative quantity %d", ErrInvalidStockRow, i, row.Quantity)
		}
		for _, sku := range s.skus {
			if p := s.products[sku]; p.location.Equals(row.Location) {
				p.quantity = row.Quantity
			}
		}
	}

	return s, nil
}

// HasSKU reports whether sku is in the directory
func (s *StockRoom) HasSKU(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[sku]
	return ok
}

// TakeProduct removes one unit of sku. It fails with ErrUnknownSKU when the
// sku is not stocked and with ErrOutOfStock when the quantity is already zero;
// neither failure mutates the directory. A low-stock event is recorded when
// the quantity after the pick equals the threshold.
func (s *StockRoom) TakeProduct(sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[sku]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	if p.quantity == 0 {
		return fmt.Errorf("%w: %s", ErrOutOfStock, sku)
	}

	p.quantity--
	if p.quantity == s.cfg.lowStock {
		s.cfg.events.record(&LowStockEvent{
			SKU:        p.sku,
			Location:   p.location.Key(),
			Quantity:   p.quantity,
			DetectedAt: s.cfg.events.now(),
		})
	}
	return nil
}

// Replenish adds the restock amount to every product at location and returns
// how many products were restocked. Products already at or above the
// overstock ceiling are still restocked; the recorded event flags them.
func (s *StockRoom) Replenish(location shared.Location) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restocked := 0
	for _, sku := range s.skus {
		p := s.products[sku]
		if !p.location.Equals(location) {
			continue
		}
		before := p.quantity
		p.quantity += s.cfg.restock
		restocked++

		s.cfg.events.record(&ShelfReplenishedEvent{
			SKU:            p.sku,
			Location:       p.location.Key(),
			QuantityBefore: before,
			QuantityAfter:  p.quantity,
			Overstocked:    before >= s.cfg.overstock,
			ReplenishedAt:  s.cfg.events.now(),
		})
	}

	if restocked == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLocation, location.Key())
	}
	return restocked, nil
}

// Location returns the shelf sku is stocked on
func (s *StockRoom) Location(sku string) (shared.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[sku]
	if !ok {
		return shared.Location{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	return p.location, nil
}

// Quantity returns the units of sku on hand
func (s *StockRoom) Quantity(sku string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[sku]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	return p.quantity, nil
}

// Snapshot returns every product, sorted by its export line
func (s *StockRoom) Snapshot() []Product {
	s.mu.Lock()
	out := make([]Product, 0, len(s.skus))
	for _, sku := range s.skus {
		p := s.products[sku]
		out = append(out, Product{SKU: p.sku, Quantity: p.quantity, Location: p.location})
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Product) int {
		if c := strings.Compare(a.Line(), b.Line()); c != 0 {
			return c
		}
		return strings.Compare(a.SKU, b.SKU)
	})
	return out
}

// ExportLines returns the final inventory rows, zone,aisle,rack,level,qty,
// sorted lexicographically
func (s *StockRoom) ExportLines() []string {
	snapshot := s.Snapshot()
	lines := make([]string, len(snapshot))
	for i, p := range snapshot {
		lines[i] = p.Line()
	}
	return lines
}
