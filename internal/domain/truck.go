package domain

import "slices"

// Truck bed dimensions, in pallets
const (
	TruckHeight          = 10
	TruckWidth           = 2
	DefaultTruckCapacity = TruckHeight * TruckWidth
)

// Truck accumulates the orders of loaded pallets until it is full
type Truck struct {
	id       int
	capacity int
	load     int
	manifest []Order
}

// NewTruck creates an empty truck. A non-positive capacity uses the default.
func NewTruck(id, capacity int) *Truck {
	if capacity <= 0 {
		capacity = DefaultTruckCapacity
	}
	return &Truck{id: id, capacity: capacity}
}

// LoadPallet appends the pallet's orders and counts one load unit. A full
// truck refuses the pallet and reports false.
func (t *Truck) LoadPallet(orders []Order) bool {
	if t.IsFull() {
		return false
	}
	t.manifest = append(t.manifest, orders...)
	t.load++
	return true
}

// IsFull reports whether the truck has no load units left
func (t *Truck) IsFull() bool {
	return t.load >= t.capacity
}

func (t *Truck) ID() int       { return t.id }
func (t *Truck) Load() int     { return t.load }
func (t *Truck) Capacity() int { return t.capacity }

// Manifest returns the loaded orders in loading order
func (t *Truck) Manifest() []Order {
	return slices.Clone(t.manifest)
}

// ManifestLines renders the manifest as "model, colour" lines
func (t *Truck) ManifestLines() []string {
	lines := make([]string, len(t.manifest))
	for i, o := range t.manifest {
		lines[i] = o.ManifestLine()
	}
	return lines
}
