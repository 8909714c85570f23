package domain

import (
	"fmt"
	"slices"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// RouteStop is one entry of a travel route: the shelf to visit and the sku
// expected there.
type RouteStop struct {
	SKU      string          `json:"sku"`
	Location shared.Location `json:"location"`
}

// String renders the stop as a picker instruction: "zone aisle rack level sku"
func (s RouteStop) String() string {
	return s.Location.String() + " " + s.SKU
}

// PickRequest is one batched job. All fields are unexported and accessors
// return copies, so a PickRequest value handed to another station is an
// independent snapshot.
type PickRequest struct {
	id          int
	skuPackage  []string
	travelRoute []RouteStop
	orders      []Order
}

// NewPickRequest validates and creates a PickRequest
func NewPickRequest(id int, skuPackage []string, travelRoute []RouteStop, orders []Order) (PickRequest, error) {
	if id < 1 {
		return PickRequest{}, fmt.Errorf("%w: id must be at least 1, got %d", ErrInvalidPickRequest, id)
	}
	if len(skuPackage) != len(travelRoute) {
		return PickRequest{}, fmt.Errorf("%w: package has %d skus but route has %d stops",
			ErrInvalidPickRequest, len(skuPackage), len(travelRoute))
	}
	if len(orders)*2 != len(skuPackage) {
		return PickRequest{}, fmt.Errorf("%w: %d orders cannot fill a package of %d skus",
			ErrInvalidPickRequest, len(orders), len(skuPackage))
	}

	return PickRequest{
		id:          id,
		skuPackage:  slices.Clone(skuPackage),
		travelRoute: slices.Clone(travelRoute),
		orders:      slices.Clone(orders),
	}, nil
}

// ID returns the stable job identifier
func (p PickRequest) ID() int { return p.id }

// IsZero reports whether p is the zero value
func (p PickRequest) IsZero() bool { return p.id == 0 }

// Size returns the number of skus in the package
func (p PickRequest) Size() int { return len(p.skuPackage) }

// SKUPackage returns the skus in loading order
func (p PickRequest) SKUPackage() []string { return slices.Clone(p.skuPackage) }

// TravelRoute returns the stops in picking order
func (p PickRequest) TravelRoute() []RouteStop { return slices.Clone(p.travelRoute) }

// Orders returns the orders batched into this job
func (p PickRequest) Orders() []Order { return slices.Clone(p.orders) }

// RouteSKUs returns the skus in picking order
func (p PickRequest) RouteSKUs() []string {
	skus := make([]string, len(p.travelRoute))
	for i, stop := range p.travelRoute {
		skus[i] = stop.SKU
	}
	return skus
}

// Clone returns a deep copy with the same id
func (p PickRequest) Clone() PickRequest {
	return PickRequest{
		id:          p.id,
		skuPackage:  slices.Clone(p.skuPackage),
		travelRoute: slices.Clone(p.travelRoute),
		orders:      slices.Clone(p.orders),
	}
}
