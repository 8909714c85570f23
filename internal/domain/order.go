package domain

import (
	"fmt"
	"strings"
)

// Order is a customer order for one vehicle fascia set
type Order struct {
	Model  string `json:"model" bson:"model"`
	Colour string `json:"colour" bson:"colour"`
}

// NewOrder creates an Order, rejecting blank fields
func NewOrder(model, colour string) (Order, error) {
	model = strings.TrimSpace(model)
	colour = strings.TrimSpace(colour)
	if model == "" || colour == "" {
		return Order{}, fmt.Errorf("%w: model and colour are required", ErrInvalidOrder)
	}
	return Order{Model: model, Colour: colour}, nil
}

// ManifestLine renders the order the way truck manifests list it
func (o Order) ManifestLine() string {
	return o.Model + ", " + o.Colour
}

func (o Order) String() string {
	return o.Model + " " + o.Colour
}

// TranslationRow maps a colour and model to the front and rear fascia skus
type TranslationRow struct {
	Colour   string `json:"colour"`
	Model    string `json:"model"`
	FrontSKU string `json:"frontSku"`
	RearSKU  string `json:"rearSku"`
}

// TranslationTable is the order to sku lookup table
type TranslationTable []TranslationRow

// Translate returns the sku pair for an order. When several rows match, the
// last one wins.
func (t TranslationTable) Translate(order Order) (front, rear string, ok bool) {
	for _, row := range t {
		if row.Colour == order.Colour && row.Model == order.Model {
			front, rear, ok = row.FrontSKU, row.RearSKU, true
		}
	}
	return front, rear, ok
}
