package application

import (
	"fmt"
	"strings"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// RunWarehouseCommand runs a whole script against one warehouse
type RunWarehouseCommand struct {
	RunID     string
	Warehouse int
	Tables    domain.Tables
	Script    []string
	Options   []domain.WarehouseOption
}

// TranslationRowInput is one order translation row
type TranslationRowInput struct {
	Colour   string `json:"colour"`
	Model    string `json:"model"`
	FrontSKU string `json:"frontSku"`
	RearSKU  string `json:"rearSku"`
}

// TraversalRowInput places a sku at a location, written zone,aisle,rack,level
type TraversalRowInput struct {
	Location string `json:"location"`
	SKU      string `json:"sku"`
}

// StockRowInput sets the starting quantity at a location
type StockRowInput struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// CreateSessionCommand opens a live warehouse from inline tables
type CreateSessionCommand struct {
	RunID          string                `json:"runId"`
	Warehouse      int                   `json:"warehouse"`
	Translation    []TranslationRowInput `json:"translation"`
	Traversal      []TraversalRowInput   `json:"traversal"`
	Initial        []StockRowInput       `json:"initial"`
	OrderBatchSize int                   `json:"orderBatchSize"`
	TruckSize      int                   `json:"truckSize"`
}

// Tables converts the inline tables. A malformed location is a validation
// error naming the offending row.
func (c CreateSessionCommand) Tables() (domain.Tables, error) {
	tables := domain.Tables{
		Translation: make(domain.TranslationTable, 0, len(c.Translation)),
		Traversal:   make([]domain.TraversalRow, 0, len(c.Traversal)),
	}
	for _, row := range c.Translation {
		tables.Translation = append(tables.Translation, domain.TranslationRow{
			Colour:   row.Colour,
			Model:    row.Model,
			FrontSKU: row.FrontSKU,
			RearSKU:  row.RearSKU,
		})
	}
	for i, row := range c.Traversal {
		loc, err := shared.ParseLocationKey(row.Location)
		if err != nil {
			return domain.Tables{}, errors.ErrValidation(err.Error()).WithDetail(fmt.Sprintf("traversal[%d]", i), row.Location)
		}
		tables.Traversal = append(tables.Traversal, domain.TraversalRow{Location: loc, SKU: row.SKU})
	}
	for i, row := range c.Initial {
		loc, err := shared.ParseLocationKey(row.Location)
		if err != nil {
			return domain.Tables{}, errors.ErrValidation(err.Error()).WithDetail(fmt.Sprintf("initial[%d]", i), row.Location)
		}
		tables.Initial = append(tables.Initial, domain.StockRow{Location: loc, Quantity: row.Quantity})
	}
	return tables, nil
}

// Options returns the warehouse options the command overrides
func (c CreateSessionCommand) Options() []domain.WarehouseOption {
	var opts []domain.WarehouseOption
	if c.OrderBatchSize > 0 {
		opts = append(opts, domain.WithOrderBatchSize(c.OrderBatchSize))
	}
	if c.TruckSize > 0 {
		opts = append(opts, domain.WithTruckSize(c.TruckSize))
	}
	return opts
}

// EventInput is a structured script event
type EventInput struct {
	Kind     string `json:"kind"`
	Station  string `json:"station"`
	Worker   string `json:"worker"`
	Model    string `json:"model"`
	Colour   string `json:"colour"`
	SKU      string `json:"sku"`
	Location string `json:"location"`
}

// ApplyEventCommand applies one event to a session. Line takes precedence
// over the structured Event.
type ApplyEventCommand struct {
	SessionID string
	Line      string
	Event     EventInput
}

var scriptVerbs = map[domain.EventKind]string{
	domain.EventReady:     "ready",
	domain.EventScan:      "scans",
	domain.EventRescan:    "rescans",
	domain.EventComplete:  "completes",
	domain.EventDiscard:   "discards",
	domain.EventReplenish: "replenish",
}

// ScriptLine renders the structured event as a script line, so structured
// and raw events go through the same parser
func (e EventInput) ScriptLine() (string, error) {
	kind := domain.EventKind(e.Kind)
	if kind == domain.EventOrder {
		return strings.Join([]string{"Order", e.Model, e.Colour}, " "), nil
	}

	verb, ok := scriptVerbs[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown event kind %q", domain.ErrMalformedEvent, e.Kind)
	}

	parts := []string{e.Station, e.Worker, verb}
	switch kind {
	case domain.EventScan:
		parts = append(parts, e.SKU)
	case domain.EventReplenish:
		parts = append(parts, strings.Split(e.Location, ",")...)
	}
	return strings.Join(parts, " "), nil
}
