package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

// Test fixtures
//
// Four models, skus 1 to 8. Sku n sits on zone A, aisle 0, rack 0, level n-1,
// except sku 8 which shares the shelf of sku 7.
func testTranslation() TranslationTable {
	return TranslationTable{
		{Colour: "Blue", Model: "SES", FrontSKU: "1", RearSKU: "2"},
		{Colour: "Red", Model: "SES", FrontSKU: "3", RearSKU: "4"},
		{Colour: "White", Model: "S", FrontSKU: "5", RearSKU: "6"},
		{Colour: "Black", Model: "SE", FrontSKU: "7", RearSKU: "8"},
		{Colour: "Green", Model: "SE", FrontSKU: "7", RearSKU: "99"},
	}
}

func testTraversal() []TraversalRow {
	rows := make([]TraversalRow, 0, 8)
	for n := 1; n <= 7; n++ {
		rows = append(rows, TraversalRow{Location: shared.MustNewLocation("A", 0, 0, n-1), SKU: fmt.Sprint(n)})
	}
	rows = append(rows, TraversalRow{Location: shared.MustNewLocation("A", 0, 0, 6), SKU: "8"})
	return rows
}

func testTables() Tables {
	return Tables{Translation: testTranslation(), Traversal: testTraversal()}
}

var fixedTime = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return fixedTime }

func newTestWarehouse(t *testing.T, opts ...WarehouseOption) *Warehouse {
	t.Helper()
	w, err := NewWarehouse(0, testTables(), append([]WarehouseOption{WithClock(testClock)}, opts...)...)
	require.NoError(t, err)
	return w
}

func newTestStockRoom(t *testing.T, initial []StockRow, opts ...StockOption) *StockRoom {
	t.Helper()
	s, err := NewStockRoom(testTraversal(), initial, opts...)
	require.NoError(t, err)
	return s
}

// placeBatch places four identical Blue SES orders, forming one pick request
func placeBatch(t *testing.T, w *Warehouse) {
	t.Helper()
	for i := 0; i < DefaultBatchSize; i++ {
		require.NoError(t, w.PlaceOrder("SES", "Blue"))
	}
}

// scanAll scans the worker's whole expected sequence
func scanAll(t *testing.T, w *Warehouse, kind StationKind, name string) {
	t.Helper()
	st, ok := w.Worker(name)
	require.True(t, ok)
	for _, sku := range st.(Scanner).Expected() {
		require.NoError(t, w.Scan(kind, name, sku))
	}
}

// runThroughPicker takes one batch through a picker
func runThroughPicker(t *testing.T, w *Warehouse, name string) {
	t.Helper()
	require.NoError(t, w.Ready(StationPicker, name))
	scanAll(t, w, StationPicker, name)
	require.NoError(t, w.Complete(StationPicker, name))
}

func eventTypes(events []DomainEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}
