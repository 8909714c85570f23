package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
)

type mockRunRepo struct {
	mu      sync.Mutex
	saveErr error
	saved   []*domain.RunResult
	findErr error
}

func (m *mockRunRepo) Save(_ context.Context, result *domain.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, result)
	return nil
}

func (m *mockRunRepo) FindByRunID(_ context.Context, runID string) ([]*domain.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*domain.RunResult
	for _, r := range m.saved {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRunRepo) FindOne(ctx context.Context, runID string, warehouse int) (*domain.RunResult, error) {
	results, err := m.FindByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Warehouse == warehouse {
			return r, nil
		}
	}
	return nil, nil
}

// Four models, skus 1 to 8 on zone A, aisle 0, rack 0, level n-1; sku 8
// shares the shelf of sku 7.
func testTables() domain.Tables {
	traversal := make([]domain.TraversalRow, 0, 8)
	for n := 1; n <= 7; n++ {
		traversal = append(traversal, domain.TraversalRow{Location: shared.MustNewLocation("A", 0, 0, n-1), SKU: fmt.Sprint(n)})
	}
	traversal = append(traversal, domain.TraversalRow{Location: shared.MustNewLocation("A", 0, 0, 6), SKU: "8"})

	return domain.Tables{
		Translation: domain.TranslationTable{
			{Colour: "Blue", Model: "SES", FrontSKU: "1", RearSKU: "2"},
			{Colour: "Red", Model: "SES", FrontSKU: "3", RearSKU: "4"},
			{Colour: "White", Model: "S", FrontSKU: "5", RearSKU: "6"},
			{Colour: "Black", Model: "SE", FrontSKU: "7", RearSKU: "8"},
		},
		Traversal: traversal,
	}
}

func testCreateSessionCommand() CreateSessionCommand {
	cmd := CreateSessionCommand{RunID: "run-test", Warehouse: 0}
	tables := testTables()
	for _, row := range tables.Translation {
		cmd.Translation = append(cmd.Translation, TranslationRowInput{
			Colour: row.Colour, Model: row.Model, FrontSKU: row.FrontSKU, RearSKU: row.RearSKU,
		})
	}
	for _, row := range tables.Traversal {
		cmd.Traversal = append(cmd.Traversal, TraversalRowInput{Location: row.Location.Key(), SKU: row.SKU})
	}
	return cmd
}

// fullScript takes four orders through every station and restocks sku 1. It
// contains one unknown order, one unavailable sequencer and two refused
// scans.
var fullScript = []string{
	"Order SES Blue",
	"Order SES Pink",
	"Order SES Red",
	"Order S White",
	"Order SE Black",
	"Sequencer Sue ready",
	"Picker Alice ready",
	"Picker Alice scans 1",
	"Picker Alice scans 3",
	"Picker Alice rescans",
	"Picker Alice scans 1",
	"Picker Alice scans 2",
	"Picker Alice scans 3",
	"Picker Alice scans 4",
	"Picker Alice scans 5",
	"Picker Alice scans 6",
	"Picker Alice scans 7",
	"Picker Alice completes",
	"Picker Alice scans 8",
	"Picker Alice completes",
	"Sequencer Sue ready",
	"Sequencer Sue scans 7",
	"Sequencer Sue scans 5",
	"Sequencer Sue scans 3",
	"Sequencer Sue scans 1",
	"Sequencer Sue scans 8",
	"Sequencer Sue scans 6",
	"Sequencer Sue scans 4",
	"Sequencer Sue scans 2",
	"Sequencer Sue completes",
	"Loader Lou ready",
	"Loader Lou scans 7",
	"Loader Lou scans 5",
	"Loader Lou scans 3",
	"Loader Lou scans 1",
	"Loader Lou scans 8",
	"Loader Lou scans 6",
	"Loader Lou scans 4",
	"Loader Lou scans 2",
	"Loader Lou completes",
	"Replenisher Rita replenish A 0 0 0",
}

type testHarness struct {
	publisher *MemoryPublisher
	repo      *mockRunRepo
	metrics   *metrics.Metrics
	service   *SimulationService
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		publisher: NewMemoryPublisher(),
		repo:      &mockRunRepo{},
		metrics:   metrics.New(metrics.DefaultConfig("simulator-test")),
	}
	h.service = NewSimulationService(
		h.publisher,
		h.repo,
		cloudevents.NewEventFactory(cloudevents.SourceSimulator),
		h.metrics,
		logging.NewNop(),
	)
	return h
}
