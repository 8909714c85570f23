package application

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	apperrors "github.com/wms-platform/fulfillment-simulator/pkg/errors"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
)

func newTestSessions(t *testing.T) (*SessionService, *testHarness) {
	t.Helper()
	h := newTestHarness(t)
	return NewSessionService(h.service, h.metrics, logging.NewNop()), h
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateSession(t *testing.T) {
	sessions, h := newTestSessions(t)

	dto, err := sessions.CreateSession(context.Background(), testCreateSessionCommand())
	require.NoError(t, err)

	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "run-test", dto.RunID)
	assert.Equal(t, 0, dto.PendingOrders)
	assert.NotNil(t, dto.Workers)
	assert.NotNil(t, dto.QueuedJobs)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ActiveSessions))
}

func TestCreateSession_InvalidLocation(t *testing.T) {
	sessions, _ := newTestSessions(t)
	cmd := testCreateSessionCommand()
	cmd.Traversal[2].Location = "A,zero,0,1"

	_, err := sessions.CreateSession(context.Background(), cmd)
	requireAppError(t, err, apperrors.CodeValidationError)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, "A,zero,0,1", appErr.Details["traversal[2]"])
}

func TestCreateSession_Options(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()
	cmd := testCreateSessionCommand()
	cmd.OrderBatchSize = 1

	dto, err := sessions.CreateSession(ctx, cmd)
	require.NoError(t, err)

	result, err := sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: "Order SES Blue"})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.EventTypePickRequestCreated}, result.DomainEvents)
}

func TestApplyEvent_LineAndStructured(t *testing.T) {
	sessions, h := newTestSessions(t)
	ctx := context.Background()
	dto, err := sessions.CreateSession(ctx, testCreateSessionCommand())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: "Order SES Blue"})
		require.NoError(t, err)
		assert.Equal(t, "applied", result.Outcome)
	}

	result, err := sessions.ApplyEvent(ctx, ApplyEventCommand{
		SessionID: dto.ID,
		Event:     EventInput{Kind: "order", Model: "SES", Colour: "Blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Order SES Blue", result.Event)
	assert.Equal(t, []string{domain.EventTypePickRequestCreated}, result.DomainEvents)

	result, err = sessions.ApplyEvent(ctx, ApplyEventCommand{
		SessionID: dto.ID,
		Event:     EventInput{Kind: "ready", Station: "Picker", Worker: "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Picker Alice ready", result.Event)

	state, err := sessions.GetSession(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, state.Workers, 1)
	assert.Equal(t, domain.WorkerAssigned, state.Workers[0].State)
	assert.Equal(t, 4, state.Stats.OrdersAccepted)
	assert.Len(t, h.publisher.OfType("wms.simulation.pick-request-created"), 1)
}

func TestApplyEvent_Refusals(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()
	dto, err := sessions.CreateSession(ctx, testCreateSessionCommand())
	require.NoError(t, err)

	result, err := sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: "Picker Alice ready"})
	assert.ErrorIs(t, err, domain.ErrNoPickRequest)
	assert.Equal(t, "unavailable", result.Outcome)

	result, err = sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: "Sequencer Alice ready"})
	assert.ErrorIs(t, err, domain.ErrStationMismatch)
	assert.Equal(t, "refused", result.Outcome)
	assert.Equal(t, apperrors.CodeConflict, apperrors.MapDomainError(err).Code)

	_, err = sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Event: EventInput{Kind: "teleport"}})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: "missing", Line: "Order SES Blue"})
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestGetInventoryAndTrucks(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()
	cmd := testCreateSessionCommand()
	cmd.Initial = []StockRowInput{{Location: "A,0,0,0", Quantity: 5}}
	dto, err := sessions.CreateSession(ctx, cmd)
	require.NoError(t, err)

	inventory, err := sessions.GetInventory(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, inventory.Products, 8)
	assert.Equal(t, ProductDTO{SKU: "1", Quantity: 5, Location: "A,0,0,0"}, inventory.Products[0])
	assert.Equal(t, "A,0,0,0,5", inventory.Lines[0])

	trucks, err := sessions.GetTrucks(ctx, dto.ID)
	require.NoError(t, err)
	assert.NotNil(t, trucks.Trucks)
	assert.Empty(t, trucks.Trucks)
	assert.NotNil(t, trucks.Manifest)

	_, err = sessions.GetInventory(ctx, "missing")
	requireAppError(t, err, apperrors.CodeNotFound)
	_, err = sessions.GetTrucks(ctx, "missing")
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestFullScriptThroughSession(t *testing.T) {
	sessions, h := newTestSessions(t)
	ctx := context.Background()
	dto, err := sessions.CreateSession(ctx, testCreateSessionCommand())
	require.NoError(t, err)

	for _, line := range fullScript {
		_, _ = sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: line})
	}

	trucks, err := sessions.GetTrucks(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, trucks.Trucks, 1)
	truck := trucks.Trucks[0]
	assert.Equal(t, 0, truck.ID)
	assert.Equal(t, 1, truck.Load)
	assert.Len(t, truck.Manifest, 4)
	assert.Equal(t, ManifestEntryDTO{Model: "SES", Colour: "Blue"}, truck.Manifest[0])

	result, err := sessions.CloseSession(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, trucks.Manifest, result.OrderManifest)
	require.Len(t, h.repo.saved, 1)
	assert.Equal(t, "run-test", h.repo.saved[0].RunID)
}

func TestListAndCloseSessions(t *testing.T) {
	sessions, h := newTestSessions(t)
	ctx := context.Background()

	assert.Empty(t, sessions.ListSessions(ctx))

	first, err := sessions.CreateSession(ctx, testCreateSessionCommand())
	require.NoError(t, err)
	cmd := testCreateSessionCommand()
	cmd.Warehouse = 1
	second, err := sessions.CreateSession(ctx, cmd)
	require.NoError(t, err)

	listed := sessions.ListSessions(ctx)
	require.Len(t, listed, 2)
	ids := []string{listed[0].ID, listed[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	_, err = sessions.CloseSession(ctx, first.ID)
	require.NoError(t, err)
	_, err = sessions.CloseSession(ctx, first.ID)
	requireAppError(t, err, apperrors.CodeNotFound)
	_, err = sessions.GetSession(ctx, first.ID)
	requireAppError(t, err, apperrors.CodeNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ActiveSessions))

	sessions.CloseAll(ctx)
	assert.Empty(t, sessions.ListSessions(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ActiveSessions))
	assert.Len(t, h.repo.saved, 2)
}

func TestApplyEvent_ConcurrentSessions(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()
	dto, err := sessions.CreateSession(ctx, testCreateSessionCommand())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sessions.ApplyEvent(ctx, ApplyEventCommand{SessionID: dto.ID, Line: "Order SES Blue"})
			_, _ = sessions.GetSession(ctx, dto.ID)
		}()
	}
	wg.Wait()

	state, err := sessions.GetSession(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, state.Stats.OrdersAccepted)
	assert.Len(t, state.QueuedJobs, 5)
}
