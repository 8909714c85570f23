package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
)

// Run is one warehouse being driven through script events. A Run is not safe
// for concurrent use.
type Run struct {
	ID        string
	Warehouse *domain.Warehouse
	Stats     domain.RunStats
	StartedAt time.Time

	logger *logging.Logger
}

// EventOutcome is the answer to one script event
type EventOutcome struct {
	Event        string
	Outcome      Outcome
	DomainEvents []string
}

// DTO converts the outcome for responses
func (o *EventOutcome) DTO() *EventResultDTO {
	return &EventResultDTO{
		Event:        o.Event,
		Outcome:      string(o.Outcome),
		DomainEvents: nonNil(o.DomainEvents),
	}
}

// SimulationService drives warehouses through event scripts, publishes the
// notifications they raise and archives their results
type SimulationService struct {
	publisher EventPublisher
	runs      domain.RunRepository
	factory   *cloudevents.EventFactory
	metrics   *metrics.Metrics
	logger    *logging.Logger
	clock     func() time.Time
}

// NewSimulationService creates a SimulationService. runs may be nil, in which
// case results are not archived.
func NewSimulationService(
	publisher EventPublisher,
	runs domain.RunRepository,
	factory *cloudevents.EventFactory,
	m *metrics.Metrics,
	logger *logging.Logger,
) *SimulationService {
	RegisterDomainErrors()
	return &SimulationService{
		publisher: publisher,
		runs:      runs,
		factory:   factory,
		metrics:   m,
		logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// NewRunID returns a fresh run id
func NewRunID() string {
	return "run-" + uuid.New().String()
}

// StartRun builds warehouse number from its tables
func (s *SimulationService) StartRun(ctx context.Context, runID string, number int, tables domain.Tables, opts ...domain.WarehouseOption) (*Run, error) {
	if runID == "" {
		runID = NewRunID()
	}
	logger := s.logger.WithRunID(runID).WithWarehouse(number)

	w, err := domain.NewWarehouse(number, tables, opts...)
	if err != nil {
		logger.WithError(err).Error("Failed to build warehouse")
		s.metrics.RecordRun(false, 0)
		return nil, err
	}

	run := &Run{
		ID:        runID,
		Warehouse: w,
		StartedAt: s.clock(),
		logger:    logger,
	}

	started := s.factory.CreateRunEvent(ctx, cloudevents.RunStarted, cloudevents.RunSummaryData{RunID: runID, Warehouse: number})
	s.publish(ctx, run, started)

	logger.Info("Warehouse ready", "products", len(w.StockRoom().Snapshot()))
	return run, nil
}

// ApplyLine parses and applies one script line. A malformed line is
// counted, logged and returned as an error wrapping domain.ErrMalformedEvent.
func (s *SimulationService) ApplyLine(ctx context.Context, run *Run, line string) (*EventOutcome, error) {
	ev, err := domain.ParseEvent(line)
	if err != nil {
		run.Stats.MalformedLines++
		s.metrics.RecordEvent("unparsed", string(OutcomeMalformed))
		run.logger.WithError(err).Error("Skipping malformed event", "line", line)
		return &EventOutcome{Event: line, Outcome: OutcomeMalformed, DomainEvents: []string{}}, err
	}
	return s.ApplyEvent(ctx, run, ev)
}

// ApplyEvent applies one parsed event. A refused event leaves the warehouse
// unchanged and its reason is returned.
func (s *SimulationService) ApplyEvent(ctx context.Context, run *Run, ev domain.Event) (*EventOutcome, error) {
	err := run.Warehouse.Apply(ev)
	outcome := Classify(err)
	s.record(run, ev, outcome)

	logger := run.logger
	if ev.Station != "" {
		logger = logger.WithStation(string(ev.Station), ev.Worker)
	}
	if err != nil {
		logger.Refused(ctx, ev.String(), err, "outcome", string(outcome))
	} else {
		logger.Debug("Event applied", "event", ev.String())
	}

	raised := run.Warehouse.PullDomainEvents()
	result := &EventOutcome{
		Event:        ev.String(),
		Outcome:      outcome,
		DomainEvents: make([]string, 0, len(raised)),
	}
	published := make([]*cloudevents.WMSCloudEvent, 0, len(raised))
	for _, de := range raised {
		result.DomainEvents = append(result.DomainEvents, de.EventType())
		s.observe(run, logger, de)
		if ce, ok := ToCloudEvent(ctx, s.factory, de); ok {
			published = append(published, ce.WithRun(run.ID, run.Warehouse.Number()))
		}
	}
	s.publish(ctx, run, published...)

	return result, err
}

func (s *SimulationService) record(run *Run, ev domain.Event, outcome Outcome) {
	s.metrics.RecordEvent(string(ev.Kind), string(outcome))
	switch outcome {
	case OutcomeApplied:
		run.Stats.EventsApplied++
	case OutcomeUnavailable:
		run.Stats.EventsUnavailable++
	default:
		run.Stats.EventsRefused++
	}

	switch ev.Kind {
	case domain.EventOrder:
		s.metrics.RecordOrder(outcome == OutcomeApplied)
		if outcome == OutcomeApplied {
			run.Stats.OrdersAccepted++
		}
	case domain.EventScan:
		s.metrics.RecordScan(string(ev.Station), outcome == OutcomeApplied)
	}
}

// observe logs and counts one notification raised by the warehouse
func (s *SimulationService) observe(run *Run, logger *logging.Logger, event domain.DomainEvent) {
	switch e := event.(type) {
	case *domain.PickRequestCreatedEvent:
		run.Stats.PickRequests++
		s.metrics.RecordPickRequestCreated()
		logger.Info("Pick request created", "pickRequestId", e.PickRequestID, "route", e.RouteSKUs)
	case *domain.StationCompletedEvent:
		logger.Info("Job completed", "pickRequestId", e.PickRequestID)
	case *domain.PickRequestDiscardedEvent:
		s.metrics.RecordDiscard(string(e.Station))
		logger.Info("Job discarded and requeued", "pickRequestId", e.PickRequestID)
	case *domain.LowStockEvent:
		run.Stats.LowStockAlerts++
		s.metrics.RecordLowStockAlert()
		logger.Warn("Low stock", "sku", e.SKU, "location", e.Location, "quantity", e.Quantity)
	case *domain.ShelfReplenishedEvent:
		run.Stats.Replenishments++
		s.metrics.RecordReplenishment()
		if e.Overstocked {
			logger.Warn("Shelf overstocked", "sku", e.SKU, "location", e.Location,
				"before", e.QuantityBefore, "after", e.QuantityAfter)
		} else {
			logger.Info("Shelf replenished", "sku", e.SKU, "location", e.Location, "quantity", e.QuantityAfter)
		}
	case *domain.TruckLoadedEvent:
		run.Stats.PalletsLoaded++
		s.metrics.RecordTruckLoaded()
		logger.Info("Pallet loaded", "truckId", e.TruckID, "pickRequestId", e.PickRequestID,
			"load", e.Load, "capacity", e.Capacity, "newTruck", e.NewTruck)
	}
}

// publish hands events to the publisher. A failed publish is logged and does
// not affect the simulation.
func (s *SimulationService) publish(ctx context.Context, run *Run, events ...*cloudevents.WMSCloudEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		run.logger.WithError(err).Warn("Failed to publish events", "count", len(events))
	}
}

// RunScript applies every line in order. Refused and malformed lines are
// logged and skipped; only a cancelled context stops the script.
func (s *SimulationService) RunScript(ctx context.Context, run *Run, lines []string) error {
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = s.ApplyLine(ctx, run, line)
	}
	return nil
}

// Finish produces the run result, publishes the completion event and
// archives the result when a repository is configured
func (s *SimulationService) Finish(ctx context.Context, run *Run) (*domain.RunResult, error) {
	w := run.Warehouse
	result := &domain.RunResult{
		RunID:          run.ID,
		Warehouse:      w.Number(),
		FinalInventory: nonNil(w.FinalInventory()),
		OrderManifest:  nonNil(w.OrderManifest()),
		Stats:          run.Stats,
		CompletedAt:    s.clock(),
	}

	completed := s.factory.CreateRunEvent(ctx, cloudevents.RunCompleted, cloudevents.RunSummaryData{
		RunID:          run.ID,
		Warehouse:      w.Number(),
		EventsApplied:  run.Stats.EventsApplied,
		EventsRefused:  run.Stats.EventsRefused + run.Stats.EventsUnavailable + run.Stats.MalformedLines,
		TrucksLoaded:   len(w.Marshalling().Trucks()),
		OrdersShipped:  len(result.OrderManifest),
		InventoryLines: len(result.FinalInventory),
	})
	s.publish(ctx, run, completed)

	duration := result.CompletedAt.Sub(run.StartedAt)
	if s.runs != nil {
		if err := s.runs.Save(ctx, result); err != nil {
			run.logger.WithError(err).Error("Failed to archive run result")
			s.metrics.RecordRun(false, duration)
			return result, fmt.Errorf("failed to archive run %s warehouse %d: %w", run.ID, w.Number(), err)
		}
	}

	s.metrics.RecordRun(true, duration)
	run.logger.Info("Warehouse run completed",
		"eventsApplied", run.Stats.EventsApplied,
		"eventsRefused", run.Stats.EventsRefused,
		"eventsUnavailable", run.Stats.EventsUnavailable,
		"malformedLines", run.Stats.MalformedLines,
		"trucks", len(w.Marshalling().Trucks()),
		"duration", duration.String(),
	)
	return result, nil
}

// Simulate runs a whole script against one warehouse
func (s *SimulationService) Simulate(ctx context.Context, cmd RunWarehouseCommand) (*domain.RunResult, error) {
	run, err := s.StartRun(ctx, cmd.RunID, cmd.Warehouse, cmd.Tables, cmd.Options...)
	if err != nil {
		return nil, err
	}
	if err := s.RunScript(ctx, run, cmd.Script); err != nil {
		s.metrics.RecordRun(false, s.clock().Sub(run.StartedAt))
		return nil, err
	}
	return s.Finish(ctx, run)
}

// GetRun returns the archived results of a run
func (s *SimulationService) GetRun(ctx context.Context, runID string) (*RunDTO, error) {
	if s.runs == nil {
		return nil, errors.ErrServiceUnavailable("run archive")
	}

	results, err := s.runs.FindByRunID(ctx, runID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load run", "runId", runID)
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if len(results) == 0 {
		return nil, errors.ErrNotFoundWithID("run", runID)
	}
	return &RunDTO{RunID: runID, Warehouses: results}, nil
}
