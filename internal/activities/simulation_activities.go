package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/files"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	wmstemporal "github.com/wms-platform/fulfillment-simulator/pkg/temporal"
)

// ErrTypeInvalidWarehouse is the application error type returned when a
// warehouse's settings or input files are unusable. Retrying cannot fix it.
const ErrTypeInvalidWarehouse = "InvalidWarehouse"

// RunWarehouseInput is the input of the RunWarehouse activity
type RunWarehouseInput struct {
	RunID          string                  `json:"runId"`
	Warehouse      int                     `json:"warehouse"`
	Settings       files.WarehouseSettings `json:"settings"`
	OutputDir      string                  `json:"outputDir"`
	OrderBatchSize int                     `json:"orderBatchSize,omitempty"`
	TruckSize      int                     `json:"truckSize,omitempty"`
}

// RunWarehouseResult is the output of the RunWarehouse activity
type RunWarehouseResult struct {
	Warehouse  int             `json:"warehouse"`
	FinalPath  string          `json:"finalPath"`
	OrdersPath string          `json:"ordersPath"`
	Shipped    int             `json:"shipped"`
	Stats      domain.RunStats `json:"stats"`
}

// SimulationActivities contains the activities of the simulation batch workflow
type SimulationActivities struct {
	simulation *application.SimulationService
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewSimulationActivities creates a new SimulationActivities instance
func NewSimulationActivities(simulation *application.SimulationService, m *metrics.Metrics, logger *logging.Logger) *SimulationActivities {
	return &SimulationActivities{
		simulation: simulation,
		metrics:    m,
		logger:     logger,
	}
}

// RunWarehouse loads one warehouse's files, runs its script and writes
// final<N>.csv and orders<N>.csv
func (a *SimulationActivities) RunWarehouse(ctx context.Context, input RunWarehouseInput) (*RunWarehouseResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	logger.Info("Running warehouse", "runId", input.RunID, "warehouse", input.Warehouse, "directory", input.Settings.Directory)

	loaded, err := files.Load(input.Settings, a.logger.WithRunID(input.RunID).WithWarehouse(input.Warehouse))
	if err != nil {
		logger.Error("Failed to load warehouse input", "warehouse", input.Warehouse, "error", err)
		a.metrics.RecordActivityCompleted(wmstemporal.ActivityNames.RunWarehouse, false, time.Since(start))
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("warehouse %d: %v", input.Warehouse, err), ErrTypeInvalidWarehouse, err)
	}

	cmd := application.RunWarehouseCommand{
		RunID:     input.RunID,
		Warehouse: input.Warehouse,
		Tables:    loaded.Tables,
		Script:    loaded.Script,
	}
	if input.OrderBatchSize > 0 {
		cmd.Options = append(cmd.Options, domain.WithOrderBatchSize(input.OrderBatchSize))
	}
	if input.TruckSize > 0 {
		cmd.Options = append(cmd.Options, domain.WithTruckSize(input.TruckSize))
	}

	result, simErr := a.simulation.Simulate(ctx, cmd)
	if result == nil {
		logger.Error("Warehouse simulation failed", "warehouse", input.Warehouse, "error", simErr)
		a.metrics.RecordActivityCompleted(wmstemporal.ActivityNames.RunWarehouse, false, time.Since(start))
		if errors.Is(simErr, domain.ErrInvalidStockRow) {
			return nil, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("warehouse %d: %v", input.Warehouse, simErr), ErrTypeInvalidWarehouse, simErr)
		}
		return nil, fmt.Errorf("failed to simulate warehouse %d: %w", input.Warehouse, simErr)
	}

	// outputs are written even when archiving failed; a retry rewrites them
	finalPath, ordersPath, err := files.WriteResult(input.OutputDir, result)
	if err != nil {
		logger.Error("Failed to write warehouse output", "warehouse", input.Warehouse, "error", err)
		a.metrics.RecordActivityCompleted(wmstemporal.ActivityNames.RunWarehouse, false, time.Since(start))
		return nil, err
	}
	if simErr != nil {
		logger.Error("Failed to archive warehouse result", "warehouse", input.Warehouse, "error", simErr)
		a.metrics.RecordActivityCompleted(wmstemporal.ActivityNames.RunWarehouse, false, time.Since(start))
		return nil, simErr
	}

	a.metrics.RecordActivityCompleted(wmstemporal.ActivityNames.RunWarehouse, true, time.Since(start))
	logger.Info("Warehouse completed", "warehouse", input.Warehouse, "final", finalPath, "orders", ordersPath)

	return &RunWarehouseResult{
		Warehouse:  input.Warehouse,
		FinalPath:  finalPath,
		OrdersPath: ordersPath,
		Shipped:    len(result.OrderManifest),
		Stats:      result.Stats,
	}, nil
}
