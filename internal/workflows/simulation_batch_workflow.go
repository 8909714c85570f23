package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/fulfillment-simulator/internal/activities"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/files"
	wmstemporal "github.com/wms-platform/fulfillment-simulator/pkg/temporal"
)

// ProgressQuery returns the summaries of the warehouses finished so far
const ProgressQuery = "progress"

// ErrNoWarehouses is returned when a batch names no warehouse
var ErrNoWarehouses = errors.New("batch has no warehouses")

// SimulationBatchInput represents the input for the simulation batch workflow
type SimulationBatchInput struct {
	// RunID defaults to the workflow id
	RunID          string                    `json:"runId,omitempty"`
	Warehouses     []files.WarehouseSettings `json:"warehouses"`
	OutputDir      string                    `json:"outputDir"`
	OrderBatchSize int                       `json:"orderBatchSize,omitempty"`
	TruckSize      int                       `json:"truckSize,omitempty"`
}

// WarehouseSummary is the outcome of one warehouse in a batch
type WarehouseSummary struct {
	Warehouse int                            `json:"warehouse"`
	Success   bool                           `json:"success"`
	Result    *activities.RunWarehouseResult `json:"result,omitempty"`
	Error     string                         `json:"error,omitempty"`
}

// SimulationBatchResult represents the result of the simulation batch workflow
type SimulationBatchResult struct {
	RunID      string             `json:"runId"`
	Warehouses []WarehouseSummary `json:"warehouses"`
	Succeeded  int                `json:"succeeded"`
	Failed     int                `json:"failed"`
}

// SimulationBatchWorkflow runs every warehouse of a settings file in order.
// A warehouse that fails is recorded in the result and the batch moves on.
func SimulationBatchWorkflow(ctx workflow.Context, input SimulationBatchInput) (*SimulationBatchResult, error) {
	logger := workflow.GetLogger(ctx)

	if len(input.Warehouses) == 0 {
		return nil, ErrNoWarehouses
	}

	runID := input.RunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	logger.Info("Starting simulation batch", "runId", runID, "warehouses", len(input.Warehouses))

	result := &SimulationBatchResult{
		RunID:      runID,
		Warehouses: make([]WarehouseSummary, 0, len(input.Warehouses)),
	}

	if err := workflow.SetQueryHandler(ctx, ProgressQuery, func() (*SimulationBatchResult, error) {
		return result, nil
	}); err != nil {
		return nil, err
	}

	retry := wmstemporal.DefaultRetryPolicy()
	retry.NonRetryableErrors = []string{activities.ErrTypeInvalidWarehouse}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         retry.SDK(),
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	for number, settings := range input.Warehouses {
		logger.Info("Running warehouse", "runId", runID, "warehouse", number)

		summary := WarehouseSummary{Warehouse: number}
		var out activities.RunWarehouseResult
		err := workflow.ExecuteActivity(ctx, wmstemporal.ActivityNames.RunWarehouse, activities.RunWarehouseInput{
			RunID:          runID,
			Warehouse:      number,
			Settings:       settings,
			OutputDir:      input.OutputDir,
			OrderBatchSize: input.OrderBatchSize,
			TruckSize:      input.TruckSize,
		}).Get(ctx, &out)
		if err != nil {
			logger.Error("Warehouse failed, continuing with the next", "warehouse", number, "error", err)
			summary.Error = err.Error()
			result.Failed++
		} else {
			summary.Success = true
			summary.Result = &out
			result.Succeeded++
		}
		result.Warehouses = append(result.Warehouses, summary)
	}

	logger.Info("Simulation batch completed", "runId", runID,
		"succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}
