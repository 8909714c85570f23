package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/files"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
)

type mockRunRepo struct {
	saveErr error
	saved   []*domain.RunResult
}

func (m *mockRunRepo) Save(_ context.Context, result *domain.RunResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, result)
	return nil
}

func (m *mockRunRepo) FindByRunID(context.Context, string) ([]*domain.RunResult, error) {
	return m.saved, nil
}

func (m *mockRunRepo) FindOne(context.Context, string, int) (*domain.RunResult, error) {
	return nil, nil
}

func newTestActivities(repo domain.RunRepository) *SimulationActivities {
	m := metrics.New(metrics.DefaultConfig("activities-test"))
	sim := application.NewSimulationService(
		application.NewMemoryPublisher(),
		repo,
		cloudevents.NewEventFactory(cloudevents.SourceSimulator),
		m,
		logging.NewNop(),
	)
	return NewSimulationActivities(sim, m, logging.NewNop())
}

func writeWarehouse(t *testing.T, withInitial bool) files.WarehouseSettings {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("translation.csv", "Colour,Model,SKU(front),SKU(rear)\nBlue,SES,1,2\n")
	write("traversal.csv", "A,0,0,0,1\nA,0,0,1,2\n")
	write("events.txt", "Order SES Blue\nPicker Alice ready\nForklift Bob ready\n")
	if withInitial {
		write("initial.csv", "A,0,0,0,7\n")
	}
	return files.WarehouseSettings{
		Events:      "events.txt",
		Initial:     "initial.csv",
		Traversal:   "traversal.csv",
		Translation: "translation.csv",
		Directory:   dir,
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWarehouseActivity(t *testing.T) {
	repo := &mockRunRepo{}
	acts := newTestActivities(repo)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.RunWarehouse)

	out := filepath.Join(t.TempDir(), "out")
	val, err := env.ExecuteActivity(acts.RunWarehouse, RunWarehouseInput{
		RunID:     "run-1",
		Warehouse: 2,
		Settings:  writeWarehouse(t, true),
		OutputDir: out,
	})
	require.NoError(t, err)

	var result RunWarehouseResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, 2, result.Warehouse)
	assert.Equal(t, filepath.Join(out, "final2.csv"), result.FinalPath)
	assert.Equal(t, filepath.Join(out, "orders2.csv"), result.OrdersPath)
	assert.Equal(t, 0, result.Shipped)
	assert.Equal(t, 1, result.Stats.EventsApplied)
	assert.Equal(t, 1, result.Stats.OrdersAccepted)
	assert.Equal(t, 1, result.Stats.EventsUnavailable)
	assert.Equal(t, 1, result.Stats.MalformedLines)

	assert.Equal(t, "A,0,0,0,7\nA,0,0,1,30\n", readOutput(t, result.FinalPath))
	assert.Equal(t, "", readOutput(t, result.OrdersPath))

	require.Len(t, repo.saved, 1)
	assert.Equal(t, "run-1", repo.saved[0].RunID)
}

func TestRunWarehouseActivity_MissingInitialStock(t *testing.T) {
	acts := newTestActivities(nil)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.RunWarehouse)

	val, err := env.ExecuteActivity(acts.RunWarehouse, RunWarehouseInput{
		RunID:     "run-1",
		Settings:  writeWarehouse(t, false),
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	var result RunWarehouseResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, "A,0,0,0,30\nA,0,0,1,30\n", readOutput(t, result.FinalPath))
}

func TestRunWarehouseActivity_OptionsApplied(t *testing.T) {
	acts := newTestActivities(nil)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.RunWarehouse)

	val, err := env.ExecuteActivity(acts.RunWarehouse, RunWarehouseInput{
		RunID:          "run-1",
		Settings:       writeWarehouse(t, true),
		OutputDir:      t.TempDir(),
		OrderBatchSize: 1,
	})
	require.NoError(t, err)

	var result RunWarehouseResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, 1, result.Stats.PickRequests)
	// a pick request was waiting, so the picker got a job
	assert.Equal(t, 2, result.Stats.EventsApplied)
	assert.Equal(t, 0, result.Stats.EventsUnavailable)
}

func TestRunWarehouseActivity_InvalidSettingsNotRetried(t *testing.T) {
	acts := newTestActivities(nil)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.RunWarehouse)

	tests := []struct {
		name   string
		mutate func(*files.WarehouseSettings)
	}{
		{"bad events name", func(s *files.WarehouseSettings) { s.Events = "events.csv" }},
		{"missing directory", func(s *files.WarehouseSettings) { s.Directory = filepath.Join(s.Directory, "nope") }},
		{"missing traversal", func(s *files.WarehouseSettings) { s.Traversal = "other.csv" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := writeWarehouse(t, true)
			tt.mutate(&settings)

			_, err := env.ExecuteActivity(acts.RunWarehouse, RunWarehouseInput{
				RunID:     "run-1",
				Settings:  settings,
				OutputDir: t.TempDir(),
			})
			require.Error(t, err)

			var appErr *temporal.ApplicationError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, ErrTypeInvalidWarehouse, appErr.Type())
			assert.True(t, appErr.NonRetryable())
		})
	}
}

func TestRunWarehouseActivity_ArchiveFailureIsRetryable(t *testing.T) {
	acts := newTestActivities(&mockRunRepo{saveErr: errors.New("mongo down")})

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.RunWarehouse)

	out := t.TempDir()
	_, err := env.ExecuteActivity(acts.RunWarehouse, RunWarehouseInput{
		RunID:     "run-1",
		Settings:  writeWarehouse(t, true),
		OutputDir: out,
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "mongo down")

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		assert.False(t, appErr.NonRetryable())
	}
	assert.FileExists(t, files.FinalPath(out, 0))
}
