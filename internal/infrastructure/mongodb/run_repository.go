package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/resilience"
	wmsmongo "github.com/wms-platform/fulfillment-simulator/pkg/mongodb"
)

// RunCollection is the collection name for archived run results
const RunCollection = "run_results"

type runCollection interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error)
}

// RunRepository implements domain.RunRepository for MongoDB
type RunRepository struct {
	collection runCollection
	retry      *resilience.RetryConfig
}

// NewRunRepository creates a RunRepository and ensures its indexes
func NewRunRepository(ctx context.Context, client *wmsmongo.CircuitBreakerClient) (*RunRepository, error) {
	repo := newRunRepository(client.Collection(RunCollection))
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newRunRepository(collection runCollection) *RunRepository {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = isTransient
	return &RunRepository{collection: collection, retry: retry}
}

// isTransient reports errors worth another attempt. An open circuit is not
// one of them.
func isTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

func (r *RunRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runId", Value: 1}, {Key: "warehouse", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "completedAt", Value: -1}}},
	}
	if _, err := r.collection.CreateIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create run indexes: %w", err)
	}
	return nil
}

func runFilter(runID string, warehouse int) bson.M {
	return wmsmongo.BuildFilter("runId", runID, "warehouse", warehouse)
}

// Save upserts the result of one warehouse
func (r *RunRepository) Save(ctx context.Context, result *domain.RunResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = wmsmongo.Now()
	}

	// The upsert is keyed on run and warehouse, so repeating it is safe
	opts := options.Replace().SetUpsert(true)
	err := resilience.Retry(ctx, r.retry, func() error {
		_, err := r.collection.ReplaceOne(ctx, runFilter(result.RunID, result.Warehouse), result, opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save run result: %w", err)
	}
	return nil
}

// FindByRunID returns every archived warehouse of a run, by warehouse number
func (r *RunRepository) FindByRunID(ctx context.Context, runID string) ([]*domain.RunResult, error) {
	opts := options.Find().SetSort(wmsmongo.SortMultiple(wmsmongo.SortField{Field: "warehouse"}))
	cursor, err := r.collection.Find(ctx, bson.M{"runId": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find run results: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.RunResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode run results: %w", err)
	}
	return results, nil
}

// FindOne returns one warehouse of a run, or nil when it was never archived
func (r *RunRepository) FindOne(ctx context.Context, runID string, warehouse int) (*domain.RunResult, error) {
	var result domain.RunResult
	err := r.collection.FindOne(ctx, runFilter(runID, warehouse)).Decode(&result)
	if wmsmongo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run result: %w", err)
	}
	return &result, nil
}
