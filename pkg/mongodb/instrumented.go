package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/tracing"
)

const dbSystem = "mongodb"

// InstrumentedClient adds spans, operation metrics and query logs to a Client.
// Metrics and logger may be nil.
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer(dbSystem),
	}
}

func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Collection(name),
		client:     c,
	}
}

func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings inside a span
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	return tracing.TracedVoidOperation(ctx, c.tracer, "mongodb.ping", c.client.HealthCheck,
		tracing.DatabaseSpanAttributes(dbSystem, c.client.config.Database, "ping", "")...)
}

// InstrumentedCollection is a collection whose every call is observed
type InstrumentedCollection struct {
	collection *mongo.Collection
	client     *InstrumentedClient
}

// observe runs call inside a client span, then records duration and outcome.
// affected reports how many documents the result touched.
func observe[T any](ctx context.Context, c *InstrumentedCollection, operation string, call func(context.Context) (T, error), affected func(T) int64) (T, error) {
	name := c.collection.Name()
	ctx, span := c.client.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(dbSystem, c.client.client.config.Database, operation, name)...),
	)
	defer span.End()

	start := time.Now()
	result, err := call(ctx)
	elapsed := time.Since(start)

	var rows int64
	if err == nil {
		rows = affected(result)
		span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	if c.client.metrics != nil {
		c.client.metrics.RecordMongoDBOperation(name, operation, err == nil, elapsed)
	}
	if c.client.logger != nil {
		c.client.logger.DatabaseQuery(ctx, name, operation, elapsed, err == nil, rows)
	}
	tracing.RecordResult(span, err)
	return result, err
}

func (c *InstrumentedCollection) ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	return observe(ctx, c, "replaceOne", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return c.collection.ReplaceOne(ctx, filter, replacement, opts...)
	}, func(r *mongo.UpdateResult) int64 { return r.ModifiedCount + r.UpsertedCount })
}

// FindOne counts a missing document as a successful lookup of zero rows
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	result, _ := observe(ctx, c, "findOne", func(ctx context.Context) (*mongo.SingleResult, error) {
		res := c.collection.FindOne(ctx, filter, opts...)
		if err := res.Err(); err != nil && !IsNotFound(err) {
			return res, err
		}
		return res, nil
	}, func(r *mongo.SingleResult) int64 {
		if r.Err() != nil {
			return 0
		}
		return 1
	})
	return result
}

func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return observe(ctx, c, "find", func(ctx context.Context) (*mongo.Cursor, error) {
		return c.collection.Find(ctx, filter, opts...)
	}, func(*mongo.Cursor) int64 { return 0 })
}

func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error) {
	return observe(ctx, c, "createIndexes", func(ctx context.Context) ([]string, error) {
		return c.collection.Indexes().CreateMany(ctx, models)
	}, func(names []string) int64 { return int64(len(names)) })
}

func (c *InstrumentedCollection) Name() string {
	return c.collection.Name()
}
