package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/resilience"
)

// CircuitBreakerClient puts one breaker in front of every collection of an
// InstrumentedClient
type CircuitBreakerClient struct {
	client  *InstrumentedClient
	breaker *resilience.CircuitBreaker
}

// NewCircuitBreakerClient guards client with a breaker. A nil config uses
// DefaultCircuitBreakerConfig("mongodb").
func NewCircuitBreakerClient(client *InstrumentedClient, config *resilience.CircuitBreakerConfig, logger *logging.Logger) *CircuitBreakerClient {
	if config == nil {
		config = resilience.DefaultCircuitBreakerConfig("mongodb")
	}
	var slogger *slog.Logger
	if logger != nil {
		slogger = logger.Logger
	}
	return &CircuitBreakerClient{
		client:  client,
		breaker: resilience.NewCircuitBreaker(config, slogger),
	}
}

func (c *CircuitBreakerClient) Collection(name string) *CircuitBreakerCollection {
	return &CircuitBreakerCollection{collection: c.client.Collection(name), breaker: c.breaker}
}

func (c *CircuitBreakerClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings through the breaker, so an open breaker reports not ready
func (c *CircuitBreakerClient) HealthCheck(ctx context.Context) error {
	return c.breaker.Run(ctx, func() error {
		return c.client.HealthCheck(ctx)
	})
}

func (c *CircuitBreakerClient) CircuitBreaker() *resilience.CircuitBreaker {
	return c.breaker
}

// CircuitBreakerCollection shares its client's breaker
type CircuitBreakerCollection struct {
	collection *InstrumentedCollection
	breaker    *resilience.CircuitBreaker
}

func guard[T any](ctx context.Context, cb *resilience.CircuitBreaker, call func() (T, error)) (T, error) {
	result, err := cb.Execute(ctx, func() (interface{}, error) {
		return call()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *CircuitBreakerCollection) ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	return guard(ctx, c.breaker, func() (*mongo.UpdateResult, error) {
		return c.collection.ReplaceOne(ctx, filter, replacement, opts...)
	})
}

// FindOne does not count a missing document as a failure. A rejected call
// yields a SingleResult carrying the breaker error.
func (c *CircuitBreakerCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	var found *mongo.SingleResult
	_, err := guard(ctx, c.breaker, func() (struct{}, error) {
		found = c.collection.FindOne(ctx, filter, opts...)
		if err := found.Err(); err != nil && !IsNotFound(err) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if found != nil {
		return found
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
}

func (c *CircuitBreakerCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return guard(ctx, c.breaker, func() (*mongo.Cursor, error) {
		return c.collection.Find(ctx, filter, opts...)
	})
}

func (c *CircuitBreakerCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error) {
	return guard(ctx, c.breaker, func() ([]string, error) {
		return c.collection.CreateIndexes(ctx, models)
	})
}

func (c *CircuitBreakerCollection) Name() string {
	return c.collection.Name()
}

// NewProductionClient connects, instruments the client with m and guards it
// with a breaker whose transitions are also reported to m
func NewProductionClient(ctx context.Context, config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerClient, error) {
	base, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}

	breaker := resilience.DefaultCircuitBreakerConfig("mongodb")
	if m != nil {
		breaker.OnStateChange = resilience.RecordTransitions(m)
	}
	return NewCircuitBreakerClient(NewInstrumentedClient(base, m, logger), breaker, logger), nil
}
