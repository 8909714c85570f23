package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	wmsmongo "github.com/wms-platform/fulfillment-simulator/pkg/mongodb"
)

// MongoDBContainer wraps a testcontainers MongoDB instance
type MongoDBContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// NewMongoDBContainer starts a MongoDB testcontainer
func NewMongoDBContainer(ctx context.Context) (*MongoDBContainer, error) {
	mongoContainer, err := mongodb.Run(ctx,
		"mongo:6",
		mongodb.WithUsername("test"),
		mongodb.WithPassword("test"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		_ = mongoContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MongoDBContainer{
		Container: mongoContainer,
		URI:       uri,
	}, nil
}

// Close terminates the MongoDB container
func (m *MongoDBContainer) Close(ctx context.Context) error {
	if m.Container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(m.Container, testcontainers.StopContext(ctx))
}

// Config returns a client configuration for database on the container
func (m *MongoDBContainer) Config(database string) *wmsmongo.Config {
	cfg := wmsmongo.DefaultConfig()
	cfg.URI = m.URI
	cfg.Database = database
	cfg.ConnectTimeout = 10 * time.Second
	return cfg
}

// NewClient connects the production client stack to the container
func (m *MongoDBContainer) NewClient(ctx context.Context, database string) (*wmsmongo.CircuitBreakerClient, error) {
	client, err := wmsmongo.NewProductionClient(ctx, m.Config(database), metrics.New(metrics.DefaultConfig("test")), logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb container: %w", err)
	}
	return client, nil
}
