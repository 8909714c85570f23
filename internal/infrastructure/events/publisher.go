package events

import (
	"fmt"

	apidocs "github.com/wms-platform/fulfillment-simulator/api"
	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/pkg/contracts/asyncapi"
	"github.com/wms-platform/fulfillment-simulator/pkg/kafka"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
)

// Config selects where simulation events go
type Config struct {
	// Kafka is nil or has no brokers when events should only be logged
	Kafka *kafka.Config
	// ValidateContracts checks every event against the AsyncAPI document
	ValidateContracts bool
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// log publisher otherwise
func NewPublisher(cfg Config, m *metrics.Metrics, logger *logging.Logger) (application.EventPublisher, error) {
	if cfg.Kafka == nil || len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, events are logged only")
		return application.NewLogPublisher(logger), nil
	}

	var opts []PublisherOption
	if cfg.ValidateContracts {
		validator, err := asyncapi.NewEventValidatorFromBytes(apidocs.AsyncAPI)
		if err != nil {
			return nil, fmt.Errorf("failed to load event contracts: %w", err)
		}
		opts = append(opts, WithContractValidation(validator))
	}

	producer := kafka.NewProductionProducer(cfg.Kafka, m, logger)
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return NewKafkaPublisher(producer, logger, opts...), nil
}
