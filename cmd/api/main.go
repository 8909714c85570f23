package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apidocs "github.com/wms-platform/fulfillment-simulator/api"
	"github.com/wms-platform/fulfillment-simulator/internal/api"
	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/events"
	mongoRepo "github.com/wms-platform/fulfillment-simulator/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/contracts/openapi"
	"github.com/wms-platform/fulfillment-simulator/pkg/kafka"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/mongodb"
	"github.com/wms-platform/fulfillment-simulator/pkg/tracing"
)

const serviceName = "simulation-api"

func main() {
	envErr := loadDotEnv()

	// Setup logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()
	if envErr != nil {
		logger.WithError(envErr).Warn("Ignoring unreadable .env file")
	}

	logger.Info("Starting simulation API")

	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.ConfigFromEnv(serviceName)

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// Run archive is optional; without it GET /runs answers 503
	var runs domain.RunRepository
	ready := func() error { return nil }
	if config.MongoDB != nil {
		mongoClient, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			os.Exit(1)
		}
		defer mongoClient.Close(context.Background())

		repo, err := mongoRepo.NewRunRepository(ctx, mongoClient)
		if err != nil {
			logger.WithError(err).Error("Failed to prepare run archive")
			os.Exit(1)
		}
		runs = repo
		ready = func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoClient.HealthCheck(checkCtx)
		}
		logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)
	}

	publisher, err := events.NewPublisher(events.Config{Kafka: config.Kafka, ValidateContracts: config.ValidateEvents}, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	simulation := application.NewSimulationService(
		publisher,
		runs,
		cloudevents.NewEventFactory(cloudevents.SourceSimulator),
		m,
		logger,
	)
	sessions := application.NewSessionService(simulation, m, logger)

	var contract *openapi.Validator
	if config.ValidateRequests {
		contract, err = openapi.NewValidatorFromBytes(apidocs.OpenAPI)
		if err != nil {
			logger.WithError(err).Error("Failed to load OpenAPI contract")
			os.Exit(1)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		ServiceName: serviceName,
		Sessions:    sessions,
		Simulation:  simulation,
		Metrics:     m,
		Logger:      logger,
		Contract:    contract,
		Tracing:     tracingConfig.Enabled,
		Ready:       ready,

		AllowedOrigins: config.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Open sessions are finished so their results reach the archive
	sessions.CloseAll(shutdownCtx)

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr       string
	ValidateRequests bool
	ValidateEvents   bool
	AllowedOrigins   []string
	MongoDB          *mongodb.Config
	Kafka            *kafka.Config
}

func loadConfig() *Config {
	config := &Config{
		ServerAddr:       getEnv("SERVER_ADDR", ":8080"),
		ValidateRequests: getEnv("VALIDATE_REQUESTS", "true") == "true",
		ValidateEvents:   getEnv("VALIDATE_EVENTS", "false") == "true",
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	if uri := getEnv("MONGODB_URI", ""); uri != "" {
		config.MongoDB = &mongodb.Config{
			URI:            uri,
			Database:       getEnv("MONGODB_DATABASE", "wms_simulation"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		}
	}

	if brokers := kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")); len(brokers) > 0 {
		config.Kafka = &kafka.Config{
			Brokers:      brokers,
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: -1,
		}
	}
	return config
}

// loadDotEnv fills unset environment variables from ./.env when the file exists
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
