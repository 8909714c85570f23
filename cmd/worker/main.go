package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/fulfillment-simulator/internal/activities"
	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/events"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/files"
	mongoRepo "github.com/wms-platform/fulfillment-simulator/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-simulator/internal/workflows"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/kafka"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/mongodb"
	"github.com/wms-platform/fulfillment-simulator/pkg/temporal"
	"github.com/wms-platform/fulfillment-simulator/pkg/tracing"
)

const serviceName = "simulation-worker"

func main() {
	envErr := loadDotEnv()
	config := loadConfig(os.Args[1:])

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()
	if envErr != nil {
		logger.WithError(envErr).Warn("Ignoring unreadable .env file")
	}

	ctx := context.Background()

	temporalClient, err := temporal.NewClient(ctx, config.Temporal, logger.Logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort, "namespace", config.Temporal.Namespace)

	if config.SubmitSettings != "" {
		if err := submit(ctx, temporalClient, config, logger); err != nil {
			logger.WithError(err).Error("Failed to submit simulation batch")
			os.Exit(1)
		}
		return
	}

	logger.Info("Starting simulation worker")

	tracingConfig := tracing.ConfigFromEnv(serviceName)
	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	var runs domain.RunRepository
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
		logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)
	}

	publisher, err := events.NewPublisher(events.Config{Kafka: config.Kafka}, m, logger)
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
	simulationActivities := activities.NewSimulationActivities(simulation, m, logger)

	w := temporalClient.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.Simulation))

	w.RegisterWorkflowWithOptions(workflows.SimulationBatchWorkflow, workflow.RegisterOptions{
		Name: temporal.WorkflowNames.SimulationBatch,
	})
	logger.Info("Registered workflows", "workflows", []string{temporal.WorkflowNames.SimulationBatch})

	w.RegisterActivityWithOptions(simulationActivities.RunWarehouse, activity.RegisterOptions{
		Name: temporal.ActivityNames.RunWarehouse,
	})
	logger.Info("Registered activities", "activities", []string{temporal.ActivityNames.RunWarehouse})

	// Metrics endpoint
	metricsSrv := &http.Server{
		Addr:              config.MetricsAddr,
		Handler:           metricsMux(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server error")
		}
	}()

	go func() {
		if err := w.Run(nil); err != nil {
			logger.WithError(err).Error("Worker failed")
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.Simulation, "metrics", config.MetricsAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Metrics server forced to shutdown")
	}
	logger.Info("Worker stopped")
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// submit starts a batch workflow for a settings file and returns once
// Temporal accepted it. Paths are resolved here, so the worker must see the
// same filesystem.
func submit(ctx context.Context, c *temporal.Client, config *Config, logger *logging.Logger) error {
	input, err := batchInput(config)
	if err != nil {
		return err
	}

	run, err := c.StartWorkflow(ctx, input.RunID, temporal.TaskQueues.Simulation, temporal.WorkflowNames.SimulationBatch, input)
	if err != nil {
		return err
	}
	logger.WithRunID(input.RunID).Info("Simulation batch submitted",
		"workflowId", run.GetID(),
		"temporalRunId", run.GetRunID(),
		"warehouses", len(input.Warehouses),
	)
	return nil
}

func batchInput(config *Config) (workflows.SimulationBatchInput, error) {
	path, err := filepath.Abs(config.SubmitSettings)
	if err != nil {
		return workflows.SimulationBatchInput{}, err
	}
	settings, err := files.LoadSettings(path, filepath.Dir(path))
	if err != nil {
		return workflows.SimulationBatchInput{}, err
	}
	out, err := filepath.Abs(config.OutputDir)
	if err != nil {
		return workflows.SimulationBatchInput{}, err
	}

	runID := config.RunID
	if runID == "" {
		runID = application.NewRunID()
	}
	return workflows.SimulationBatchInput{
		RunID:          runID,
		Warehouses:     settings.Warehouses,
		OutputDir:      out,
		OrderBatchSize: settings.OrderBatchSize,
		TruckSize:      settings.TruckSize,
	}, nil
}

// Config holds worker configuration
type Config struct {
	Temporal    *temporal.Config
	MetricsAddr string
	MongoDB     *mongodb.Config
	Kafka       *kafka.Config

	// SubmitSettings switches the binary from worker to client mode
	SubmitSettings string
	OutputDir      string
	RunID          string
}

func loadConfig(args []string) *Config {
	config := &Config{
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  serviceName,
		},
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
	}

	fs := flag.NewFlagSet(serviceName, flag.ExitOnError)
	fs.StringVar(&config.SubmitSettings, "submit", "", "settings file to start as a batch workflow instead of running the worker")
	fs.StringVar(&config.OutputDir, "out", getEnv("OUTPUT_DIR", "."), "directory the batch writes its output files to")
	fs.StringVar(&config.RunID, "run-id", "", "workflow and run id; generated when empty")
	_ = fs.Parse(args)

	if uri := getEnv("MONGODB_URI", ""); uri != "" {
		config.MongoDB = &mongodb.Config{
			URI:            uri,
			Database:       getEnv("MONGODB_DATABASE", "wms_simulation"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    20,
			MinPoolSize:    2,
		}
	}
	if brokers := kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")); len(brokers) > 0 {
		config.Kafka = kafka.DefaultConfig()
		config.Kafka.Brokers = brokers
		config.Kafka.ClientID = serviceName
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
