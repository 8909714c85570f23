package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/events"
	"github.com/wms-platform/fulfillment-simulator/internal/infrastructure/files"
	mongoRepo "github.com/wms-platform/fulfillment-simulator/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-simulator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-simulator/pkg/kafka"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/metrics"
	"github.com/wms-platform/fulfillment-simulator/pkg/mongodb"
)

const serviceName = "fulfillment-simulator"

// errNothingSimulated is returned when every warehouse was skipped
var errNothingSimulated = errors.New("no warehouse could be simulated")

func main() {
	envErr := loadDotEnv()
	config := loadConfig(os.Args[1:])

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(config.LogLevel)
	logger := logging.New(logConfig)
	logger.SetDefault()
	if envErr != nil {
		logger.WithError(envErr).Warn("Ignoring unreadable .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	publisher, err := events.NewPublisher(events.Config{Kafka: config.Kafka, ValidateContracts: config.ValidateEvents}, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	var runs domain.RunRepository
	if config.MongoDB != nil {
		client, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			os.Exit(1)
		}
		defer client.Close(context.Background())

		repo, err := mongoRepo.NewRunRepository(ctx, client)
		if err != nil {
			logger.WithError(err).Error("Failed to prepare run archive")
			os.Exit(1)
		}
		runs = repo
		logger.Info("Archiving results to MongoDB", "database", config.MongoDB.Database)
	}

	simulation := application.NewSimulationService(
		publisher,
		runs,
		cloudevents.NewEventFactory(cloudevents.SourceSimulator),
		m,
		logger,
	)

	if err := run(ctx, config, simulation, logger); err != nil {
		logger.WithError(err).Error("Simulation failed")
		os.Exit(1)
	}
}

// run simulates every warehouse of the settings file. A warehouse whose
// settings or files are unusable is skipped; the others still run.
func run(ctx context.Context, config *Config, simulation *application.SimulationService, logger *logging.Logger) error {
	settings, err := resolveSettings(config, logger)
	if err != nil {
		return err
	}

	runID := config.RunID
	if runID == "" {
		runID = application.NewRunID()
	}
	logger = logger.WithRunID(runID)
	logger.Info("Starting simulation", "warehouses", len(settings.Warehouses), "output", config.OutputDir)

	var opts []domain.WarehouseOption
	if settings.OrderBatchSize > 0 {
		opts = append(opts, domain.WithOrderBatchSize(settings.OrderBatchSize))
	}
	if settings.TruckSize > 0 {
		opts = append(opts, domain.WithTruckSize(settings.TruckSize))
	}

	simulated := 0
	for number, ws := range settings.Warehouses {
		wlogger := logger.WithWarehouse(number)

		input, err := files.Load(ws, wlogger)
		if err != nil {
			wlogger.WithError(err).Error("Skipping warehouse", "directory", ws.Directory)
			continue
		}

		start := time.Now()
		result, err := simulation.Simulate(ctx, application.RunWarehouseCommand{
			RunID:     runID,
			Warehouse: number,
			Tables:    input.Tables,
			Script:    input.Script,
			Options:   opts,
		})
		if result == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wlogger.WithError(err).Error("Skipping warehouse")
			continue
		}
		if err != nil {
			wlogger.WithError(err).Warn("Result not archived")
		}

		final, orders, err := files.WriteResult(config.OutputDir, result)
		if err != nil {
			wlogger.WithError(err).Error("Failed to write warehouse output")
			continue
		}
		simulated++
		wlogger.Performance(ctx, "simulate_warehouse", time.Since(start), true, map[string]any{
			"final":  final,
			"orders": orders,
		})
	}

	if simulated == 0 {
		return errNothingSimulated
	}
	logger.Info("Simulation completed", "simulated", simulated, "skipped", len(settings.Warehouses)-simulated)
	return nil
}

// resolveSettings loads the settings file, or falls back to a single demo
// warehouse in the working directory when the default file is absent
func resolveSettings(config *Config, logger *logging.Logger) (*files.Settings, error) {
	if !files.ValidSettingsName(config.SettingsFile) {
		return nil, fmt.Errorf("settings file %q must be a .txt or .yaml file", config.SettingsFile)
	}

	_, err := os.Stat(config.SettingsFile)
	if errors.Is(err, os.ErrNotExist) && config.SettingsFile == files.DefaultSettingsFile {
		dir, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		logger.Warn("No settings file, running the demo warehouse", "directory", dir)
		return files.DemoSettings(dir), nil
	}

	return files.LoadSettings(config.SettingsFile, filepath.Dir(config.SettingsFile))
}

// Config holds simulator configuration
type Config struct {
	SettingsFile   string
	OutputDir      string
	RunID          string
	LogLevel       string
	ValidateEvents bool
	Kafka          *kafka.Config
	MongoDB        *mongodb.Config
}

func loadConfig(args []string) *Config {
	config := &Config{}

	fs := flag.NewFlagSet(serviceName, flag.ExitOnError)
	fs.StringVar(&config.SettingsFile, "settings", files.DefaultSettingsFile, "settings file listing the warehouses to simulate")
	fs.StringVar(&config.OutputDir, "out", ".", "directory for final<N>.csv and orders<N>.csv")
	fs.StringVar(&config.RunID, "run-id", getEnv("RUN_ID", ""), "run id; generated when empty")
	fs.StringVar(&config.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&config.ValidateEvents, "validate-events", getEnv("VALIDATE_EVENTS", "false") == "true", "check events against their contracts before publishing")
	_ = fs.Parse(args)

	if brokers := kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")); len(brokers) > 0 {
		config.Kafka = kafka.DefaultConfig()
		config.Kafka.Brokers = brokers
		config.Kafka.ClientID = serviceName
	}
	if uri := getEnv("MONGODB_URI", ""); uri != "" {
		config.MongoDB = mongodb.DefaultConfig()
		config.MongoDB.URI = uri
		config.MongoDB.Database = getEnv("MONGODB_DATABASE", config.MongoDB.Database)
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
