// Package main is the entry point for the Sentinel alert engine.
// It wires the metric source, evaluator, history store, and manager,
// then serves the management API until a shutdown signal arrives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"sentinel-go/internal/api"
	"sentinel-go/internal/banner"
	"sentinel-go/internal/channel"
	"sentinel-go/internal/config"
	"sentinel-go/internal/domain"
	"sentinel-go/internal/evaluator"
	"sentinel-go/internal/history"
	"sentinel-go/internal/metricsource"
	"sentinel-go/internal/monitor"
	"sentinel-go/internal/queue"
	kafkaqueue "sentinel-go/internal/queue/kafka"
	memoryqueue "sentinel-go/internal/queue/memory"
	"sentinel-go/internal/store"
	memorystor "sentinel-go/internal/store/memory"
	postgresstor "sentinel-go/internal/store/postgres"
	redisstor "sentinel-go/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	banner.Print()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Restore history from the last snapshot, if any
	if err := deps.manager.RestoreHistory(ctx); err != nil {
		logger.Warn("failed to restore history snapshot", "error", err)
	}

	// Start periodic monitoring
	if cfg.Monitor.AutoStart {
		if err := deps.manager.StartMonitoring(ctx); err != nil {
			logger.Error("failed to start monitoring", "error", err)
			os.Exit(1)
		}
	}

	// Tail the lifecycle event stream into the audit log
	go func() {
		if err := deps.events.Start(ctx, auditEvents(logger)); err != nil && ctx.Err() == nil {
			logger.Error("event consumer error", "error", err)
		}
	}()

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("Sentinel started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
		"rules", len(deps.manager.Rules()),
		"monitoring", deps.manager.Running(),
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	deps.manager.StopMonitoring()

	logger.Info("Sentinel stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server  *api.Server
	manager *monitor.Manager
	events  queue.Consumer
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		snapshots    store.SnapshotStore
		archive      store.ArchiveRepository
		producer     queue.Producer
		consumer     queue.Consumer
		cleanupFuncs []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		snapshots = memorystor.NewSnapshotStore()
		archive = memorystor.NewArchiveRepository()

		memQueue := memoryqueue.NewQueue(10000)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		archive = postgresstor.NewArchiveRepository(db)

		// Initialize Redis
		redisStore, err := redisstor.NewSnapshotStore(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		snapshots = redisStore
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisStore.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	clk := clock.New()

	// The engine watches its own process registry; external scrapes go
	// through the same Gatherer seam.
	source := metricsource.NewGathererSource(prometheus.DefaultGatherer, clk)

	manager := monitor.NewManager(monitor.Deps{
		Source:    source,
		Evaluator: evaluator.New(clk, logger),
		History:   history.New(clk),
		Producer:  producer,
		Snapshots: snapshots,
		Archive:   archive,
		Clock:     clk,
		Logger:    logger,
	}, monitor.Options{
		Interval:        cfg.Monitor.Interval,
		BatchAlerts:     cfg.Monitor.BatchAlerts,
		BatchWindow:     cfg.Monitor.BatchWindow,
		CleanupInterval: cfg.Monitor.CleanupInterval,
		Retention:       cfg.Monitor.Retention,
	})

	// Register the built-in rule set
	if cfg.Monitor.DefaultRules {
		for _, rule := range domain.DefaultRules() {
			if err := manager.AddRule(rule); err != nil {
				return nil, nil, err
			}
		}
	}

	// Register notification channels
	if cfg.Channels.Log {
		manager.AddChannel(channel.NewLog(logger))
	}
	for _, wh := range cfg.Channels.Webhooks {
		manager.AddChannel(channel.NewWebhook(wh.Name, wh.URL))
	}

	// Initialize API handlers
	ruleHandler := api.NewRuleHandler(manager, logger)
	alertHandler := api.NewAlertHandler(manager, logger)
	monitorHandler := api.NewMonitorHandler(context.Background(), manager, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:         &cfg.Server,
		Logger:         logger,
		RuleHandler:    ruleHandler,
		AlertHandler:   alertHandler,
		MonitorHandler: monitorHandler,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:  server,
		manager: manager,
		events:  consumer,
	}, cleanup, nil
}

// auditEvents returns a handler that writes lifecycle events from the
// event stream to the structured audit log.
func auditEvents(logger *slog.Logger) queue.MessageHandler {
	return func(ctx context.Context, msg *queue.Message) error {
		var event domain.AlertEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("malformed lifecycle event", "error", err)
			return nil
		}
		logger.Info("alert lifecycle event",
			"type", event.Type,
			"alertID", event.AlertID,
			"ruleID", event.RuleID,
			"severity", event.Severity,
			"actor", event.Actor)
		return nil
	}
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
