package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"

	"github.com/gitport/gitport/internal/api"
	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/config"
	"github.com/gitport/gitport/internal/logging"
	"github.com/gitport/gitport/internal/storage"
	"github.com/gitport/gitport/internal/worker"
)

func main() {
	// Load .env before the config layer reads the environment
	_ = gotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	logger := logging.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Initialize database
	db, err := storage.NewDatabase(cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if err := db.Migrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	jwtManager, err := auth.NewJWTManager(cfg.Auth.SessionSecret, cfg.Auth.SessionDurationHours)
	if err != nil {
		slog.Error("Failed to initialize session manager", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg, db, jwtManager, logger)

	// Cancellable context for the background worker
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	migrationWorker := initializeMigrationWorker(workerCtx, cfg, db, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	cancelWorker()
	if migrationWorker != nil {
		slog.Info("Stopping migration worker...")
		if err := migrationWorker.Stop(); err != nil {
			slog.Error("Failed to stop migration worker", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// initializeMigrationWorker creates and starts the migration worker when
// enabled. The shipped runner only simulates transfer progress; the real
// transfer integration plugs in through the worker.Runner interface.
func initializeMigrationWorker(ctx context.Context, cfg *config.Config, db *storage.Database, logger *slog.Logger) *worker.MigrationWorker {
	if !cfg.Worker.Enabled {
		logger.Info("Migration worker disabled")
		return nil
	}

	pollInterval := time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second
	migrationWorker, err := worker.NewMigrationWorker(worker.Config{
		Runner:       worker.NewSimulatedRunner(10, time.Second),
		Storage:      db,
		Logger:       logger,
		PollInterval: pollInterval,
		Workers:      cfg.Worker.Workers,
	})
	if err != nil {
		slog.Error("Failed to create migration worker", "error", err)
		return nil
	}

	if err := migrationWorker.Start(ctx); err != nil {
		slog.Error("Failed to start migration worker", "error", err)
		return nil
	}

	slog.Info("Migration worker started",
		"workers", cfg.Worker.Workers,
		"poll_interval", pollInterval)

	return migrationWorker
}
