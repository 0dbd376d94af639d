// Package worker drives PENDING migrations through the state machine. The
// actual transfer is delegated to a Runner; the worker owns claiming,
// progress persistence and terminal bookkeeping.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gitport/gitport/internal/migration"
	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/storage"
)

// ProgressReport carries a runner's progress snapshot back to the worker.
type ProgressReport struct {
	Progress      int
	TotalFiles    int64
	MigratedFiles int64
	TotalSize     models.ByteSize
	MigratedSize  models.ByteSize
}

// Validate checks the counter bounds every persisted snapshot must hold:
// no negative counters, migrated never above total.
func (p ProgressReport) Validate() error {
	if p.TotalFiles < 0 || p.MigratedFiles < 0 || p.TotalSize < 0 || p.MigratedSize < 0 {
		return fmt.Errorf("negative counter in progress report")
	}
	if p.MigratedFiles > p.TotalFiles {
		return fmt.Errorf("migrated files %d exceed total %d", p.MigratedFiles, p.TotalFiles)
	}
	if p.MigratedSize > p.TotalSize {
		return fmt.Errorf("migrated size %d exceeds total %d", p.MigratedSize, p.TotalSize)
	}
	return nil
}

// Runner executes the transfer for one migration. Implementations call
// report as they advance; the worker persists each snapshot. A non-nil
// error marks the migration FAILED.
type Runner interface {
	Run(ctx context.Context, m *models.Migration, report func(ProgressReport) error) error
}

// MigrationWorker polls for pending migrations and executes them
type MigrationWorker struct {
	runner       Runner
	storage      *storage.Database
	logger       *slog.Logger
	pollInterval time.Duration
	workers      int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active map[string]bool // Track active migrations
}

// Config configures the migration worker
type Config struct {
	Runner       Runner
	Storage      *storage.Database
	Logger       *slog.Logger
	PollInterval time.Duration
	Workers      int // Number of parallel migration workers
}

// NewMigrationWorker creates a new migration worker
func NewMigrationWorker(cfg Config) (*MigrationWorker, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	return &MigrationWorker{
		runner:       cfg.Runner,
		storage:      cfg.Storage,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		workers:      cfg.Workers,
		active:       make(map[string]bool),
	}, nil
}

// Start starts the migration worker
func (w *MigrationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.ctx != nil {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.logger.Info("Starting migration worker",
		"poll_interval", w.pollInterval,
		"workers", w.workers)

	w.wg.Add(1)
	go w.pollLoop()

	return nil
}

// Stop stops the migration worker and waits for active migrations to finish
func (w *MigrationWorker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return fmt.Errorf("worker not started")
	}
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("Migration worker stopped")
	return nil
}

// pollLoop continuously polls for pending migrations
func (w *MigrationWorker) pollLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processPendingMigrations()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Poll loop stopped")
			return
		case <-ticker.C:
			w.processPendingMigrations()
		}
	}
}

// processPendingMigrations fetches pending migrations and dispatches them
func (w *MigrationWorker) processPendingMigrations() {
	ctx := context.Background()

	w.mu.RLock()
	activeCount := len(w.active)
	w.mu.RUnlock()

	availableSlots := w.workers - activeCount
	if availableSlots <= 0 {
		return
	}

	pending, err := w.storage.ListPendingMigrations(ctx, availableSlots)
	if err != nil {
		w.logger.Error("Failed to fetch pending migrations", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	for i := range pending {
		m := pending[i]

		w.mu.Lock()
		if w.active[m.ID] {
			w.mu.Unlock()
			continue
		}
		w.active[m.ID] = true
		w.mu.Unlock()

		w.wg.Add(1)
		go w.executeMigration(&m)
	}
}

// executeMigration claims and runs a single migration
func (w *MigrationWorker) executeMigration(m *models.Migration) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		delete(w.active, m.ID)
		w.mu.Unlock()
	}()

	ctx := context.Background()

	// Claim the migration. A version conflict means another worker got it.
	if err := migration.Transition(m, models.StatusInProgress, time.Now()); err != nil {
		w.logger.Warn("Cannot start migration", "migration_id", m.ID, "error", err)
		return
	}
	if err := w.storage.UpdateMigrationState(ctx, m); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			w.logger.Debug("Migration claimed by another worker", "migration_id", m.ID)
			return
		}
		w.logger.Error("Failed to claim migration", "migration_id", m.ID, "error", err)
		return
	}

	w.appendLog(ctx, m.ID, models.LogLevelInfo, "Migration started", nil)
	w.logger.Info("Migration started", "migration_id", m.ID, "type", m.Type)

	err := w.runner.Run(w.ctx, m, func(report ProgressReport) error {
		return w.applyProgress(ctx, m, report)
	})
	if err != nil {
		w.failMigration(ctx, m, err)
		return
	}

	w.completeMigration(ctx, m)
}

// applyProgress persists a runner progress snapshot.
func (w *MigrationWorker) applyProgress(ctx context.Context, m *models.Migration, report ProgressReport) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("invalid progress report: %w", err)
	}
	if err := migration.SetProgress(m, report.Progress); err != nil {
		return err
	}
	m.TotalFiles = report.TotalFiles
	m.MigratedFiles = report.MigratedFiles
	m.TotalSize = report.TotalSize
	m.MigratedSize = report.MigratedSize

	if err := w.storage.UpdateMigrationState(ctx, m); err != nil {
		return fmt.Errorf("failed to persist progress: %w", err)
	}
	return nil
}

func (w *MigrationWorker) completeMigration(ctx context.Context, m *models.Migration) {
	if m.Progress < 100 {
		if err := migration.SetProgress(m, 100); err != nil {
			w.failMigration(ctx, m, err)
			return
		}
	}
	if err := migration.Transition(m, models.StatusCompleted, time.Now()); err != nil {
		w.failMigration(ctx, m, err)
		return
	}
	if err := w.storage.UpdateMigrationState(ctx, m); err != nil {
		w.logger.Error("Failed to persist completion", "migration_id", m.ID, "error", err)
		return
	}

	w.appendLog(ctx, m.ID, models.LogLevelSuccess, "Migration completed successfully", nil)
	w.logger.Info("Migration completed", "migration_id", m.ID)
}

func (w *MigrationWorker) failMigration(ctx context.Context, m *models.Migration, cause error) {
	detail := cause.Error()
	w.appendLog(ctx, m.ID, models.LogLevelError, "Migration failed", &detail)

	if err := migration.Transition(m, models.StatusFailed, time.Now()); err != nil {
		w.logger.Error("Cannot mark migration failed",
			"migration_id", m.ID, "status", m.Status, "error", err)
		return
	}
	if err := w.storage.UpdateMigrationState(ctx, m); err != nil {
		w.logger.Error("Failed to persist failure", "migration_id", m.ID, "error", err)
		return
	}
	w.logger.Warn("Migration failed", "migration_id", m.ID, "cause", cause)
}

func (w *MigrationWorker) appendLog(ctx context.Context, migrationID string, level models.LogLevel, message string, details *string) {
	component := "worker"
	err := w.storage.AppendLog(ctx, &models.MigrationLog{
		MigrationID: migrationID,
		Level:       level,
		Message:     message,
		Details:     details,
		Component:   &component,
	})
	if err != nil {
		w.logger.Error("Failed to append migration log",
			"migration_id", migrationID, "error", err)
	}
}
