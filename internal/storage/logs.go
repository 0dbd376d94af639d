package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gitport/gitport/internal/models"
)

// AppendLog appends an entry to a migration's event stream. ERROR and
// WARNING entries bump the parent migration's counters in the same
// transaction, using a SQL-side increment so concurrent appends never lose
// updates. Returns ErrNotFound if the migration does not exist.
func (d *Database) AppendLog(ctx context.Context, entry *models.MigrationLog) error {
	if entry.MigrationID == "" {
		return fmt.Errorf("migration ID is required")
	}
	if entry.Message == "" {
		return fmt.Errorf("message is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Migration{}).Where("id = ?", entry.MigrationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration existence: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append log: %w", err)
		}

		var column string
		switch entry.Level {
		case models.LogLevelError:
			column = "error_count"
		case models.LogLevelWarning:
			column = "warning_count"
		default:
			return nil
		}

		err := tx.Model(&models.Migration{}).
			Where("id = ?", entry.MigrationID).
			Update(column, gorm.Expr(column+" + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to increment %s: %w", column, err)
		}
		return nil
	})
}

// ListRecentLogs returns the newest entries for a migration, newest first.
// Timestamp ties are broken by insertion order via the auto-increment ID.
func (d *Database) ListRecentLogs(ctx context.Context, migrationID string, limit int) ([]models.MigrationLog, error) {
	var logs []models.MigrationLog
	query := d.db.WithContext(ctx).
		Where("migration_id = ?", migrationID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return logs, nil
}

// LogIterator streams a migration's full log history newest-first in fixed-
// size batches. Each Next call runs a fresh keyset query, so an iterator
// survives process restarts as long as the caller keeps the cursor.
type LogIterator struct {
	db          *Database
	migrationID string
	batchSize   int
	cursor      *logCursor
	done        bool
}

type logCursor struct {
	timestamp time.Time
	id        int64
}

// NewLogIterator creates an iterator over a migration's logs.
func (d *Database) NewLogIterator(migrationID string, batchSize int) *LogIterator {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &LogIterator{
		db:          d,
		migrationID: migrationID,
		batchSize:   batchSize,
	}
}

// Next returns the next batch of entries, or an empty slice once the stream
// is exhausted.
func (it *LogIterator) Next(ctx context.Context) ([]models.MigrationLog, error) {
	if it.done {
		return nil, nil
	}

	query := it.db.db.WithContext(ctx).
		Where("migration_id = ?", it.migrationID).
		Order("timestamp DESC, id DESC").
		Limit(it.batchSize)
	if it.cursor != nil {
		query = query.Where("timestamp < ? OR (timestamp = ? AND id < ?)",
			it.cursor.timestamp, it.cursor.timestamp, it.cursor.id)
	}

	var logs []models.MigrationLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}

	if len(logs) < it.batchSize {
		it.done = true
	}
	if len(logs) > 0 {
		last := logs[len(logs)-1]
		it.cursor = &logCursor{timestamp: last.Timestamp, id: last.ID}
	}

	return logs, nil
}
