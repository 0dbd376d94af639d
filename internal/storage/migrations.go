package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gitport/gitport/internal/models"
)

// CreateMigration inserts a migration together with its initial log entry in
// one transaction, so a migration is never observable without its creation
// event.
func (d *Database) CreateMigration(ctx context.Context, m *models.Migration, initialLog *models.MigrationLog) error {
	if m.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if m.SourceRepoID == "" {
		return fmt.Errorf("source repository ID is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		if initialLog != nil {
			initialLog.MigrationID = m.ID
			if err := tx.Create(initialLog).Error; err != nil {
				return fmt.Errorf("failed to create initial log: %w", err)
			}
		}
		return nil
	})
}

// GetMigration retrieves a migration by ID scoped to its owner, with both
// repository associations loaded. Another user's migration is reported as
// not found.
func (d *Database) GetMigration(ctx context.Context, userID, id string) (*models.Migration, error) {
	var m models.Migration
	err := d.db.WithContext(ctx).
		Preload("SourceRepository").
		Preload("TargetRepository").
		Scopes(WithUser(userID)).
		Where("id = ?", id).
		First(&m).Error
	if isNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get migration: %w", err)
	}
	return &m, nil
}

// MigrationFilter narrows ListMigrations results.
type MigrationFilter struct {
	Status   models.MigrationStatus
	Platform models.Platform
}

// ListMigrations returns a page of a user's migrations ordered by updated_at
// descending, along with the total count matching the filters.
func (d *Database) ListMigrations(ctx context.Context, userID string, filter MigrationFilter, limit, offset int) ([]models.Migration, int64, error) {
	filterScopes := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(WithUser(userID),
			WithMigrationStatus(filter.Status),
			WithPlatform(filter.Platform))
	}

	var total int64
	err := d.db.WithContext(ctx).
		Model(&models.Migration{}).
		Scopes(filterScopes).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count migrations: %w", err)
	}

	var migrations []models.Migration
	err = d.db.WithContext(ctx).
		Preload("SourceRepository").
		Scopes(filterScopes, WithUpdatedOrdering(), WithPagination(limit, offset)).
		Find(&migrations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list migrations: %w", err)
	}

	return migrations, total, nil
}

// UpdateMigrationState persists a status/progress mutation under an
// optimistic version check. The caller loads the record, applies the state
// machine, and hands the mutated record back; if another writer got in
// between, ErrVersionConflict is returned and the caller reloads and
// retries. Migrated counters must stay within their totals; a record that
// violates that is rejected with ErrInvalidCounters before any write.
func (d *Database) UpdateMigrationState(ctx context.Context, m *models.Migration) error {
	if m.MigratedFiles < 0 || m.MigratedSize < 0 ||
		m.MigratedFiles > m.TotalFiles || m.MigratedSize > m.TotalSize {
		return ErrInvalidCounters
	}

	result := d.db.WithContext(ctx).
		Model(&models.Migration{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"status":         m.Status,
			"progress":       m.Progress,
			"total_files":    m.TotalFiles,
			"migrated_files": m.MigratedFiles,
			"total_size":     m.TotalSize,
			"migrated_size":  m.MigratedSize,
			"started_at":     m.StartedAt,
			"completed_at":   m.CompletedAt,
			"estimated_time": m.EstimatedTime,
			"actual_time":    m.ActualTime,
			"version":        m.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update migration state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or a concurrent writer bumped the version.
		var count int64
		if err := d.db.WithContext(ctx).Model(&models.Migration{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration existence: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	m.Version++
	return nil
}

// ListPendingMigrations returns the oldest PENDING migrations up to limit,
// used by the worker to claim work in creation order.
func (d *Database) ListPendingMigrations(ctx context.Context, limit int) ([]models.Migration, error) {
	var migrations []models.Migration
	err := d.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&migrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending migrations: %w", err)
	}
	return migrations, nil
}
