package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gitport/gitport/internal/models"
)

// Aggregation queries backing the dashboard. Everything is computed per
// call against the store; freshness wins over caching at this data scale.

// CountMigrationsByStatus groups a user's migrations by status.
func (d *Database) CountMigrationsByStatus(ctx context.Context, userID string) (map[models.MigrationStatus]int64, error) {
	type statusCount struct {
		Status models.MigrationStatus
		Count  int64
	}

	var rows []statusCount
	err := d.db.WithContext(ctx).
		Model(&models.Migration{}).
		Select("status, COUNT(*) as count").
		Scopes(WithUser(userID)).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count migrations by status: %w", err)
	}

	counts := make(map[models.MigrationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumCompletedMigratedSize totals the bytes transferred by a user's
// completed migrations.
func (d *Database) SumCompletedMigratedSize(ctx context.Context, userID string) (models.ByteSize, error) {
	var total int64
	err := d.db.WithContext(ctx).
		Model(&models.Migration{}).
		Select("COALESCE(SUM(migrated_size), 0)").
		Scopes(WithUser(userID)).
		Where("status = ?", models.StatusCompleted).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum migrated size: %w", err)
	}
	return models.ByteSize(total), nil
}

// MigrationHistoryEntry is the projection used for the dashboard's 30-day
// activity chart.
type MigrationHistoryEntry struct {
	Status      models.MigrationStatus `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}

// MigrationHistory returns a user's migrations created within the trailing
// 30 days, at calendar-day granularity, oldest first. The lower bound is
// the start of the day 30 days before now, inclusive.
func (d *Database) MigrationHistory(ctx context.Context, userID string, now time.Time) ([]MigrationHistoryEntry, error) {
	cutoff := now.AddDate(0, 0, -30)
	dayStart := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	var entries []MigrationHistoryEntry
	err := d.db.WithContext(ctx).
		Model(&models.Migration{}).
		Select("status, created_at, completed_at").
		Scopes(WithUser(userID)).
		Where("created_at >= ?", dayStart).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get migration history: %w", err)
	}
	return entries, nil
}

// RecentMigrations returns a user's newest migrations with their source
// repository loaded, for the dashboard's activity feed.
func (d *Database) RecentMigrations(ctx context.Context, userID string, limit int) ([]models.Migration, error) {
	var migrations []models.Migration
	err := d.db.WithContext(ctx).
		Preload("SourceRepository").
		Scopes(WithUser(userID), WithCreatedOrdering()).
		Limit(limit).
		Find(&migrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent migrations: %w", err)
	}
	return migrations, nil
}
