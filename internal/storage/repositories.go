package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/gitport/gitport/internal/models"
)

// UpsertRepository inserts or updates a repository keyed by (user_id, url).
// The caller normalizes the URL before handing it over. The write is a
// single atomic insert-or-update against the unique index, so concurrent
// upserts for the same key cannot fail on a duplicate key. On an existing
// key, only externally sourced metadata is refreshed; identity and the
// fields derived from the original URL stay as first stored.
func (d *Database) UpsertRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error) {
	if repo.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if repo.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	now := time.Now()

	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "url"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_private":  repo.IsPrivate,
				"description": repo.Description,
				"language":    repo.Language,
				"stars":       repo.Stars,
				"forks":       repo.Forks,
				"size":        repo.Size,
				"updated_at":  now,
			}),
		}).
		Create(repo).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert repository: %w", err)
	}

	// On conflict the generated ID never entered the table; re-read by the
	// natural key so the caller always sees the stored row.
	var stored models.Repository
	err = d.db.WithContext(ctx).
		Where("user_id = ? AND url = ?", repo.UserID, repo.URL).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load upserted repository: %w", err)
	}
	return &stored, nil
}

// GetRepository retrieves a repository by ID scoped to its owner. A row
// owned by another user is indistinguishable from a missing one.
func (d *Database) GetRepository(ctx context.Context, userID, id string) (*models.Repository, error) {
	var repo models.Repository
	err := d.db.WithContext(ctx).
		Scopes(WithUser(userID)).
		Where("id = ?", id).
		First(&repo).Error
	if isNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return &repo, nil
}

// RepositoryWithMigration pairs a repository with its most recent migration,
// if any, for the repository list view.
type RepositoryWithMigration struct {
	Repository    models.Repository
	LastMigration *models.Migration
}

// ListRepositories returns a user's repositories ordered most-recently-
// updated first, optionally filtered by platform, each annotated with the
// latest migration that used it as a source.
func (d *Database) ListRepositories(ctx context.Context, userID string, platform models.Platform, limit int) ([]RepositoryWithMigration, error) {
	var repos []models.Repository
	query := d.db.WithContext(ctx).
		Scopes(WithUser(userID), WithUpdatedOrdering())
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&repos).Error; err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	result := make([]RepositoryWithMigration, 0, len(repos))
	for _, repo := range repos {
		var last models.Migration
		err := d.db.WithContext(ctx).
			Where("source_repo_id = ?", repo.ID).
			Order("created_at DESC").
			First(&last).Error
		if isNotFoundError(err) {
			result = append(result, RepositoryWithMigration{Repository: repo})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get last migration for repository: %w", err)
		}
		m := last
		result = append(result, RepositoryWithMigration{Repository: repo, LastMigration: &m})
	}

	return result, nil
}

// CountRepositories returns the number of repositories a user has connected.
func (d *Database) CountRepositories(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Repository{}).
		Scopes(WithUser(userID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count repositories: %w", err)
	}
	return count, nil
}
