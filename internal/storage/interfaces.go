package storage

import (
	"context"
	"time"

	"github.com/gitport/gitport/internal/models"
)

// UserStore defines operations for user accounts and their settings.
// These interfaces enable dependency injection and easier testing.
type UserStore interface {
	// CreateUser creates a user with default settings.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserSettings retrieves the settings row for a user.
	GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	// UpdateUserSettings persists changes to a user's settings.
	UpdateUserSettings(ctx context.Context, settings *models.UserSettings) error
}

// RepositoryStore defines operations for repository records.
type RepositoryStore interface {
	// UpsertRepository creates or updates a repository keyed by (user, URL).
	UpsertRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error)
	// GetRepository retrieves a repository by ID scoped to its owner.
	GetRepository(ctx context.Context, userID, id string) (*models.Repository, error)
	// ListRepositories returns a user's repositories with their latest migration.
	ListRepositories(ctx context.Context, userID string, platform models.Platform, limit int) ([]RepositoryWithMigration, error)
	// CountRepositories counts a user's repositories.
	CountRepositories(ctx context.Context, userID string) (int64, error)
}

// MigrationStore defines operations for migration records.
type MigrationStore interface {
	// CreateMigration creates a migration with its initial log entry.
	CreateMigration(ctx context.Context, m *models.Migration, initialLog *models.MigrationLog) error
	// GetMigration retrieves a migration by ID scoped to its owner.
	GetMigration(ctx context.Context, userID, id string) (*models.Migration, error)
	// ListMigrations returns a filtered page of a user's migrations plus the total.
	ListMigrations(ctx context.Context, userID string, filter MigrationFilter, limit, offset int) ([]models.Migration, int64, error)
	// UpdateMigrationState persists a state mutation under an optimistic version check.
	UpdateMigrationState(ctx context.Context, m *models.Migration) error
	// ListPendingMigrations returns the oldest PENDING migrations.
	ListPendingMigrations(ctx context.Context, limit int) ([]models.Migration, error)
}

// LogStore defines operations for migration log streams.
type LogStore interface {
	// AppendLog appends an entry and bumps error/warning counters.
	AppendLog(ctx context.Context, entry *models.MigrationLog) error
	// ListRecentLogs returns the newest entries for a migration.
	ListRecentLogs(ctx context.Context, migrationID string, limit int) ([]models.MigrationLog, error)
}

// StatsStore defines the aggregation queries behind the dashboard.
type StatsStore interface {
	// CountMigrationsByStatus groups a user's migrations by status.
	CountMigrationsByStatus(ctx context.Context, userID string) (map[models.MigrationStatus]int64, error)
	// SumCompletedMigratedSize totals bytes transferred by completed migrations.
	SumCompletedMigratedSize(ctx context.Context, userID string) (models.ByteSize, error)
	// MigrationHistory returns the trailing-30-day activity projection.
	MigrationHistory(ctx context.Context, userID string, now time.Time) ([]MigrationHistoryEntry, error)
	// RecentMigrations returns a user's newest migrations.
	RecentMigrations(ctx context.Context, userID string, limit int) ([]models.Migration, error)
}

// DataStore combines every store interface the API surface depends on.
type DataStore interface {
	UserStore
	RepositoryStore
	MigrationStore
	LogStore
	StatsStore
}

// Compile-time interface checks.
// These ensure Database implements all defined interfaces.
var (
	_ UserStore       = (*Database)(nil)
	_ RepositoryStore = (*Database)(nil)
	_ MigrationStore  = (*Database)(nil)
	_ LogStore        = (*Database)(nil)
	_ StatsStore      = (*Database)(nil)
	_ DataStore       = (*Database)(nil)
)
