package services

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitport/gitport/internal/config"
	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/storage"
)

func newTestServices(t *testing.T) (*MigrationService, *storage.Database) {
	t.Helper()

	db, err := storage.NewDatabase(config.DatabaseConfig{
		Type: storage.DBTypeSQLite,
		DSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.Default()
	repos := NewRepositoryService(db, logger)
	return NewMigrationService(db, repos, logger), db
}

func newTestUser(t *testing.T, db *storage.Database, email string, premium bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "$2a$10$test-hash",
		IsPremium:    premium,
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func validInput() CreateMigrationInput {
	return CreateMigrationInput{
		Title:          "widgets to gitlab",
		SourceURL:      "https://github.com/acme/widgets",
		SourcePlatform: models.PlatformGitHub,
		TargetPlatform: models.PlatformGitLab,
		Type:           models.TypeCodeOnly,
	}
}

func TestCreateMigration(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	user := newTestUser(t, db, "alice@example.com", false)

	m, err := svc.Create(ctx, user.ID, validInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, m.Status)
	assert.Equal(t, 0, m.Progress)
	assert.NotEmpty(t, m.SourceRepoID)
	assert.Equal(t, "https://github.com/acme/widgets", m.SourceURL)

	logs, err := db.ListRecentLogs(ctx, m.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogLevelInfo, logs[0].Level)
	assert.Equal(t, "Migration created and queued for processing", logs[0].Message)
}

func TestCreateMigrationInvalidURLWinsOverSamePlatform(t *testing.T) {
	svc, db := newTestServices(t)
	user := newTestUser(t, db, "alice@example.com", false)

	input := validInput()
	input.SourceURL = "not a url"
	input.TargetPlatform = input.SourcePlatform

	_, err := svc.Create(context.Background(), user.ID, input)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCreateMigrationSamePlatform(t *testing.T) {
	svc, db := newTestServices(t)
	user := newTestUser(t, db, "alice@example.com", true)

	input := validInput()
	input.TargetPlatform = models.PlatformGitHub

	_, err := svc.Create(context.Background(), user.ID, input)
	assert.ErrorIs(t, err, ErrSamePlatform)
}

func TestCreateMigrationPremiumGate(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	free := newTestUser(t, db, "free@example.com", false)
	premium := newTestUser(t, db, "premium@example.com", true)

	input := validInput()
	input.Type = models.TypeFullMirror

	_, err := svc.Create(ctx, free.ID, input)
	assert.ErrorIs(t, err, ErrPremiumRequired)

	m, err := svc.Create(ctx, premium.ID, input)
	require.NoError(t, err)
	assert.Equal(t, models.TypeFullMirror, m.Type)
}

func TestCreateMigrationDefaultsTypeFromSettings(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	user := newTestUser(t, db, "alice@example.com", false)

	settings, err := db.GetUserSettings(ctx, user.ID)
	require.NoError(t, err)
	settings.DefaultMigrationType = models.TypeWithTags
	require.NoError(t, db.UpdateUserSettings(ctx, settings))

	input := validInput()
	input.Type = ""

	m, err := svc.Create(ctx, user.ID, input)
	require.NoError(t, err)
	assert.Equal(t, models.TypeWithTags, m.Type)
}

func TestCreateMigrationReusesRepository(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	user := newTestUser(t, db, "alice@example.com", false)

	first, err := svc.Create(ctx, user.ID, validInput())
	require.NoError(t, err)

	// equivalent URL spelling keys to the same repository
	input := validInput()
	input.SourceURL = "https://github.com/acme/widgets.git"
	second, err := svc.Create(ctx, user.ID, input)
	require.NoError(t, err)

	assert.Equal(t, first.SourceRepoID, second.SourceRepoID)

	count, err := db.CountRepositories(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
