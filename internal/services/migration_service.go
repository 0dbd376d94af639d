package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/storage"
)

var (
	// ErrSamePlatform is returned when source and target platform are equal.
	ErrSamePlatform = errors.New("source and target platform must differ")

	// ErrPremiumRequired is returned when a migration type is gated behind
	// a premium entitlement the user does not have.
	ErrPremiumRequired = errors.New("migration type requires a premium account")
)

// initialLogMessage is the first entry of every migration's event stream.
const initialLogMessage = "Migration created and queued for processing"

// MigrationService registers migration intents. It never performs any
// transfer itself; the worker picks up PENDING migrations and drives the
// state machine.
type MigrationService struct {
	store        storage.DataStore
	repositories *RepositoryService
	logger       *slog.Logger
}

func NewMigrationService(store storage.DataStore, repositories *RepositoryService, logger *slog.Logger) *MigrationService {
	return &MigrationService{
		store:        store,
		repositories: repositories,
		logger:       logger,
	}
}

// CreateMigrationInput carries the parameters for Create.
type CreateMigrationInput struct {
	Title          string
	Description    *string
	SourceURL      string
	TargetURL      *string
	SourcePlatform models.Platform
	TargetPlatform models.Platform
	Type           models.MigrationType
}

// Create validates the request, upserts the source repository and registers
// a PENDING migration with its initial log entry.
//
// Validation order is fixed: URL shape first, then the platform pair, then
// the premium gate.
func (s *MigrationService) Create(ctx context.Context, userID string, input CreateMigrationInput) (*models.Migration, error) {
	sourceURL, err := NormalizeURL(input.SourceURL)
	if err != nil {
		return nil, err
	}

	if input.SourcePlatform == input.TargetPlatform {
		return nil, ErrSamePlatform
	}

	migrationType := input.Type
	if migrationType == "" {
		migrationType = models.TypeCodeOnly
		if settings, err := s.store.GetUserSettings(ctx, userID); err == nil {
			migrationType = settings.DefaultMigrationType
		}
	}

	if migrationType.RequiresPremium() {
		user, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !user.IsPremium {
			return nil, ErrPremiumRequired
		}
	}

	sourceRepo, err := s.repositories.Connect(ctx, userID, sourceURL, input.SourcePlatform)
	if err != nil {
		return nil, err
	}

	var targetURL *string
	if input.TargetURL != nil && *input.TargetURL != "" {
		normalized, err := NormalizeURL(*input.TargetURL)
		if err != nil {
			return nil, err
		}
		targetURL = &normalized
	}

	m := &models.Migration{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          input.Title,
		Description:    input.Description,
		Status:         models.StatusPending,
		Type:           migrationType,
		SourceRepoID:   sourceRepo.ID,
		SourcePlatform: input.SourcePlatform,
		TargetPlatform: input.TargetPlatform,
		SourceURL:      sourceURL,
		TargetURL:      targetURL,
		TotalSize:      sourceRepo.Size,
	}

	initialLog := &models.MigrationLog{
		Level:   models.LogLevelInfo,
		Message: initialLogMessage,
	}
	if err := s.store.CreateMigration(ctx, m, initialLog); err != nil {
		return nil, err
	}

	s.logger.Info("migration created",
		"migration_id", m.ID,
		"user_id", userID,
		"type", m.Type,
		"source_platform", m.SourcePlatform,
		"target_platform", m.TargetPlatform)
	return m, nil
}
