package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gitport/gitport/internal/models"
)

// CreateUser inserts a user together with their default settings in one
// transaction. Emails are stored lowercased; a duplicate returns
// ErrDuplicateEmail.
func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email == "" {
		return fmt.Errorf("email is required")
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing email: %w", err)
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		settings := &models.UserSettings{
			ID:                        uuid.NewString(),
			UserID:                    user.ID,
			Theme:                     "light",
			Notifications:             true,
			EmailNotifications:        true,
			AutoRetryFailedMigrations: false,
			MaxConcurrentMigrations:   2,
			DefaultMigrationType:      models.TypeCodeOnly,
		}
		if err := tx.Create(settings).Error; err != nil {
			return fmt.Errorf("failed to create user settings: %w", err)
		}

		return nil
	})
}

// GetUserByID retrieves a user by ID
func (d *Database) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if isNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if isNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetUserSettings retrieves the settings row for a user
func (d *Database) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if isNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &settings, nil
}

// UpdateUserSettings persists changes to a user's settings row. The row is
// matched by user ID, so a caller can never update another user's settings.
func (d *Database) UpdateUserSettings(ctx context.Context, settings *models.UserSettings) error {
	result := d.db.WithContext(ctx).
		Model(&models.UserSettings{}).
		Where("user_id = ?", settings.UserID).
		Updates(map[string]interface{}{
			"theme":                        settings.Theme,
			"notifications":                settings.Notifications,
			"email_notifications":          settings.EmailNotifications,
			"auto_retry_failed_migrations": settings.AutoRetryFailedMigrations,
			"max_concurrent_migrations":    settings.MaxConcurrentMigrations,
			"default_migration_type":       settings.DefaultMigrationType,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user settings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
