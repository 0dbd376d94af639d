package storage

import (
	"gorm.io/gorm"

	"github.com/gitport/gitport/internal/models"
)

// GORM Scopes for common query filters
// Scopes provide a clean way to compose queries

// WithUser restricts a query to rows owned by the given user.
func WithUser(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// WithMigrationStatus filters migrations by status (single or multiple).
func WithMigrationStatus(status interface{}) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch v := status.(type) {
		case models.MigrationStatus:
			if v != "" {
				return db.Where("status = ?", v)
			}
		case []models.MigrationStatus:
			if len(v) > 0 {
				return db.Where("status IN ?", v)
			}
		}
		return db
	}
}

// WithPlatform filters migrations touching a platform on either end.
func WithPlatform(platform models.Platform) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if platform != "" {
			return db.Where("(source_platform = ? OR target_platform = ?)", platform, platform)
		}
		return db
	}
}

// WithCreatedOrdering orders newest-created first.
func WithCreatedOrdering() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	}
}

// WithUpdatedOrdering orders most-recently-updated first.
func WithUpdatedOrdering() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("updated_at DESC")
	}
}

// WithPagination applies limit and offset
func WithPagination(limit, offset int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}
