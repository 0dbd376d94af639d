// Package storage provides the persistence layer backed by GORM. It supports
// SQLite, PostgreSQL and SQL Server through the dialect dialers and exposes
// typed operations per entity instead of raw query access.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gitport/gitport/internal/config"
	"github.com/gitport/gitport/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors returned by the storage layer. Callers detect them with
// errors.Is and map them to API error codes.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrInvalidCounters = errors.New("migrated counters exceed totals")
)

type Database struct {
	db  *gorm.DB
	cfg config.DatabaseConfig
}

func NewDatabase(cfg config.DatabaseConfig) (*Database, error) {
	// Ensure data directory exists for SQLite
	if cfg.Type == DBTypeSQLite {
		dir := filepath.Dir(cfg.DSN)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dialer, err := NewDialectDialer(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialer.Dialect(), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dialer.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &Database{
		db:  db,
		cfg: cfg,
	}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (d *Database) DB() *gorm.DB {
	return d.db
}

// Migrate creates or updates the schema for all entities.
func (d *Database) Migrate() error {
	slog.Info("Running database migrations...")

	if err := d.db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.Repository{},
		&models.Migration{},
		&models.MigrationLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

func isNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
