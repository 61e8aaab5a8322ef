// Package storage persists cached generations and per-owner records with
// GORM on SQLite or PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

var (
	// ErrConflict is returned by inserts that hit a unique constraint.
	ErrConflict = errors.New("storage: unique constraint violation")
	// ErrNotFound is returned when a scoped lookup matches no row.
	ErrNotFound = errors.New("storage: record not found")
)

// Open connects to the configured database.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "sqlite3", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported database driver %q", cfg.Driver), nil)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   newGormLogger(cfg),
	})
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabase,
			fmt.Sprintf("failed to connect to %s", cfg.Driver), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeDatabase, "failed to access connection pool", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := Migrate(context.Background(), db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeDatabase, "auto-migration failed", err)
	}
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func newGormLogger(cfg config.DatabaseConfig) gormLogger.Interface {
	level := gormLogger.Warn
	switch strings.ToLower(cfg.LogLevel) {
	case "silent":
		level = gormLogger.Silent
	case "error":
		level = gormLogger.Error
	case "info":
		level = gormLogger.Info
	}

	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// isDuplicateKey recognizes unique violations even when the driver did not
// translate them.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func dbError(message string, err error) error {
	return apperrors.NewStorageError(apperrors.ErrCodeDatabase, message, err)
}
