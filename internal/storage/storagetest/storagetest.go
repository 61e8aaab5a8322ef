// Package storagetest opens throwaway databases for tests.
package storagetest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Tanishka82/nexa-app/internal/storage"
)

// SQLite returns a migrated database in a fresh file under t.TempDir(). A
// single connection serializes writers the way a real unique index would
// between processes.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "nexa.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to access sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := storage.Migrate(context.Background(), db); err != nil {
		tb.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db
}

// Postgres returns a migrated database from TEST_POSTGRES_DSN with every
// table emptied, or skips the test when the variable is unset.
func Postgres(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open postgres: %v", err)
	}
	if err := storage.Migrate(context.Background(), db); err != nil {
		tb.Fatalf("failed to migrate postgres: %v", err)
	}
	for _, m := range storage.Models() {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			tb.Fatalf("failed to truncate: %v", err)
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		tb.Cleanup(func() { _ = sqlDB.Close() })
	}
	return db
}
