// Package databasetest opens throwaway databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"acquittals/pkg/config"
	"acquittals/pkg/database"

	"gorm.io/gorm"
)

// Open returns a migrated SQLite database in a per-test temp directory.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Database{
		Type:            "sqlite",
		DSN:             filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		ConnectionLimit: 4,
		LogLevel:        "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
