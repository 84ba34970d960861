package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestDB opens a migrated SQLite database in a temporary directory.
// A file is used instead of :memory: so that every pooled connection sees the same data.
func OpenTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(Config{
		Driver:       DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 8,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
