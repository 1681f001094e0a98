package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTestDB returns a migrated SQLite database in the test's temp dir.
func NewTestDB(tb testing.TB) *sqlx.DB {
	tb.Helper()
	db, err := NewSQLite(filepath.Join(tb.TempDir(), "pantry.db"))
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}
