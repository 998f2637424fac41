package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"pb-tracker/internal/database"
	"pb-tracker/internal/db"

	"github.com/rs/zerolog"
)

// OpenTestDB opens a migrated sqlite file under t.TempDir and closes it on cleanup.
func OpenTestDB(t *testing.T) (*sql.DB, *db.Queries) {
	t.Helper()

	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return sqlDB, db.New(sqlDB)
}
