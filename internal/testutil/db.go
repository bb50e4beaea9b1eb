package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/insighthub/internal/config"
	"github.com/xxxsen/insighthub/internal/db"
)

// OpenTestDB opens a migrated sqlite database in a per-test temp dir.
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "insighthub_test.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
