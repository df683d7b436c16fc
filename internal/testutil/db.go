package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/reviewlens/reviewlens/internal/config"
	"github.com/reviewlens/reviewlens/internal/db"
	"github.com/reviewlens/reviewlens/internal/pkg/dbutil"
)

// OpenTestDB opens a migrated database. It uses postgres when TEST_DB_HOST is
// set and a throwaway sqlite file otherwise.
func OpenTestDB(t *testing.T) (*sql.DB, string, func()) {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: dbutil.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "reviews.db"),
	}
	if host := os.Getenv("TEST_DB_HOST"); host != "" {
		cfg = config.DatabaseConfig{
			Driver:   dbutil.DriverPostgres,
			Host:     host,
			Port:     5432,
			User:     "reviewlens",
			Password: "reviewlens_pass",
			DBName:   "reviewlens_test",
			SSLMode:  "disable",
		}
	}
	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn, cfg.Driver); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if cfg.Driver == dbutil.DriverPostgres {
		if _, err := conn.Exec("TRUNCATE reviews RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
	}
	return conn, cfg.Driver, func() {
		_ = conn.Close()
	}
}
