package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the variable holding the integration-test database DSN
const TestDSNEnv = "ARB_HEDGER_TEST_DATABASE_URL"

// SetupTestDB connects to the integration database and applies migrations.
// The test is skipped when TestDSNEnv is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping database integration test", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

// TruncateAll empties every application table
func TruncateAll(t *testing.T, db *DB) {
	t.Helper()
	_, err := db.pool.Exec(context.Background(),
		"TRUNCATE quotes, markets, opportunities, hedge_suggestions, user_bets, job_runs")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
