package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL and resets the schema. Tests
// using it only run with INTEGRATION_TEST=true.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)

	_, err = db.pool.Exec(ctx, `DROP TABLE IF EXISTS scrape_review, scrape_run, outbox_event`)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	t.Cleanup(db.Close)
	return db
}
