package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestDB represents a test database connection
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB connects to the database named by TEST_DATABASE_URL. Tests that
// call it are skipped when the variable is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")

	err = pool.Ping(ctx)
	require.NoError(t, err, "Failed to ping test database")

	return &TestDB{Pool: pool}
}

// Setup initializes the test database with required tables
func (db *TestDB) Setup(t *testing.T) {
	t.Helper()
	err := EnsureSchema(context.Background(), db.Pool)
	require.NoError(t, err, "Failed to create schema")
}

// Cleanup removes all test data from the database
func (db *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	// Reverse dependency order
	for _, table := range []string{"interactions", "zala_public", "zala_library", "posts", "content"} {
		_, err := db.Pool.Exec(ctx, "TRUNCATE "+table+" CASCADE")
		require.NoError(t, err, "Failed to truncate "+table)
	}
}

// Close closes the database connection
func (db *TestDB) Close(t *testing.T) {
	t.Helper()
	db.Pool.Close()
}

// RunTest runs a test with database setup and cleanup
func RunTest(t *testing.T, testFunc func(t *testing.T, db *TestDB)) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db := NewTestDB(t)
	defer db.Close(t)

	db.Setup(t)
	db.Cleanup(t)

	testFunc(t, db)
}
