package database_test

import (
	"context"
	"testing"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: soundmap.Tables{Sounds: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig(tableName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func setupTestDBWithMigration(t *testing.T, tableName string) database.Database {
	t.Helper()
	ctx := context.Background()

	db := setupTestDB(t, tableName)

	err := db.Migrate(ctx)
	require.NoError(t, err)

	return db
}

// Tests for Connect routing logic

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "test_sounds")

	err := db.Ping(ctx)
	assert.NoError(t, err)
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := database.Config{
		Type:   "invalid",
		DSN:    "whatever",
		Tables: soundmap.Tables{Sounds: "test_sounds"},
	}

	_, err := database.Connect(ctx, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_EmptyType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := database.Config{
		Type:   "",
		DSN:    ":memory:",
		Tables: soundmap.Tables{Sounds: "test_sounds"},
	}

	_, err := database.Connect(ctx, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_InvalidTable(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig("Bad-Name")
	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}

// Tests for Database interface methods

func TestDatabase_Migrate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "migrate_test")

	err := db.Migrate(ctx)
	require.NoError(t, err)

	repo := db.GetRepo()
	require.NotNil(t, repo)

	_, err = repo.ListAll(ctx)
	assert.NoError(t, err)
}

func TestDatabase_Migrate_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "migrate_idem_test")

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
}

func TestDatabase_Validate_BeforeMigration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "validate_before_test")

	err := db.Validate(ctx)
	assert.Error(t, err, "validate should fail without tables")
}

func TestDatabase_Validate_AfterMigration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDBWithMigration(t, "validate_after_test")

	err := db.Validate(ctx)
	assert.NoError(t, err, "validate should pass after migration")
}

func TestDatabase_GetRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDBWithMigration(t, "getrepo_test")

	repo := db.GetRepo()
	require.NotNil(t, repo)

	s, err := repo.Insert(ctx, soundmap.NewSound{
		Latitude:  40.4,
		Longitude: -3.7,
		Filename:  "sound-x.mp4",
		URL:       "http://localhost/media/sound-x.mp4",
		Enabled:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "sound-x.mp4", s.Filename)
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

// Note: Postgres-specific tests are in database/postgres package.
// The Connect function's postgres routing is implicitly tested there.
