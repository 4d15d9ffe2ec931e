package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), soundmap.Tables{Sounds: "sounds"}, 0)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx), "ping should succeed after connect")
}

func TestConnect_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow connect test in short mode")
	}

	ctx := context.Background()
	_, err := postgres.Connect(ctx, "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1", soundmap.Tables{Sounds: "sounds"}, 1)
	assert.ErrorIs(t, err, soundmap.ErrStoreUnavailable)
}

func TestDatabase_Migrate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("success - creates tables", func(t *testing.T) {
		tableName := "migrate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, getDSN(pool), soundmap.Tables{Sounds: tableName}, 0)
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx), "migrate should succeed")

		sounds, err := db.GetRepo().ListAll(ctx)
		assert.NoError(t, err, "repo should work after migration")
		assert.Empty(t, sounds)
	})

	t.Run("idempotent - can run multiple times", func(t *testing.T) {
		tableName := "migrate_idem_" + getRandomString(t)
		db, err := postgres.Connect(ctx, getDSN(pool), soundmap.Tables{Sounds: tableName}, 0)
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		assert.NoError(t, db.Migrate(ctx), "first migrate should succeed")
		assert.NoError(t, db.Migrate(ctx), "second migrate should succeed")
	})

	t.Run("drop tables", func(t *testing.T) {
		tables := soundmap.Tables{Sounds: "migrate_drop_" + getRandomString(t)}
		require.NoError(t, postgres.Migrate(ctx, pool, tables))
		require.NoError(t, postgres.DropTables(ctx, pool, tables))

		assert.Error(t, postgres.ValidateSchema(ctx, pool, tables))
	})
}

func TestDatabase_Validate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("success - valid schema after migrate", func(t *testing.T) {
		tableName := "validate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, getDSN(pool), soundmap.Tables{Sounds: tableName}, 0)
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx), "validate should succeed after migrate")
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getDSN(pool), soundmap.Tables{Sounds: "nonexistent_table"}, 0)
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.Error(t, db.Validate(ctx))
	})

	t.Run("error - missing columns", func(t *testing.T) {
		tableName := "incomplete_" + getRandomString(t)
		_, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (id BIGSERIAL PRIMARY KEY, filename TEXT NOT NULL)`, pgx.Identifier{tableName}.Sanitize()))
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		err = postgres.ValidateSchema(ctx, pool, soundmap.Tables{Sounds: tableName})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
	})

	t.Run("error - wrong column type", func(t *testing.T) {
		tableName := "wrongtype_" + getRandomString(t)
		_, err := pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE %s (
				id BIGSERIAL PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				latitude TEXT NOT NULL,
				longitude DOUBLE PRECISION NOT NULL,
				filename TEXT NOT NULL,
				url TEXT NOT NULL,
				description TEXT,
				enabled BOOLEAN NOT NULL
			)`, pgx.Identifier{tableName}.Sanitize()))
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		err = postgres.ValidateSchema(ctx, pool, soundmap.Tables{Sounds: tableName})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude: expected double precision, got text")
	})
}

func TestRepo_Lifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, soundmap.NewSound{
		Latitude: 51.5, Longitude: -0.12, Filename: "sound-a.mp4", URL: "http://m/sound-a.mp4", Description: "birds", Enabled: true,
	})
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, "birds", first.Description)

	second, err := repo.Insert(ctx, soundmap.NewSound{
		Latitude: 10, Longitude: 20, Filename: "sound-b.mp4", URL: "http://m/sound-b.mp4", Enabled: true,
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
	assert.Empty(t, second.Description)

	t.Run("duplicate filename rejected", func(t *testing.T) {
		_, err := repo.Insert(ctx, soundmap.NewSound{Filename: "sound-a.mp4", URL: "u"})
		assert.ErrorIs(t, err, soundmap.ErrStoreUnavailable)
	})

	t.Run("set enabled hides from public list", func(t *testing.T) {
		require.NoError(t, repo.SetEnabled(ctx, first.ID, false))

		public, err := repo.ListPublic(ctx)
		require.NoError(t, err)
		require.Len(t, public, 1)
		assert.Equal(t, second.ID, public[0].ID)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)
		assert.False(t, all[0].Enabled)

		require.NoError(t, repo.SetEnabled(ctx, first.ID, true))
	})

	t.Run("set enabled unknown id is noop", func(t *testing.T) {
		assert.NoError(t, repo.SetEnabled(ctx, 999999, false))
	})

	t.Run("fetch filename", func(t *testing.T) {
		name, err := repo.FetchFilename(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "sound-b.mp4", name)

		_, err = repo.FetchFilename(ctx, 999999)
		assert.ErrorIs(t, err, soundmap.ErrNotFound)
	})

	t.Run("list filenames", func(t *testing.T) {
		names, err := repo.ListFilenames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"sound-a.mp4", "sound-b.mp4"}, names)
	})

	t.Run("delete is idempotent and ids are not reused", func(t *testing.T) {
		require.NoError(t, repo.DeleteByID(ctx, second.ID))
		require.NoError(t, repo.DeleteByID(ctx, second.ID))

		third, err := repo.Insert(ctx, soundmap.NewSound{Filename: "sound-c.mp4", URL: "u", Enabled: true})
		require.NoError(t, err)
		assert.Greater(t, third.ID, second.ID)
	})
}
