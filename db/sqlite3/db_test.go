package sqlite3_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithForeignKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		dsn      string
		expected string
	}{
		{
			name:     "plain file",
			dsn:      "posthub.db",
			expected: "posthub.db?_pragma=foreign_keys(1)",
		},
		{
			name:     "existing query",
			dsn:      "file:posthub.db?cache=shared",
			expected: "file:posthub.db?cache=shared&_pragma=foreign_keys(1)",
		},
		{
			name:     "already enabled",
			dsn:      "file::memory:?_pragma=foreign_keys(1)",
			expected: "file::memory:?_pragma=foreign_keys(1)",
		},
		{
			name:     "explicitly disabled is kept",
			dsn:      "file::memory:?_pragma=foreign_keys(0)",
			expected: "file::memory:?_pragma=foreign_keys(0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, sqlite3.WithForeignKeys(tt.dsn))
		})
	}
}

func memoryDSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
}

func TestNewDBEnforcesForeignKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("pragma missing from dsn", func(t *testing.T) {
		t.Parallel()

		db, err := sqlite3.NewDB(ctx, memoryDSN())
		require.NoError(t, err)

		t.Cleanup(func() {
			_ = db.Close()
		})

		var enabled int

		err = db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled)
		require.NoError(t, err)
		assert.Equal(t, 1, enabled)

		err = sqlite3.MigrateUp(ctx, db)
		require.NoError(t, err)

		_, err = db.ExecContext(ctx,
			"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ('s', 'nobody', datetime(), datetime())",
		)
		require.Error(t, err)
	})

	t.Run("pragma disabled in dsn", func(t *testing.T) {
		t.Parallel()

		_, err := sqlite3.NewDB(ctx, memoryDSN()+"&_pragma=foreign_keys(0)")
		require.ErrorIs(t, err, sqlite3.ErrForeignKeysDisabled)
	})
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, memoryDSN())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))
	require.NoError(t, sqlite3.MigrateDown(ctx, db))

	var tables int

	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'posts', 'comments', 'votes')",
	).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 0, tables)

	require.NoError(t, sqlite3.MigrateUp(ctx, db))
	require.NoError(t, sqlite3.MigrateDown(ctx, db))
}
