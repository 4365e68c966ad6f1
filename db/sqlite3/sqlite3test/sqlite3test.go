// Package sqlite3test opens isolated, migrated in-memory databases for tests.
package sqlite3test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/stretchr/testify/require"
)

// DSN returns a fresh in-memory database name with foreign keys enforced.
func DSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
}

// New returns a migrated database that lives until the test ends.
func New(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, DSN())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	return db
}
