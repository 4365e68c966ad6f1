package sqlite3

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewDB opens the database and pins the pool to a single connection. sqlite has one
// writer at a time, so transactions queue on the pool instead of failing with
// SQLITE_BUSY, and every transaction in this package is serialized.
//
// Foreign keys are switched on for every connection; deletes cascade through them.
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", WithForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open sql db: %w", err)
	}

	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping sql db: %w", err)
	}

	err = checkForeignKeys(ctx, db)
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			slog.ErrorContext(ctx, "failed to close sql db", "error", closeErr)
		}

		return nil, err
	}

	return db, nil
}

const foreignKeysPragma = "_pragma=foreign_keys(1)"

// WithForeignKeys adds the foreign_keys pragma to dsn unless dsn already sets it.
func WithForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&" + foreignKeysPragma
	}

	return dsn + "?" + foreignKeysPragma
}

var ErrForeignKeysDisabled = errors.New("sqlite foreign keys are disabled")

func checkForeignKeys(ctx context.Context, db *sql.DB) error {
	var enabled bool

	err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled)
	if err != nil {
		return fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}

	if !enabled {
		return ErrForeignKeysDisabled
	}

	return nil
}

func getMigrateInstance(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

func MigrateUp(ctx context.Context, db *sql.DB) error {
	m, err := getMigrateInstance(db)
	if err != nil {
		return fmt.Errorf("failed to get migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migration: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get current active migration version: %w", err)
	}

	slog.InfoContext(ctx, "migration applied successfully", "version", version, "dirty", dirty)

	return nil
}

// MigrateDown reverts every applied migration, leaving an empty schema.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	m, err := getMigrateInstance(db)
	if err != nil {
		return fmt.Errorf("failed to get migrate instance: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migration down: %w", err)
	}

	slog.InfoContext(ctx, "migrations reverted")

	return nil
}

// runner is satisfied by both *sql.DB and *sql.Tx, so a repository can be bound to
// either.
type runner interface {
	sq.StdSqlCtx
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			slog.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func isUniqueViolation(err error, table string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+table+".")
}

// requireAffected returns notFoundErr when result touched no rows.
func requireAffected(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFoundErr
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		slog.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
