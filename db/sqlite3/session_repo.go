package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/auth"
)

const tableSessions = "sessions"

type SessionRepository struct {
	db *sql.DB
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const (
	sessionFieldID        = "id"
	sessionFieldUserID    = "user_id"
	sessionFieldCreatedAt = "created_at"
	sessionFieldExpiresAt = "expires_at"
)

var sessionColumns = []string{
	sessionFieldID,
	sessionFieldUserID,
	sessionFieldCreatedAt,
	sessionFieldExpiresAt,
}

func (repo *SessionRepository) Insert(ctx context.Context, session *auth.Session) error {
	_, err := sq.Insert(tableSessions).
		Columns(sessionColumns...).
		Values(session.ID, session.UserID, session.CreatedAt.UTC(), session.ExpiresAt.UTC()).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec session insert: %w", err)
	}

	return nil
}

func (repo *SessionRepository) Find(ctx context.Context, id string) (*auth.Session, error) {
	var session auth.Session

	err := sq.Select(sessionColumns...).
		From(tableSessions).
		Where(sq.Eq{sessionFieldID: id}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &auth.SessionNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return &session, nil
}

func (repo *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := sq.Delete(tableSessions).
		Where(sq.Eq{sessionFieldID: id}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec session delete: %w", err)
	}

	return requireAffected(result, &auth.SessionNotFoundError{ID: id})
}

func (repo *SessionRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return repo.deleteWhere(ctx, sq.Eq{sessionFieldUserID: userID})
}

func (repo *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return repo.deleteWhere(ctx, sq.LtOrEq{sessionFieldExpiresAt: now.UTC()})
}

func (repo *SessionRepository) deleteWhere(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	result, err := sq.Delete(tableSessions).
		Where(pred).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to exec session delete: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
