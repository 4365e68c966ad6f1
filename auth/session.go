package auth

import (
	"context"
	"fmt"
	"time"
)

// Session is a login of one user. The web layer keeps only its ID in the cookie.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (session *Session) ExpiredAt(t time.Time) bool {
	return !session.ExpiresAt.After(t)
}

type SessionRepository interface {
	Insert(ctx context.Context, session *Session) (err error)
	Find(ctx context.Context, id string) (session *Session, err error)
	Delete(ctx context.Context, id string) (err error)
	// DeleteByUserID removes every session of the user and reports how many there were.
	DeleteByUserID(ctx context.Context, userID string) (deleted int64, err error)
	// DeleteExpired removes sessions that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (deleted int64, err error)
}

type SessionNotFoundError struct {
	ID string
}

func (err SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", err.ID)
}

type SessionExpiredError struct {
	ID        string
	ExpiresAt time.Time
}

func (err SessionExpiredError) Error() string {
	return fmt.Sprintf("session %q expired at %s", err.ID, err.ExpiresAt.Format(time.RFC3339))
}
