package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsSuperuser  bool
	RegisteredAt time.Time
}

type UserRepository interface {
	Insert(ctx context.Context, user *User, profile *Profile) (err error)
	Find(ctx context.Context, userID string) (user *User, err error)
	FindByUsername(ctx context.Context, username string) (user *User, err error)
	SetSuperuser(ctx context.Context, userID string, isSuperuser bool) (err error)
	FindProfile(ctx context.Context, userID string) (profile *Profile, err error)
	UpdateProfile(ctx context.Context, profile *Profile) (err error)
}

type UserNotFoundError struct {
	ID string
}

func (err UserNotFoundError) Error() string {
	return fmt.Sprintf("user with id %q not found", err.ID)
}

type UserByUsernameNotFoundError struct {
	Username string
}

func (err UserByUsernameNotFoundError) Error() string {
	return fmt.Sprintf("user with username %q not found", err.Username)
}

type UserAlreadyExistsError struct {
	Username string
}

func (err UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with username %q already exists", err.Username)
}

type InvalidCredentialsInputError struct {
	Reason string
}

func (err InvalidCredentialsInputError) Error() string {
	return "invalid credentials input: " + err.Reason
}

var ErrCurrentUserNotFound = errors.New("current user not found")
