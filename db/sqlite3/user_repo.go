package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/auth"
)

const (
	tableUsers    = "users"
	tableProfiles = "profiles"
)

type UserRepository struct {
	db *sql.DB
}

var _ auth.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const (
	userFieldID           = "id"
	userFieldUsername     = "username"
	userFieldPasswordHash = "password_hash"
	userFieldIsSuperuser  = "is_superuser"
	userFieldRegisteredAt = "registered_at"
)

func userColumns() []string {
	return []string{
		userFieldID,
		userFieldUsername,
		userFieldPasswordHash,
		userFieldIsSuperuser,
		userFieldRegisteredAt,
	}
}

func scanUser(row sq.RowScanner) (*auth.User, error) {
	var user auth.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsSuperuser,
		&user.RegisteredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &user, nil
}

const (
	profileFieldUserID    = "user_id"
	profileFieldBio       = "bio"
	profileFieldLocation  = "location"
	profileFieldImageURL  = "image_url"
	profileFieldIsPrivate = "is_private"
)

func profileColumns() []string {
	return []string{
		profileFieldUserID,
		profileFieldBio,
		profileFieldLocation,
		profileFieldImageURL,
		profileFieldIsPrivate,
	}
}

func (repo *UserRepository) Insert(ctx context.Context, user *auth.User, profile *auth.Profile) error {
	return withTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := sq.Insert(tableUsers).
			Columns(userColumns()...).
			Values(user.ID, user.Username, user.PasswordHash, user.IsSuperuser, user.RegisteredAt).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			if isUniqueViolation(err, tableUsers) {
				return &auth.UserAlreadyExistsError{Username: user.Username}
			}

			return fmt.Errorf("failed to exec user insert: %w", err)
		}

		_, err = sq.Insert(tableProfiles).
			Columns(profileColumns()...).
			Values(profile.UserID, profile.Bio, profile.Location, profile.ImageURL, profile.IsPrivate).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec profile insert: %w", err)
		}

		return nil
	})
}

func (repo *UserRepository) Find(ctx context.Context, userID string) (*auth.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		Where(sq.Eq{userFieldID: userID})

	q = q.RunWith(repo.db)

	row := q.QueryRowContext(ctx)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &auth.UserNotFoundError{ID: userID}
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		Where(sq.Eq{userFieldUsername: username})

	q = q.RunWith(repo.db)

	row := q.QueryRowContext(ctx)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &auth.UserByUsernameNotFoundError{Username: username}
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func (repo *UserRepository) SetSuperuser(ctx context.Context, userID string, isSuperuser bool) error {
	result, err := sq.Update(tableUsers).
		Set(userFieldIsSuperuser, isSuperuser).
		Where(sq.Eq{userFieldID: userID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &auth.UserNotFoundError{ID: userID}
	}

	return nil
}

func (repo *UserRepository) FindProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	var profile auth.Profile

	err := sq.Select(profileColumns()...).
		From(tableProfiles).
		Where(sq.Eq{profileFieldUserID: userID}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(
			&profile.UserID,
			&profile.Bio,
			&profile.Location,
			&profile.ImageURL,
			&profile.IsPrivate,
		)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &auth.ProfileNotFoundError{UserID: userID}
		}

		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	return &profile, nil
}

func (repo *UserRepository) UpdateProfile(ctx context.Context, profile *auth.Profile) error {
	result, err := sq.Update(tableProfiles).
		Set(profileFieldBio, profile.Bio).
		Set(profileFieldLocation, profile.Location).
		Set(profileFieldImageURL, profile.ImageURL).
		Set(profileFieldIsPrivate, profile.IsPrivate).
		Where(sq.Eq{profileFieldUserID: profile.UserID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec profile update: %w", err)
	}

	return requireAffected(result, &auth.ProfileNotFoundError{UserID: profile.UserID})
}
