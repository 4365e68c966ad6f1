package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	authcontext "github.com/nasermirzaei89/posthub/auth/context"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
}

func NewService(userRepo UserRepository, sessionRepo SessionRepository) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

func HashPassword(password string) (string, error) {
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(bcryptHash), nil
}

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return &InvalidCredentialsInputError{Reason: "username is required"}
	case len(username) > maxUsernameLength:
		return &InvalidCredentialsInputError{Reason: "username is too long"}
	case strings.ContainsAny(username, " \t\n/"):
		return &InvalidCredentialsInputError{Reason: "username contains invalid characters"}
	case len(password) < minPasswordLength:
		return &InvalidCredentialsInputError{Reason: "password is too short"}
	}

	return nil
}

// Register creates the user and its profile in one step.
func (svc *Service) Register(ctx context.Context, username, password string) (*User, error) {
	err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		IsSuperuser:  false,
		RegisteredAt: time.Now().UTC(),
	}

	profile := &Profile{
		UserID:    user.ID,
		Bio:       "",
		Location:  "",
		ImageURL:  DefaultProfileImageURL,
		IsPrivate: false,
	}

	err = svc.userRepo.Insert(ctx, user, profile)
	if err != nil {
		var alreadyExistsErr *UserAlreadyExistsError
		if errors.As(err, &alreadyExistsErr) {
			return nil, alreadyExistsErr
		}

		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user.PasswordHash = "" // clear password hash before returning user

	return user, nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultSessionDuration = 30 * 24 * time.Hour

func (svc *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		var userByUsernameNotFoundErr *UserByUsernameNotFoundError
		if errors.As(err, &userByUsernameNotFoundErr) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	timeNow := time.Now().UTC()

	// Sweeping is best effort.
	_, err = svc.PurgeExpiredSessions(ctx, timeNow)
	if err != nil {
		slog.WarnContext(ctx, "failed to purge expired sessions", "error", err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: timeNow,
		ExpiresAt: timeNow.Add(defaultSessionDuration),
	}

	err = svc.sessionRepo.Insert(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (svc *Service) Logout(ctx context.Context, sessionID string) error {
	err := svc.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// LogoutEverywhere ends every session of the user, including the current one.
func (svc *Service) LogoutEverywhere(ctx context.Context, userID string) (int64, error) {
	deleted, err := svc.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions of user: %w", err)
	}

	return deleted, nil
}

func (svc *Service) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := svc.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if deleted > 0 {
		slog.DebugContext(ctx, "expired sessions purged", "count", deleted)
	}

	return deleted, nil
}

func (svc *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := svc.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.ExpiredAt(time.Now()) {
		err = svc.sessionRepo.Delete(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}

		return nil, &SessionExpiredError{ID: sessionID, ExpiresAt: session.ExpiresAt}
	}

	return session, nil
}

func (svc *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	user.PasswordHash = "" // clear password hash before returning user

	return user, nil
}

func (svc *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	user.PasswordHash = ""

	return user, nil
}

func (svc *Service) GetCurrentUser(ctx context.Context) (*User, error) {
	sub := authcontext.GetSubject(ctx)
	if sub == authcontext.Anonymous {
		return nil, ErrCurrentUserNotFound
	}

	user, err := svc.GetUser(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return user, nil
}

// ActorFor resolves the subject stored in ctx to an Actor. An anonymous subject
// yields AnonymousActor without touching the repository.
func (svc *Service) ActorFor(ctx context.Context) (Actor, error) {
	if authcontext.GetSubject(ctx) == authcontext.Anonymous {
		return AnonymousActor, nil
	}

	user, err := svc.GetCurrentUser(ctx)
	if err != nil {
		return AnonymousActor, fmt.Errorf("failed to resolve actor: %w", err)
	}

	return UserActor(user), nil
}

func (svc *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := svc.userRepo.FindProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}

const (
	maxBioLength      = 2000
	maxLocationLength = 30
)

type UpdateProfileRequest struct {
	Bio      string
	Location string
	// ImageURL falls back to DefaultProfileImageURL when empty.
	ImageURL  string
	IsPrivate bool
}

func (req UpdateProfileRequest) validate() error {
	switch {
	case len(req.Bio) > maxBioLength:
		return &InvalidProfileError{Reason: "bio is too long"}
	case len(req.Location) > maxLocationLength:
		return &InvalidProfileError{Reason: "location is too long"}
	}

	return nil
}

// UpdateProfile replaces the profile of the acting user.
func (svc *Service) UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (*Profile, error) {
	err := RequireUser(actor, "edit a profile")
	if err != nil {
		return nil, err
	}

	err = req.validate()
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		UserID:    actor.UserID,
		Bio:       req.Bio,
		Location:  strings.TrimSpace(req.Location),
		ImageURL:  strings.TrimSpace(req.ImageURL),
		IsPrivate: req.IsPrivate,
	}

	if profile.ImageURL == "" {
		profile.ImageURL = DefaultProfileImageURL
	}

	err = svc.userRepo.UpdateProfile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

func (svc *Service) PromoteToSuperuser(ctx context.Context, username string) error {
	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user by username: %w", err)
	}

	err = svc.userRepo.SetSuperuser(ctx, user.ID, true)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}

	return nil
}
