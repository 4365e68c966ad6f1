package posthub

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/groups"
	"github.com/nasermirzaei89/posthub/random"
	"github.com/nasermirzaei89/posthub/server"
	"github.com/nasermirzaei89/posthub/votes"
	"github.com/nasermirzaei89/posthub/web"
	"golang.org/x/time/rate"
)

const (
	defaultDSN           = "file::memory:?cache=shared&_pragma=foreign_keys(1)"
	defaultVoteRateLimit = 5
	defaultVoteRateBurst = 10
	secretKeyLength      = 32
)

type App struct {
	server  *server.Server
	handler *web.Handler
	authSvc *auth.Service
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", defaultDSN))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	authSvc := auth.NewService(sqlite3.NewUserRepository(db), sqlite3.NewSessionRepository(db))
	contentsSvc := contents.NewService(sqlite3.NewPostRepository(db), sqlite3.NewCategoryRepository(db))
	groupsSvc := groups.NewService(sqlite3.NewGroupRepository(db))
	discussSvc := discuss.NewService(sqlite3.NewCommentRepository(db), sqlite3.NewThreadRepository(db))
	votesSvc := votes.NewService(sqlite3.NewVoteRepository(db))

	_, err = authSvc.PurgeExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		slog.WarnContext(ctx, "failed to purge expired sessions", "error", err)
	}

	cfg := newWebConfig()
	cookieStore := web.NewCookieStore(cfg.SessionSecure, secretFromEnv("SESSION_KEY"))

	httpHandler, err := web.NewHandler(authSvc, contentsSvc, groupsSvc, discussSvc, votesSvc, cookieStore, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	srv, err := newServer()
	if err != nil {
		return nil, err
	}

	app := &App{
		server:  srv,
		handler: httpHandler,
		authSvc: authSvc,
		db:      db,
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer app.Close(ctx)

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

// PromoteToSuperuser grants moderation rights to an existing user.
func (app *App) PromoteToSuperuser(ctx context.Context, username string) error {
	defer app.Close(ctx)

	err := app.authSvc.PromoteToSuperuser(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to promote %q: %w", username, err)
	}

	slog.InfoContext(ctx, "user promoted to superuser", "username", username)

	return nil
}

// MigrateDown drops the schema. The next start migrates it up again.
func (app *App) MigrateDown(ctx context.Context) error {
	defer app.Close(ctx)

	err := sqlite3.MigrateDown(ctx, app.db)
	if err != nil {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}

	return nil
}

func (app *App) Close(ctx context.Context) {
	if app.db == nil {
		return
	}

	err := app.db.Close()
	if err != nil {
		slog.ErrorContext(ctx, "failed to close database", "error", err)
	}

	app.db = nil
}

// secretFromEnv reads a key from the environment. Without one a random key is used,
// so sessions and CSRF tokens do not survive a restart.
func secretFromEnv(name string) []byte {
	value := env.GetString(name, "")
	if value == "" {
		slog.Warn("no key configured, using a random one", "name", name)

		return random.Bytes(secretKeyLength)
	}

	return []byte(value)
}

func newWebConfig() web.Config {
	tlsEnabled := env.GetBool("TLS_ENABLED", false)

	return web.Config{
		SessionName:        env.GetString("SESSION_NAME", "posthub-"+random.String(4)),
		SessionSecure:      env.GetBool("SESSION_SECURE", tlsEnabled),
		CSRFAuthKey:        secretFromEnv("CSRF_AUTH_KEY"),
		CSRFTrustedOrigins: env.GetStringSlice("CSRF_TRUSTED_ORIGINS", []string{}),
		CSRFSecure:         env.GetBool("CSRF_SECURE", tlsEnabled),
		VoteRateLimit:      rate.Limit(env.GetFloat64("VOTE_RATE_LIMIT", defaultVoteRateLimit)),
		VoteRateBurst:      env.GetInt("VOTE_RATE_BURST", defaultVoteRateBurst),
	}
}

func newServer() (*server.Server, error) {
	shutdownTimeout, err := durationFromEnv("SHUTDOWN_TIMEOUT", server.DefaultShutdownTimeout)
	if err != nil {
		return nil, err
	}

	srv := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
		ShutdownTimeout: shutdownTimeout,
	}

	return srv, nil
}

type InvalidEnvError struct {
	Name  string
	Value string
}

func (err InvalidEnvError) Error() string {
	return fmt.Sprintf("invalid value %q for environment variable %s", err.Value, err.Name)
}

// durationFromEnv parses a Go duration such as "15s". The env package has no
// duration getter.
func durationFromEnv(name string, def time.Duration) (time.Duration, error) {
	value := env.GetString(name, "")
	if value == "" {
		return def, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &InvalidEnvError{Name: name, Value: value}
	}

	return d, nil
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}
