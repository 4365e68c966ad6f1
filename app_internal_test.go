package posthub

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebConfigReadsEnv(t *testing.T) {
	t.Setenv("TLS_ENABLED", "false")
	t.Setenv("VOTE_RATE_LIMIT", "2.5")
	t.Setenv("VOTE_RATE_BURST", "7")

	cfg := newWebConfig()
	assert.InDelta(t, 2.5, float64(cfg.VoteRateLimit), 0)
	assert.Equal(t, 7, cfg.VoteRateBurst)
	assert.False(t, cfg.SessionSecure)
	assert.False(t, cfg.CSRFSecure)

	t.Setenv("VOTE_RATE_BURST", "lots")
	t.Setenv("TLS_ENABLED", "true")

	cfg = newWebConfig()
	assert.Equal(t, defaultVoteRateBurst, cfg.VoteRateBurst)
	assert.True(t, cfg.SessionSecure)
	assert.True(t, cfg.CSRFSecure)

	t.Setenv("SESSION_SECURE", "false")

	cfg = newWebConfig()
	assert.False(t, cfg.SessionSecure)
	assert.True(t, cfg.CSRFSecure)
}

func TestDurationFromEnv(t *testing.T) {
	t.Setenv("POSTHUB_TEST_DURATION", "3s")
	t.Setenv("POSTHUB_TEST_BAD", "soon")

	d, err := durationFromEnv("POSTHUB_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = durationFromEnv("POSTHUB_TEST_UNSET", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	_, err = durationFromEnv("POSTHUB_TEST_BAD", time.Second)

	var invalidEnvErr *InvalidEnvError
	require.ErrorAs(t, err, &invalidEnvErr)
	assert.Equal(t, "POSTHUB_TEST_BAD", invalidEnvErr.Name)
}

func TestNewServerReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	srv, err := newServer()
	require.NoError(t, err)
	assert.Equal(t, "9090", srv.Port)
	assert.Equal(t, 30*time.Second, srv.ShutdownTimeout)

	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err = newServer()
	require.Error(t, err)
}

func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, GetLogLevelFromEnv())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, slog.LevelInfo, GetLogLevelFromEnv())
}
