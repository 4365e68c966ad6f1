package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nasermirzaei89/posthub/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsWhenContextIsDone(t *testing.T) {
	t.Parallel()

	srv := &server.Server{
		Port:            "0",
		Host:            "127.0.0.1",
		TLS:             server.ServerTLS{Enabled: false},
		ShutdownTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- srv.Run(ctx, http.NotFoundHandler())
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunRejectsBadTLSConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tls  server.ServerTLS
	}{
		{
			name: "unknown mode",
			tls:  server.ServerTLS{Enabled: true, Mode: "magic"},
		},
		{
			name: "autocert without domains",
			tls:  server.ServerTLS{Enabled: true, Mode: server.TLSModeAutoCert, AutoCert: &server.ServerTLSAutoCert{}},
		},
		{
			name: "file mode without files",
			tls:  server.ServerTLS{Enabled: true, Mode: server.TLSModeFile},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := &server.Server{Port: "0", Host: "127.0.0.1", TLS: tt.tls}

			err := srv.Run(context.Background(), http.NotFoundHandler())
			require.Error(t, err)
		})
	}

	t.Run("invalid mode error", func(t *testing.T) {
		t.Parallel()

		srv := &server.Server{Port: "0", TLS: server.ServerTLS{Enabled: true, Mode: "magic"}}

		err := srv.Run(context.Background(), http.NotFoundHandler())

		var invalidModeErr *server.InvalidTLSModeError
		require.ErrorAs(t, err, &invalidModeErr)
		assert.Equal(t, "magic", invalidModeErr.Mode)
	})
}
