package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainsToHTTPSAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		domains  []string
		expected string
	}{
		{name: "one", domains: []string{"posthub.example"}, expected: "https://posthub.example"},
		{
			name:     "apex and www",
			domains:  []string{"posthub.example", "www.posthub.example"},
			expected: "https://posthub.example, https://www.posthub.example",
		},
		{name: "none", domains: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, domainsToHTTPSAddress(tt.domains))
		})
	}
}

func TestServeFunc(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("plain http", func(t *testing.T) {
		t.Parallel()

		httpServer := &http.Server{}

		serve, err := (&Server{}).serveFunc(ctx, httpServer)
		require.NoError(t, err)
		assert.NotNil(t, serve)
		assert.Nil(t, httpServer.TLSConfig)
	})

	t.Run("autocert sets the tls config", func(t *testing.T) {
		t.Parallel()

		httpServer := &http.Server{}
		srv := &Server{TLS: ServerTLS{
			Enabled:  true,
			Mode:     TLSModeAutoCert,
			AutoCert: &ServerTLSAutoCert{CacheDir: t.TempDir(), Domains: []string{"posthub.example"}},
		}}

		serve, err := srv.serveFunc(ctx, httpServer)
		require.NoError(t, err)
		assert.NotNil(t, serve)
		require.NotNil(t, httpServer.TLSConfig)
		assert.NotNil(t, httpServer.TLSConfig.GetCertificate)
	})

	t.Run("cert files require tls 1.2", func(t *testing.T) {
		t.Parallel()

		httpServer := &http.Server{}
		srv := &Server{TLS: ServerTLS{Enabled: true, Mode: TLSModeFile, CertFile: "cert.pem", KeyFile: "key.pem"}}

		_, err := srv.serveFunc(ctx, httpServer)
		require.NoError(t, err)
		require.NotNil(t, httpServer.TLSConfig)
		assert.Equal(t, uint16(tls.VersionTLS12), httpServer.TLSConfig.MinVersion)
	})
}
