package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const (
	DefaultPort            = "8080"
	DefaultTLSMode         = TLSModeAutoCert
	DefaultShutdownTimeout = 10 * time.Second

	TLSModeAutoCert = "autocert"
	TLSModeFile     = "file"

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
)

type Server struct {
	Port            string
	Host            string
	TLS             ServerTLS
	ShutdownTimeout time.Duration
}

type ServerTLS struct {
	Enabled  bool
	Mode     string
	AutoCert *ServerTLSAutoCert
	CertFile string
	KeyFile  string
}

type ServerTLSAutoCert struct {
	CacheDir string
	Domains  []string
	Email    string
}

type InvalidTLSModeError struct {
	Mode string
}

func (err InvalidTLSModeError) Error() string {
	return fmt.Sprintf("invalid tls mode %q", err.Mode)
}

// Run serves handler until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	serve, err := s.serveFunc(ctx, httpServer)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- serve()
	}()

	select {
	case err = <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	slog.InfoContext(ctx, "shutting down server", "timeout", timeout)

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (s *Server) serveFunc(ctx context.Context, httpServer *http.Server) (func() error, error) {
	if !s.TLS.Enabled {
		slog.InfoContext(ctx, "serving http", "address", httpServer.Addr)

		return httpServer.ListenAndServe, nil
	}

	switch s.TLS.Mode {
	case TLSModeAutoCert:
		if s.TLS.AutoCert == nil || len(s.TLS.AutoCert.Domains) == 0 {
			return nil, errors.New("autocert requires at least one domain")
		}

		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(s.TLS.AutoCert.CacheDir),
			HostPolicy: autocert.HostWhitelist(s.TLS.AutoCert.Domains...),
			Email:      s.TLS.AutoCert.Email,
		}

		httpServer.TLSConfig = manager.TLSConfig()

		slog.InfoContext(ctx, "serving https", "address", domainsToHTTPSAddress(s.TLS.AutoCert.Domains))

		return func() error {
			return httpServer.ListenAndServeTLS("", "")
		}, nil
	case TLSModeFile:
		if s.TLS.CertFile == "" || s.TLS.KeyFile == "" {
			return nil, errors.New("tls file mode requires a cert file and a key file")
		}

		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}

		slog.InfoContext(ctx, "serving https", "address", httpServer.Addr)

		return func() error {
			return httpServer.ListenAndServeTLS(s.TLS.CertFile, s.TLS.KeyFile)
		}, nil
	default:
		return nil, &InvalidTLSModeError{Mode: s.TLS.Mode}
	}
}

func domainsToHTTPSAddress(domains []string) string {
	addresses := make([]string, 0, len(domains))
	for _, domain := range domains {
		addresses = append(addresses, "https://"+domain)
	}

	return strings.Join(addresses, ", ")
}
