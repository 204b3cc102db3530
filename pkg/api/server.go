package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/config"
	"github.com/mitodl/lmod-proxy/pkg/edxgrades"
	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
)

// Server provides the lmod-proxy HTTP server.
//
// The server supports graceful shutdown with a configurable timeout.
type Server struct {
	server       *http.Server
	config       config.ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates a new proxy HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// Parameters:
//   - cfg: Server configuration (listen address, timeouts)
//   - store: Credential store backing basic authentication
//   - grades: Handler for the gradebook proxy endpoints
//
// Returns a configured but not yet started Server.
func NewServer(cfg config.ServerConfig, store *htpasswd.Store, grades *edxgrades.Handler) *Server {
	router := NewRouter(store, grades)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		server: server,
		config: cfg,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the server fails to start or shutdown encounters an error
func (s *Server) Start(ctx context.Context) error {
	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		logger.Info("server shutdown signal received")
		// Create new context with timeout for graceful shutdown
		// Don't use the cancelled ctx as it would cause immediate shutdown
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the server.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			logger.Error("server shutdown error", "error", err)
		} else {
			logger.Info("server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.server.Addr
}
