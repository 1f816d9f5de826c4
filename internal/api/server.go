package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/retailpulse/pkg/logger"
)

// ShutdownTimeout bounds how long in-flight requests may finish on stop
const ShutdownTimeout = 30 * time.Second

// Server serves the analytics read API
// ⭐ SSOT: HTTP server settings live in this file only
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// New creates a new API server listening on port
func New(port string, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// full result dumps can be large
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.WithField("addr", ":"+port),
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Serve listens until ctx is done, then drains in-flight requests.
// It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", s.Addr(), err)
	}
	return nil
}
