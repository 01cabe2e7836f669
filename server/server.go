package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spacewh/spacewh/logging"
)

// Options configures the Server.
type Options struct {
	// Logger receives lifecycle logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Addr is the listen address.
	Addr string

	// ReadTimeout, WriteTimeout and IdleTimeout bound the underlying
	// http.Server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds how long Run waits for in-flight requests
	// to drain once its context is cancelled.
	ShutdownTimeout time.Duration
}

// Server runs the HTTP surface with graceful shutdown.
type Server struct {
	logger          logging.Logger
	http            *http.Server
	shutdownTimeout time.Duration
}

// New creates a new Server around the given handler.
func New(handler http.Handler, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		Addr:            ":8000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		logger: opts.Logger,
		http: &http.Server{
			Addr:         opts.Addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout. It returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http.listen", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http.shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return <-errCh
}
