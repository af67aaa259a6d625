package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Server owns the HTTP listener and the resources released on shutdown.
type Server struct {
	http    *http.Server
	logger  *zap.Logger
	closers []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// New wraps handler in an http.Server listening on port.
func New(port int, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// OnShutdown registers a resource closed after the listener stops, in registration order.
func (s *Server) OnShutdown(name string, closer io.Closer) {
	if closer == nil {
		return
	}
	s.closers = append(s.closers, namedCloser{name: name, closer: closer})
}

// Run serves until the listener fails or SIGINT/SIGTERM arrives, then shuts down.
func (s *Server) Run() error {
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.closeResources()
			return fmt.Errorf("start server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops the listener gracefully and closes registered resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var shutdownErr error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown failed", zap.Error(err))
		shutdownErr = err
	}
	if err := s.closeResources(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	s.logger.Info("server shutdown complete")
	return shutdownErr
}

func (s *Server) closeResources() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.closer.Close(); err != nil {
			s.logger.Warn("failed to close resource", zap.String("resource", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
