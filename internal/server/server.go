package server

import (
	"context"
	"net/http"
	"time"
)

// Server wraps an http.Server with the timeouts used across the service.
type Server struct {
	srv *http.Server
}

// New creates a new server instance listening on addr.
func New(handler http.Handler, addr string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine. The returned channel
// receives at most one value: the error that stopped the listener, or nil
// after a graceful shutdown.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		err := s.srv.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()
	return errCh
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
