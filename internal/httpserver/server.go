// Package httpserver wraps http.Server with the timeouts and shutdown
// behaviour the gateway wants everywhere it serves traffic.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may run once the
// process has been told to stop.
const ShutdownTimeout = 10 * time.Second

// Server is an http.Server with gateway defaults applied. Header reads are
// bounded so a slow client cannot pin a connection before routing, and idle
// keep-alives are reaped.
type Server struct {
	inner *http.Server
}

// New constructs a server for the handler, listening on the given port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Addr reports the address the server listens on.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start serves until the listener fails or Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown, matching http.Server.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
