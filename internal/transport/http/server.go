// Package http serves the operational endpoints of long-running kubegen
// commands: health, reflection and metrics over HTTP/1.1 and h2c.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
)

// DefaultAddress is used when no address is configured.
const DefaultAddress = ":8299"

// MountFunc registers routes on mux.
type MountFunc func(mux *http.ServeMux) error

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddress sets the listen address.
func WithAddress(address string) ServerOption {
	return func(s *Server) { s.address = address }
}

// WithMount adds a route registration. Mounts run in order.
func WithMount(mount MountFunc) ServerOption {
	return func(s *Server) { s.mounts = append(s.mounts, mount) }
}

// WithAllowedOrigins restricts CORS to origins. Without it every origin
// is allowed.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

// WithLogger replaces the server logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// Server is a transport.Listener serving the mounted routes. The socket
// is bound by NewServer so that address errors surface before any other
// listener starts.
type Server struct {
	address  string
	origins  []string
	mounts   []MountFunc
	log      *slog.Logger
	listener net.Listener
	srv      *http.Server
}

func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		address: DefaultAddress,
		log:     slog.Default().With("component", "ops-http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	for _, mount := range s.mounts {
		if err := mount(mux); err != nil {
			return nil, fmt.Errorf("mount routes: %w", err)
		}
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.address, err)
	}
	s.listener = ln

	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	s.srv = &http.Server{
		Handler:           s.cors().Handler(mux),
		Protocols:         &protocols,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    8 << 10,
	}
	return s, nil
}

// Addr returns the bound address, which differs from the configured one
// when it asked for port 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	s.log.Info("serving", "address", s.Addr().String())
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve %s: %w", s.Addr(), err)
}

// Stop drains open connections until ctx expires, then closes them.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("shutdown incomplete, closing connections", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *Server) cors() *cors.Cors {
	if len(s.origins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: connectcors.AllowedHeaders(),
		ExposedHeaders: connectcors.ExposedHeaders(),
		MaxAge:         7200,
	})
}
