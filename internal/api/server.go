package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/api/handlers"
	"github.com/babylonlabs-io/custody-engine/internal/auth"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	httpServer *http.Server
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used to check request timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New(cfg *config.ServerConfig, service handlers.CustodyService, opts ...Option) *Server {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	verifier := auth.NewVerifier(cfg.AuthMaxSkew, o.now)
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      newRouter(handlers.New(service), verifier, cfg.AdminKeys),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("addr", s.httpServer.Addr).Msg("starting custody api server")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
