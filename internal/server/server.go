package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/api"
	"github.com/pageza/chef-next-door/backend/internal/router"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	API          api.Deps
	Verifier     session.TokenVerifier
	HealthChecks map[string]func(context.Context) error
	Log          logrus.FieldLogger
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    logrus.FieldLogger
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) *Server {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.SetupRouter(router.Options{
		API:          deps.API,
		Verifier:     deps.Verifier,
		Origins:      cfg.Server.Origins(),
		LoginPath:    cfg.Server.LoginPath,
		HealthChecks: deps.HealthChecks,
		Log:          deps.Log,
	})

	return &Server{
		router: engine,
		log:    deps.Log.WithField("component", "Server"),
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the routed engine, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Addr is the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
