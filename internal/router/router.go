package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/api"
	"github.com/pageza/chef-next-door/backend/internal/metrics"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Options configure the engine built by SetupRouter.
type Options struct {
	API          api.Deps
	Verifier     session.TokenVerifier
	Origins      []string
	LoginPath    string
	HealthChecks map[string]func(context.Context) error
	Log          logrus.FieldLogger
}

// SetupRouter configures the application routes. Every request carries a
// session; routes that need a user enforce it themselves.
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestLogger(opts.Log),
		metrics.Middleware(),
		middleware.ErrorHandler(opts.LoginPath, opts.Log),
		middleware.CORS(opts.Origins),
		middleware.SessionMiddleware(opts.Verifier),
	)

	router.GET("/health", api.HealthCheck(opts.HealthChecks))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	deps := opts.API
	if deps.Log == nil {
		deps.Log = opts.Log
	}
	if deps.LoginPath == "" {
		deps.LoginPath = opts.LoginPath
	}
	if deps.AllowedOrigins == nil {
		deps.AllowedOrigins = opts.Origins
	}
	api.SetupAPI(router, deps)

	return router
}
