// Package api is the HTTP boundary: gin handlers that read through the
// read hooks and write through the mutation helpers.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/mutations"
	"github.com/pageza/chef-next-door/backend/internal/service"
)

// Deps are the collaborators of the handlers.
type Deps struct {
	Auth      service.IAuthService
	Images    service.IImageService
	Resources *hooks.Resources
	Mutations *mutations.Helpers

	// Limiters may be nil to disable rate limiting.
	CreateLimiter middleware.Limiter
	ModifyLimiter middleware.Limiter

	// AllowedOrigins are accepted for websocket upgrades.
	AllowedOrigins []string
	// LoginPath is sent with not-authenticated errors on the live socket.
	LoginPath string
	Log       logrus.FieldLogger
}

// SetupAPI registers every /api/v1 route on router.
func SetupAPI(router gin.IRouter, deps Deps) {
	v1 := router.Group("/api/v1")
	{
		NewAuthHandler(deps.Auth).RegisterRoutes(v1)
		NewProfileHandler(deps.Resources, deps.Mutations).RegisterRoutes(v1)
		NewRecipeHandler(deps.Resources, deps.Mutations, deps.CreateLimiter, deps.ModifyLimiter, deps.Log).RegisterRoutes(v1)
		NewSearchHandler(deps.Resources).RegisterRoutes(v1)
		NewImageHandler(deps.Images).RegisterRoutes(v1)
		NewCacheHandler(deps.Resources.Client()).RegisterRoutes(v1)
		NewLiveHandler(deps.Resources, deps.AllowedOrigins, deps.LoginPath, deps.Log).RegisterRoutes(v1)
	}
}
