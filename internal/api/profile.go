package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/mutations"
)

type ProfileHandler struct {
	reads  *hooks.Resources
	writes *mutations.Helpers
}

func NewProfileHandler(reads *hooks.Resources, writes *mutations.Helpers) *ProfileHandler {
	return &ProfileHandler{reads: reads, writes: writes}
}

func (h *ProfileHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/profile", h.GetCurrentProfile)
	r.PUT("/profile", middleware.RequireAuth(), h.UpdateProfile)

	profiles := r.Group("/profiles")
	{
		profiles.GET("/:id", h.GetProfile)
		profiles.GET("/:id/recipes", h.GetProfileRecipes)
	}
}

// GetCurrentProfile reads the signed-in user's profile. Anonymous callers
// get 401 from the read itself.
func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	respondState(c, h.reads.UseProfile(c.Request.Context(), middleware.GetSession(c), nil))
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := paramID(c, "id", "profile")
	if !ok {
		return
	}
	respondState(c, h.reads.UseProfile(c.Request.Context(), middleware.GetSession(c), &id))
}

func (h *ProfileHandler) GetProfileRecipes(c *gin.Context) {
	id, ok := paramID(c, "id", "profile")
	if !ok {
		return
	}
	respondState(c, h.reads.UseUserRecipes(c.Request.Context(), middleware.GetSession(c), &id))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	profile, err := h.writes.UpdateProfile(c.Request.Context(), middleware.GetSession(c), update)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
