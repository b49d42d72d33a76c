package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/models"
)

type SearchHandler struct {
	reads *hooks.Resources
}

func NewSearchHandler(reads *hooks.Resources) *SearchHandler {
	return &SearchHandler{reads: reads}
}

func (h *SearchHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/search", h.GlobalSearch)
	r.GET("/search/recipes", h.SearchRecipes)
}

// SearchRecipes answers idle for a blank q without touching the backend.
func (h *SearchHandler) SearchRecipes(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	opts := models.SearchOptions{
		Limit:      limit,
		Difficulty: c.Query("difficulty"),
		Tags:       queryList(c, "tags"),
	}
	respondState(c, h.reads.UseSearchRecipes(c.Request.Context(), middleware.GetSession(c), c.Query("q"), opts))
}

func (h *SearchHandler) GlobalSearch(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	opts := models.GlobalSearchOptions{Limit: limit}
	if opts.IncludeRecipes, ok = queryBool(c, "recipes"); !ok {
		return
	}
	if opts.IncludeProfiles, ok = queryBool(c, "profiles"); !ok {
		return
	}
	respondState(c, h.reads.UseGlobalSearch(c.Request.Context(), middleware.GetSession(c), c.Query("q"), opts))
}
