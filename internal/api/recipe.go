package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/mutations"
)

// RatingRequest is the body of POST /recipes/:id/rating.
type RatingRequest struct {
	Rating int `json:"rating"`
}

type RecipeHandler struct {
	reads         *hooks.Resources
	writes        *mutations.Helpers
	createLimiter middleware.Limiter
	modifyLimiter middleware.Limiter
	log           logrus.FieldLogger
}

func NewRecipeHandler(reads *hooks.Resources, writes *mutations.Helpers, createLimiter, modifyLimiter middleware.Limiter, log logrus.FieldLogger) *RecipeHandler {
	return &RecipeHandler{
		reads:         reads,
		writes:        writes,
		createLimiter: createLimiter,
		modifyLimiter: modifyLimiter,
		log:           log,
	}
}

func (h *RecipeHandler) limit(limiter middleware.Limiter, key middleware.KeyFunc) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(limiter, key, h.log)
}

func (h *RecipeHandler) RegisterRoutes(r gin.IRouter) {
	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/mine", h.ListMyRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", middleware.RequireAuth(), h.limit(h.createLimiter, middleware.PerUser), h.CreateRecipe)
		recipes.PUT("/:id", middleware.RequireAuth(), h.limit(h.modifyLimiter, middleware.PerUserRecipe), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RequireAuth(), h.limit(h.modifyLimiter, middleware.PerUserRecipe), h.DeleteRecipe)
		recipes.POST("/:id/rating", middleware.RequireAuth(), h.RateRecipe)
	}
}

// listOptions reads limit, offset, featured, difficulty and tags from the
// query string.
func listOptions(c *gin.Context) (models.ListOptions, bool) {
	var opts models.ListOptions
	var ok bool
	if opts.Limit, ok = queryInt(c, "limit"); !ok {
		return opts, false
	}
	if opts.Offset, ok = queryInt(c, "offset"); !ok {
		return opts, false
	}
	if opts.Featured, ok = queryBool(c, "featured"); !ok {
		return opts, false
	}
	opts.Difficulty = c.Query("difficulty")
	opts.Tags = queryList(c, "tags")
	return opts, true
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	opts, ok := listOptions(c)
	if !ok {
		return
	}
	respondState(c, h.reads.UseAllRecipes(c.Request.Context(), middleware.GetSession(c), opts))
}

func (h *RecipeHandler) ListMyRecipes(c *gin.Context) {
	respondState(c, h.reads.UseUserRecipes(c.Request.Context(), middleware.GetSession(c), nil))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := paramID(c, "id", "recipe")
	if !ok {
		return
	}
	respondState(c, h.reads.UseRecipe(c.Request.Context(), middleware.GetSession(c), id))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var data models.CreateRecipeData
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	recipe, err := h.writes.CreateRecipe(c.Request.Context(), middleware.GetSession(c), data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := paramID(c, "id", "recipe")
	if !ok {
		return
	}
	var data models.UpdateRecipeData
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	recipe, err := h.writes.UpdateRecipe(c.Request.Context(), middleware.GetSession(c), id, data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := paramID(c, "id", "recipe")
	if !ok {
		return
	}
	if err := h.writes.DeleteRecipe(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	id, ok := paramID(c, "id", "recipe")
	if !ok {
		return
	}
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.writes.RateRecipe(c.Request.Context(), middleware.GetSession(c), id, req.Rating); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
