package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/chef-next-door/backend/internal/hooks"
)

// CacheHandler relays client lifecycle signals to the hooks client.
type CacheHandler struct {
	client *hooks.Client
}

func NewCacheHandler(client *hooks.Client) *CacheHandler {
	return &CacheHandler{client: client}
}

func (h *CacheHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/cache")
	{
		group.POST("/reconnect", h.Reconnect)
		group.POST("/focus", h.Focus)
	}
}

// Reconnect revalidates every live subscription when the policy allows it
// and reports how many were refreshed.
func (h *CacheHandler) Reconnect(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"revalidated": h.client.Reconnect(c.Request.Context())})
}

func (h *CacheHandler) Focus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"revalidated": h.client.Focus(c.Request.Context())})
}
