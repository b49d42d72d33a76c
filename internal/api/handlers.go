package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
)

// HealthCheck returns the health status of the API. Each check gets two
// seconds; any failure reports the service as degraded.
func HealthCheck(checks map[string]func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"message": "Chef Next Door API is running",
			"checks":  results,
		})
	}
}

// stateResponse is the body of every read endpoint.
type stateResponse struct {
	Status       hooks.Status `json:"status"`
	Data         any          `json:"data,omitempty"`
	IsValidating bool         `json:"is_validating,omitempty"`
}

// respondState writes a read result. Failed reads go to the error
// middleware; a suspended read answers idle with no data.
func respondState[T any](c *gin.Context, st hooks.State[T]) {
	switch st.Status {
	case hooks.StatusError:
		_ = c.Error(st.Err)
	case hooks.StatusIdle:
		c.JSON(http.StatusOK, stateResponse{Status: hooks.StatusIdle})
	default:
		c.JSON(http.StatusOK, stateResponse{Status: st.Status, Data: st.Data, IsValidating: st.IsValidating})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorResponse{Error: msg})
}

// paramID parses a uuid route parameter. A malformed id cannot name an
// existing row, so it is reported as not found.
func paramID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperr.NotFound(c.FullPath(), what))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &b, true
}

// queryList splits a comma separated parameter, dropping blanks.
func queryList(c *gin.Context, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
