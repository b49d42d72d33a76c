package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/session"
)

const (
	sessionKey = "session"
	userIDKey  = "user_id"

	// AccessTokenCookie carries the access token for browsers that cannot
	// set headers, such as websocket upgrades.
	AccessTokenCookie = "sb-access-token"
)

// SessionMiddleware attaches the request's session to the gin context. It
// never rejects a request: operations that need a user fail with
// NotAuthenticated on their own.
func SessionMiddleware(verifier session.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, session.FromToken(bearerToken(c), verifier))
		c.Next()
	}
}

// RequireAuth aborts with NotAuthenticated when the session has no user
// and records the user id for later middleware.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := session.UserID(c.Request.Context(), GetSession(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// GetSession returns the session attached by SessionMiddleware, or an
// anonymous one.
func GetSession(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Anonymous()
}

// UserID returns the id recorded by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}
