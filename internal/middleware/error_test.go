package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/logging"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body ErrorResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		redirect string
		fields   map[string]string
		message  string
	}{
		{"not authenticated", apperr.NotAuthenticated("getProfile"), http.StatusUnauthorized, "/login", nil, ""},
		{"not found", apperr.NotFound("getRecipeById", "recipe"), http.StatusNotFound, "", nil, ""},
		{"validation", apperr.Validation("createRecipe", map[string]string{"tags": "At least one tag is required"}),
			http.StatusUnprocessableEntity, "", map[string]string{"tags": "At least one tag is required"}, ""},
		{"backend", apperr.Backend("getAllRecipes", assert.AnError), http.StatusBadGateway, "", nil, "remote data service failed"},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "", nil, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler("/login", logging.Discard()))
			router.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.redirect, body.Redirect)
			assert.Equal(t, tt.fields, body.Fields)
			assert.NotEmpty(t, body.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error)
			}
		})
	}
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler("/login", logging.Discard()))
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", body.Error)
}

func TestSessionMiddleware(t *testing.T) {
	verifier := session.NewVerifier("secret")
	uid := uuid.New()
	token, _, err := verifier.Issue(uid, "chef@example.com", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.Use(ErrorHandler("/login", logging.Discard()), SessionMiddleware(verifier))
	router.GET("/me", RequireAuth(), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token}) }, http.StatusOK},
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", token) }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), uid.String())
			}
		})
	}
}
