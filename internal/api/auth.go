package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/service"
)

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthHandler struct {
	auth service.IAuthService
}

func NewAuthHandler(auth service.IAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/auth")
	{
		group.POST("/signup", h.SignUp)
		group.POST("/signin", h.SignIn)
		group.POST("/signout", h.SignOut)
		group.GET("/me", middleware.RequireAuth(), h.Me)
	}
}

// setSessionCookie mirrors the access token into the cookie the session
// middleware reads, so browser clients need no Authorization header.
func setSessionCookie(c *gin.Context, res *auth.Result) {
	if res.AccessToken == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, res.AccessToken, res.ExpiresIn, "/", "", false, true)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	res, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, auth.SignUpProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	setSessionCookie(c, res)
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	setSessionCookie(c, res)
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), middleware.GetSession(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, err := h.auth.GetCurrentUser(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.ID, "email": id.Email})
}
