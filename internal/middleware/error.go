package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Kind   apperr.Kind       `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	// Redirect tells the client where to sign in again.
	Redirect string `json:"redirect,omitempty"`
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case apperr.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// NewErrorResponse builds the body for err. Unexpected errors are not
// echoed to the client.
func NewErrorResponse(err error, loginPath string) ErrorResponse {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return ErrorResponse{Error: "Internal Server Error"}
	}

	resp := ErrorResponse{Kind: appErr.Kind, Fields: appErr.Fields}
	switch appErr.Kind {
	case apperr.KindNotAuthenticated:
		resp.Error = messageOr(appErr.Message, "not authenticated")
		resp.Redirect = loginPath
	case apperr.KindBackend:
		resp.Error = "remote data service failed"
	default:
		resp.Error = messageOr(appErr.Message, string(appErr.Kind))
	}
	return resp
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

// ErrorHandler writes the last error handlers attached with c.Error and
// turns panics into a 500.
func ErrorHandler(loginPath string, log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("component", "HTTP")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).WithField("path", c.Request.URL.Path).Error("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := StatusOf(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"kind":   apperr.KindOf(err),
			}).Error("request failed")
		}
		c.JSON(status, NewErrorResponse(err, loginPath))
	}
}
