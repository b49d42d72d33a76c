// Package auth signs users in and out against the configured identity
// provider: the hosted gotrue service or the local users table.
package auth

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Result is the outcome of a successful sign-in or sign-up.
type Result struct {
	Identity     session.Identity `json:"user"`
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	ExpiresIn    int              `json:"expires_in,omitempty"`
	// NeedsConfirmation is set when the provider created the account but
	// holds the session back until the email address is verified.
	NeedsConfirmation bool `json:"needs_confirmation"`
}

// SignUpProfile seeds the profile paired with a new identity.
type SignUpProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Provider is the authentication contract of the remote data service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Result, error)
	SignUp(ctx context.Context, email, password string, profile SignUpProfile) (*Result, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Credentials is the sign-in and sign-up form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the address and lower-cases it.
func (c *Credentials) Normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("email is required"),
			validation.Length(3, 255),
			validation.Match(emailPattern).Error("email must be a valid address")),
		validation.Field(&c.Password,
			validation.Required.Error("password is required"),
			validation.Length(MinPasswordLength, 72).Error("password must be between 6 and 72 characters")),
	)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MinPasswordLength matches the hosted provider's default policy.
const MinPasswordLength = 6

func validateCredentials(op, email, password string) (string, error) {
	c := Credentials{Email: email, Password: password}
	c.Normalize()
	if err := c.Validate(); err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return "", apperr.Validation(op, fields)
		}
		return "", apperr.ValidationMsg(op, err.Error())
	}
	return c.Email, nil
}

// providerMessage extracts the human readable message from an error whose
// text embeds a JSON error body.
func providerMessage(err error) string {
	text := err.Error()
	start := strings.Index(text, "{")
	if start < 0 {
		return text
	}
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal([]byte(text[start:]), &body) != nil {
		return text
	}
	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message} {
		if m != "" {
			return m
		}
	}
	return text
}
