package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// GoTrueProvider delegates to the hosted auth service. The profile row of a
// new user is created by the project's signup trigger from the metadata
// sent here.
type GoTrueProvider struct {
	client gotrue.Client
	log    logrus.FieldLogger
}

// NewGoTrueProvider talks to the auth endpoint at authURL
// (https://<ref>.supabase.co/auth/v1) using the project's anon key.
func NewGoTrueProvider(authURL, anonKey string, log logrus.FieldLogger) *GoTrueProvider {
	return &GoTrueProvider{
		client: gotrue.New("", anonKey).WithCustomGoTrueURL(authURL),
		log:    log.WithField("component", "GoTrueProvider"),
	}
}

func (p *GoTrueProvider) SignIn(_ context.Context, email, password string) (*Result, error) {
	email, err := validateCredentials("signIn", email, password)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		p.log.WithError(err).Warn("sign in rejected")
		return nil, apperr.NotAuthenticatedMsg("signIn", providerMessage(err))
	}
	if resp.User.ID == uuid.Nil {
		return nil, apperr.NotAuthenticatedMsg("signIn", "login failed")
	}

	return &Result{
		Identity:     session.Identity{ID: resp.User.ID, Email: resp.User.Email, AccessToken: resp.AccessToken},
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (p *GoTrueProvider) SignUp(_ context.Context, email, password string, profile SignUpProfile) (*Result, error) {
	email, err := validateCredentials("signUp", email, password)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
		},
	})
	if err != nil {
		p.log.WithError(err).Warn("sign up rejected")
		return nil, apperr.ValidationMsg("signUp", providerMessage(err))
	}

	// Without email autoconfirm the user comes back at the top level and
	// no session is issued.
	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	if user.ID == uuid.Nil {
		return nil, apperr.ValidationMsg("signUp", "sign up failed")
	}

	result := &Result{
		Identity:          session.Identity{ID: user.ID, Email: user.Email},
		AccessToken:       resp.Session.AccessToken,
		RefreshToken:      resp.Session.RefreshToken,
		ExpiresIn:         resp.Session.ExpiresIn,
		NeedsConfirmation: resp.Session.AccessToken == "",
	}
	result.Identity.AccessToken = result.AccessToken
	return result, nil
}

func (p *GoTrueProvider) SignOut(_ context.Context, accessToken string) error {
	if accessToken == "" {
		return apperr.NotAuthenticated("signOut")
	}
	if err := p.client.WithToken(accessToken).Logout(); err != nil {
		return apperr.Backend("signOut", err)
	}
	return nil
}
