package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

type AuthService struct {
	provider auth.Provider
	log      logrus.FieldLogger
}

func NewAuthService(provider auth.Provider, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		provider: provider,
		log:      log.WithField("component", "AuthService"),
	}
}

// GetCurrentUser returns the session's identity or fails with
// NotAuthenticated.
func (s *AuthService) GetCurrentUser(ctx context.Context, sess session.Session) (*session.Identity, error) {
	if sess == nil {
		return nil, apperr.NotAuthenticated("getCurrentUser")
	}
	return sess.CurrentUser(ctx)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*auth.Result, error) {
	return s.provider.SignIn(ctx, email, password)
}

func (s *AuthService) SignUp(ctx context.Context, email, password string, profile auth.SignUpProfile) (*auth.Result, error) {
	res, err := s.provider.SignUp(ctx, email, password, profile)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":            res.Identity.ID,
		"needs_confirmation": res.NeedsConfirmation,
	}).Info("user signed up")
	return res, nil
}

func (s *AuthService) SignOut(ctx context.Context, sess session.Session) error {
	id, err := s.GetCurrentUser(ctx, sess)
	if err != nil {
		return err
	}
	return s.provider.SignOut(ctx, id.AccessToken)
}
