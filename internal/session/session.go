// Package session carries the caller identity into the resource access
// functions. A Session is always passed explicitly; nothing reads a
// process-wide current user.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
)

// Identity is an authenticated user.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	// AccessToken is forwarded to the remote data service so row level
	// security sees the same user.
	AccessToken string `json:"-"`
}

// Session resolves the current user.
type Session interface {
	CurrentUser(ctx context.Context) (*Identity, error)
}

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

type anonymous struct{}

func (anonymous) CurrentUser(context.Context) (*Identity, error) {
	return nil, apperr.NotAuthenticated("getCurrentUser")
}

// Anonymous returns a session with no user.
func Anonymous() Session { return anonymous{} }

type static struct{ id Identity }

func (s static) CurrentUser(context.Context) (*Identity, error) {
	id := s.id
	return &id, nil
}

// Static returns a session that always resolves to id.
func Static(id Identity) Session { return static{id: id} }

type tokenSession struct {
	token    string
	verifier TokenVerifier

	once sync.Once
	id   *Identity
	err  error
}

// FromToken returns a session that verifies token on first use and
// remembers the outcome.
func FromToken(token string, verifier TokenVerifier) Session {
	if token == "" {
		return Anonymous()
	}
	return &tokenSession{token: token, verifier: verifier}
}

func (s *tokenSession) CurrentUser(context.Context) (*Identity, error) {
	s.once.Do(func() {
		id, err := s.verifier.Verify(s.token)
		if err != nil {
			s.err = err
			return
		}
		id.AccessToken = s.token
		s.id = id
	})
	if s.err != nil {
		return nil, s.err
	}
	id := *s.id
	return &id, nil
}

// UserID resolves the current user id, or fails with NotAuthenticated.
func UserID(ctx context.Context, s Session) (uuid.UUID, error) {
	if s == nil {
		return uuid.Nil, apperr.NotAuthenticated("getCurrentUser")
	}
	id, err := s.CurrentUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return id.ID, nil
}
