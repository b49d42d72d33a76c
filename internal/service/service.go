// Package service holds the resource access functions: each one turns a
// domain intent into a fixed sequence of calls against the remote data
// service and normalizes every failure into an *apperr.Error.
package service

import (
	"context"
	"errors"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// normalize maps a repository failure onto the error taxonomy. Errors that
// are already normalized pass through unchanged.
func normalize(op, what string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(op, what)
	}
	return apperr.Backend(op, err)
}

// scoped returns the store as seen by the session's user, or the base
// store for anonymous callers.
func scoped(ctx context.Context, base repository.Store, sess session.Session) repository.Store {
	if sess == nil {
		return base
	}
	id, err := sess.CurrentUser(ctx)
	if err != nil || id.AccessToken == "" {
		return base
	}
	return base.WithToken(id.AccessToken)
}

// requireUser resolves the current user and the store scoped to it.
func requireUser(ctx context.Context, base repository.Store, sess session.Session) (*session.Identity, repository.Store, error) {
	if sess == nil {
		return nil, nil, apperr.NotAuthenticated("getCurrentUser")
	}
	id, err := sess.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	if id.AccessToken == "" {
		return id, base, nil
	}
	return id, base.WithToken(id.AccessToken), nil
}
