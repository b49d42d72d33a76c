package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// ProfileService reads and edits chef profiles
type ProfileService struct {
	store repository.Store
	log   logrus.FieldLogger
}

func NewProfileService(store repository.Store, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{
		store: store,
		log:   log.WithField("component", "ProfileService"),
	}
}

// GetProfile returns the profile with id, or the current user's profile
// when id is nil.
func (s *ProfileService) GetProfile(ctx context.Context, sess session.Session, id *uuid.UUID) (*models.Profile, error) {
	if id == nil {
		return s.GetCurrentProfile(ctx, sess)
	}
	profile, err := scoped(ctx, s.store, sess).Profiles().Get(ctx, *id)
	if err != nil {
		return nil, normalize("getProfile", "profile", err)
	}
	return profile, nil
}

func (s *ProfileService) GetCurrentProfile(ctx context.Context, sess session.Session) (*models.Profile, error) {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return nil, err
	}
	profile, err := store.Profiles().Get(ctx, user.ID)
	if err != nil {
		return nil, normalize("getProfile", "profile", err)
	}
	return profile, nil
}

// UpdateProfile writes only the supplied fields of the current user's
// profile and returns the stored result.
func (s *ProfileService) UpdateProfile(ctx context.Context, sess session.Session, update models.ProfileUpdate) (*models.Profile, error) {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return nil, err
	}

	update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, validationError("updateProfile", err)
	}
	fields := update.Fields()
	if len(fields) == 0 {
		return nil, apperr.ValidationMsg("updateProfile", "no fields to update")
	}

	profile, err := store.Profiles().Update(ctx, user.ID, fields)
	if err != nil {
		return nil, normalize("updateProfile", "profile", err)
	}
	s.log.WithField("user_id", user.ID).Debug("profile updated")
	return profile, nil
}

func validationError(op string, err error) error {
	if fields := models.FieldErrors(err); fields != nil {
		return apperr.Validation(op, fields)
	}
	return apperr.ValidationMsg(op, err.Error())
}
