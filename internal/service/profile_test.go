package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/logging"
	"github.com/pageza/chef-next-door/backend/internal/mocks"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository/gormstore"
	"github.com/pageza/chef-next-door/backend/internal/session"
	"github.com/pageza/chef-next-door/backend/internal/testhelpers"
)

func TestGetProfile(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := NewProfileService(gormstore.New(db), logging.Discard())
	chef := testhelpers.CreateProfile(t, db, "Ada", "Lovelace")
	ctx := context.Background()

	got, err := svc.GetProfile(ctx, session.Anonymous(), &chef.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	missing := uuid.New()
	_, err = svc.GetProfile(ctx, session.Anonymous(), &missing)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.GetProfile(ctx, session.Anonymous(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthenticated))

	own, err := svc.GetCurrentProfile(ctx, session.Static(session.Identity{ID: chef.ID}))
	require.NoError(t, err)
	assert.Equal(t, chef.ID, own.ID)
}

func TestUpdateProfileWritesOnlySuppliedFields(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := NewProfileService(gormstore.New(db), logging.Discard())
	chef := testhelpers.CreateProfile(t, db, "Ada", "Lovelace")
	sess := session.Static(session.Identity{ID: chef.ID})

	bio := "  Loves engines  "
	updated, err := svc.UpdateProfile(context.Background(), sess, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "Loves engines", *updated.Bio)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
}

func TestUpdateProfileRejects(t *testing.T) {
	store := mocks.NewMockStore()
	svc := NewProfileService(store, logging.Discard())
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, session.Anonymous(), models.ProfileUpdate{})
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthenticated))

	sess := session.Static(session.Identity{ID: uuid.New()})
	blank := " "
	_, err = svc.UpdateProfile(ctx, sess, models.ProfileUpdate{FirstName: &blank})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, apperr.FieldsOf(err), "first_name")

	_, err = svc.UpdateProfile(ctx, sess, models.ProfileUpdate{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	store.AssertExpectations(t)
}
