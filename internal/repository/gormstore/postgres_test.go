package gormstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/testhelpers"
)

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPostgresTagOverlapUsesJSONB(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE jsonb_exists_any\(recipes\.tags, \$1\) ORDER BY created_at DESC`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	recipes, err := New(db).Recipes().List(context.Background(), repository.RecipeFilter{Tags: []string{"spicy"}})
	require.NoError(t, err)
	assert.Empty(t, recipes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateOwnedScopesByChef(t *testing.T) {
	db, mock := newMockPostgres(t)
	id, chef := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE "recipes" SET .* WHERE id = \$\d+ AND chef_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := New(db).Recipes().UpdateOwned(context.Background(), id, chef, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContainer(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	store := New(db)
	ctx := context.Background()

	chef := testhelpers.CreateProfile(t, db, "Pg", "Chef")
	testhelpers.CreateRecipe(t, db, chef.ID, "Gumbo", nil)

	recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Tags: []string{"quick", "other"}})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Gumbo", recipes[0].Title)

	require.NoError(t, store.Profiles().IncrementRecipeCount(ctx, chef.ID))
	got, err := store.Profiles().Get(ctx, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumRecipes)
}
