package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/testhelpers"
)

func at(minutesAgo int) func(r *models.Recipe) {
	return func(r *models.Recipe) {
		r.CreatedAt = time.Now().Add(-time.Duration(minutesAgo) * time.Minute)
	}
}

func TestRecipeList(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	store := New(db)
	ctx := context.Background()

	ana := testhelpers.CreateProfile(t, db, "Ana", "Lopez")
	ben := testhelpers.CreateProfile(t, db, "Ben", "Okafor")

	oldest := testhelpers.CreateRecipe(t, db, ana.ID, "Pancakes", func(r *models.Recipe) {
		at(30)(r)
		r.Tags = models.StringArray{"breakfast", "sweet"}
	})
	middle := testhelpers.CreateRecipe(t, db, ben.ID, "Chili", func(r *models.Recipe) {
		at(20)(r)
		r.DifficultyLevel = models.DifficultyHard
		r.Featured = true
		r.Tags = models.StringArray{"spicy"}
	})
	newest := testhelpers.CreateRecipe(t, db, ana.ID, "Fish Tacos", func(r *models.Recipe) {
		at(10)(r)
		desc := "Crispy and fresh"
		r.Description = &desc
		r.Featured = true
	})

	titles := func(recipes []models.Recipe) []string {
		out := make([]string, len(recipes))
		for i, r := range recipes {
			out[i] = r.Title
		}
		return out
	}

	t.Run("newest first with chef summary", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{newest.Title, middle.Title, oldest.Title}, titles(recipes))
		require.NotNil(t, recipes[0].Chef)
		assert.Equal(t, "Ana", recipes[0].Chef.FirstName)
	})

	t.Run("featured", func(t *testing.T) {
		featured := true
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Featured: &featured})
		require.NoError(t, err)
		assert.Equal(t, []string{"Fish Tacos", "Chili"}, titles(recipes))
	})

	t.Run("difficulty", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Difficulty: "hard"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Chili"}, titles(recipes))
	})

	t.Run("tag overlap", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Tags: []string{"sweet", "spicy"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Chili", "Pancakes"}, titles(recipes))
	})

	t.Run("chef", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{ChefID: &ana.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Fish Tacos", "Pancakes"}, titles(recipes))
	})

	t.Run("text search matches title or description", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Query: "CRISPY"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Fish Tacos"}, titles(recipes))

		recipes, err = store.Recipes().List(ctx, repository.RecipeFilter{Query: "chil"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Chili"}, titles(recipes))
	})

	t.Run("pagination", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Chili"}, titles(recipes))

		recipes, err = store.Recipes().List(ctx, repository.RecipeFilter{Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"Pancakes"}, titles(recipes))
	})

	t.Run("no match is an empty slice", func(t *testing.T) {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Query: "nothing like this"})
		require.NoError(t, err)
		assert.NotNil(t, recipes)
		assert.Empty(t, recipes)
	})
}

func TestRecipeOwnership(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	store := New(db)
	ctx := context.Background()

	owner := testhelpers.CreateProfile(t, db, "Owner", "One")
	other := testhelpers.CreateProfile(t, db, "Other", "Two")
	recipe := testhelpers.CreateRecipe(t, db, owner.ID, "Soup", nil)

	t.Run("non-owner update matches nothing", func(t *testing.T) {
		_, err := store.Recipes().UpdateOwned(ctx, recipe.ID, other.ID, map[string]interface{}{"title": "Stolen"})
		assert.ErrorIs(t, err, repository.ErrNotFound)

		got, err := store.Recipes().Get(ctx, recipe.ID)
		require.NoError(t, err)
		assert.Equal(t, "Soup", got.Title)
	})

	t.Run("owner update", func(t *testing.T) {
		got, err := store.Recipes().UpdateOwned(ctx, recipe.ID, owner.ID, map[string]interface{}{
			"title": "Tomato Soup",
			"tags":  models.StringArray{"warm", "vegan"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Tomato Soup", got.Title)
		assert.Equal(t, models.StringArray{"warm", "vegan"}, got.Tags)
		require.NotNil(t, got.Chef)
		assert.Equal(t, owner.ID, got.Chef.ID)
	})

	t.Run("non-owner delete matches nothing", func(t *testing.T) {
		err := store.Recipes().DeleteOwned(ctx, recipe.ID, other.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("owner delete", func(t *testing.T) {
		require.NoError(t, store.Ratings().Upsert(ctx, &models.RecipeRating{RecipeID: recipe.ID, UserID: other.ID, Rating: 4}))
		require.NoError(t, store.Recipes().DeleteOwned(ctx, recipe.ID, owner.ID))

		_, err := store.Recipes().Get(ctx, recipe.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		var ratings int64
		require.NoError(t, db.Model(&models.RecipeRating{}).Where("recipe_id = ?", recipe.ID).Count(&ratings).Error)
		assert.Zero(t, ratings)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, err := store.Recipes().Get(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRecipeInsert(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	store := New(db)
	chef := testhelpers.CreateProfile(t, db, "Chef", "Insert")

	got, err := store.Recipes().Insert(context.Background(), testhelpers.NewRecipe(chef.ID, "Bread"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	require.NotNil(t, got.Chef)
	assert.Equal(t, "Chef", got.Chef.FirstName)
}

func TestRatingUpsert(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	store := New(db)
	ctx := context.Background()

	chef := testhelpers.CreateProfile(t, db, "Chef", "Rated")
	recipe := testhelpers.CreateRecipe(t, db, chef.ID, "Stew", nil)
	rater := uuid.New()

	require.NoError(t, store.Ratings().Upsert(ctx, &models.RecipeRating{RecipeID: recipe.ID, UserID: rater, Rating: 2}))
	require.NoError(t, store.Ratings().Upsert(ctx, &models.RecipeRating{RecipeID: recipe.ID, UserID: rater, Rating: 5}))

	var ratings []models.RecipeRating
	require.NoError(t, db.Where("recipe_id = ?", recipe.ID).Find(&ratings).Error)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Rating)

	// Aggregates belong to the remote service and are left alone.
	got, err := store.Recipes().Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalReviews)
}

func TestProfiles(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	store := New(db)
	ctx := context.Background()

	ana := testhelpers.CreateProfile(t, db, "Ana", "Lopez")
	testhelpers.CreateProfile(t, db, "Ben", "Okafor")

	t.Run("update writes supplied fields", func(t *testing.T) {
		got, err := store.Profiles().Update(ctx, ana.ID, map[string]interface{}{"bio": "Loves baking bread"})
		require.NoError(t, err)
		require.NotNil(t, got.Bio)
		assert.Equal(t, "Loves baking bread", *got.Bio)
		assert.Equal(t, "Ana", got.FirstName)
	})

	t.Run("update unknown profile", func(t *testing.T) {
		_, err := store.Profiles().Update(ctx, uuid.New(), map[string]interface{}{"bio": "x"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("search by name or bio", func(t *testing.T) {
		got, err := store.Profiles().Search(ctx, "oka", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Ben", got[0].FirstName)

		got, err = store.Profiles().Search(ctx, "BREAD", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ana.ID, got[0].ID)
	})

	t.Run("recipe count never negative", func(t *testing.T) {
		require.NoError(t, store.Profiles().IncrementRecipeCount(ctx, ana.ID))
		require.NoError(t, store.Profiles().DecrementRecipeCount(ctx, ana.ID))
		require.NoError(t, store.Profiles().DecrementRecipeCount(ctx, ana.ID))

		got, err := store.Profiles().Get(ctx, ana.ID)
		require.NoError(t, err)
		assert.Zero(t, got.NumRecipes)

		assert.ErrorIs(t, store.Profiles().IncrementRecipeCount(ctx, uuid.New()), repository.ErrNotFound)
	})
}
