package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/metrics"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Recipe count procedures run after a create or delete.
const (
	RPCIncrementRecipeCount = "increment_recipe_count"
	RPCDecrementRecipeCount = "decrement_recipe_count"
)

// RecipeService handles recipe operations
type RecipeService struct {
	store repository.Store
	log   logrus.FieldLogger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(store repository.Store, log logrus.FieldLogger) *RecipeService {
	return &RecipeService{
		store: store,
		log:   log.WithField("component", "RecipeService"),
	}
}

// GetAllRecipes returns the community feed, newest first. No match yields
// an empty slice.
func (s *RecipeService) GetAllRecipes(ctx context.Context, sess session.Session, opts models.ListOptions) ([]models.Recipe, error) {
	recipes, err := scoped(ctx, s.store, sess).Recipes().List(ctx, repository.RecipeFilter{
		Featured:   opts.Featured,
		Difficulty: opts.Difficulty,
		Tags:       opts.Tags,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
	if err != nil {
		return nil, normalize("getAllRecipes", "recipes", err)
	}
	return nonNil(recipes), nil
}

// GetUserRecipes lists one chef's recipes, defaulting to the current user.
func (s *RecipeService) GetUserRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) ([]models.Recipe, error) {
	store := scoped(ctx, s.store, sess)
	if id == nil {
		user, userStore, err := requireUser(ctx, s.store, sess)
		if err != nil {
			return nil, err
		}
		id, store = &user.ID, userStore
	}

	recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{ChefID: id})
	if err != nil {
		return nil, normalize("getUserRecipes", "recipes", err)
	}
	return nonNil(recipes), nil
}

func (s *RecipeService) GetRecipeByID(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := scoped(ctx, s.store, sess).Recipes().Get(ctx, id)
	if err != nil {
		return nil, normalize("getRecipeById", "recipe", err)
	}
	return recipe, nil
}

// CreateRecipe validates the form, publishes the recipe for the current
// user and then bumps the profile's recipe count. A failed count update is
// logged and does not fail the create.
func (s *RecipeService) CreateRecipe(ctx context.Context, sess session.Session, data models.CreateRecipeData) (*models.Recipe, error) {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return nil, err
	}

	data.Normalize()
	if err := data.Validate(); err != nil {
		return nil, validationError("createRecipe", err)
	}

	recipe, err := store.Recipes().Insert(ctx, &models.Recipe{
		ChefID:          user.ID,
		Title:           data.Title,
		Description:     data.Description,
		Ingredients:     models.StringArray(data.Ingredients),
		Instructions:    models.StringArray(data.Instructions),
		PrepTime:        data.PrepTime,
		CookTime:        data.CookTime,
		Servings:        data.Servings,
		DifficultyLevel: data.DifficultyLevel,
		Category:        data.Category,
		Tags:            models.StringArray(data.Tags),
		ImageURL:        data.ImageURL,
		Featured:        false,
		Rating:          0,
		TotalReviews:    0,
	})
	if err != nil {
		return nil, normalize("createRecipe", "recipe", err)
	}

	s.sideEffect(RPCIncrementRecipeCount, user.ID, func() error {
		return store.Profiles().IncrementRecipeCount(ctx, user.ID)
	})

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "recipe_id": recipe.ID}).Info("recipe created")
	return recipe, nil
}

// UpdateRecipe writes the supplied fields to a recipe owned by the current
// user. A recipe that does not exist and one owned by someone else both
// fail with NotFound.
func (s *RecipeService) UpdateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, data models.UpdateRecipeData) (*models.Recipe, error) {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return nil, err
	}

	data.Normalize()
	if err := data.Validate(); err != nil {
		return nil, validationError("updateRecipe", err)
	}
	if data.Empty() {
		return nil, apperr.ValidationMsg("updateRecipe", "no fields to update")
	}

	recipe, err := store.Recipes().UpdateOwned(ctx, id, user.ID, data.Fields())
	if err != nil {
		return nil, normalize("updateRecipe", "recipe", err)
	}
	return recipe, nil
}

// DeleteRecipe removes a recipe owned by the current user, then decrements
// the profile's recipe count on a best-effort basis.
func (s *RecipeService) DeleteRecipe(ctx context.Context, sess session.Session, id uuid.UUID) error {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return err
	}

	if err := store.Recipes().DeleteOwned(ctx, id, user.ID); err != nil {
		return normalize("deleteRecipe", "recipe", err)
	}

	s.sideEffect(RPCDecrementRecipeCount, user.ID, func() error {
		return store.Profiles().DecrementRecipeCount(ctx, user.ID)
	})

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "recipe_id": id}).Info("recipe deleted")
	return nil
}

// SearchRecipes matches query against title or description, ignoring case.
// A blank query is rejected rather than treated as a wildcard.
func (s *RecipeService) SearchRecipes(ctx context.Context, sess session.Session, query string, opts models.SearchOptions) ([]models.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("searchRecipes", map[string]string{"q": "search query is required"})
	}

	recipes, err := scoped(ctx, s.store, sess).Recipes().List(ctx, repository.RecipeFilter{
		Query:      query,
		Difficulty: opts.Difficulty,
		Tags:       opts.Tags,
		Limit:      opts.Limit,
	})
	if err != nil {
		return nil, normalize("searchRecipes", "recipes", err)
	}
	return nonNil(recipes), nil
}

// RateRecipe records the current user's rating. Aggregate rating fields on
// the recipe are maintained by the remote data service.
func (s *RecipeService) RateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, rating int) error {
	user, store, err := requireUser(ctx, s.store, sess)
	if err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return apperr.Validation("rateRecipe", map[string]string{"rating": "rating must be between 1 and 5"})
	}

	err = store.Ratings().Upsert(ctx, &models.RecipeRating{
		RecipeID: id,
		UserID:   user.ID,
		Rating:   rating,
	})
	return normalize("rateRecipe", "recipe", err)
}

func (s *RecipeService) sideEffect(rpc string, userID uuid.UUID, call func() error) {
	if err := call(); err != nil {
		metrics.RecordSideEffectFailure(rpc)
		s.log.WithError(err).WithFields(logrus.Fields{"rpc": rpc, "user_id": userID}).
			Warn("recipe count update failed")
	}
}

func nonNil(recipes []models.Recipe) []models.Recipe {
	if recipes == nil {
		return []models.Recipe{}
	}
	return recipes
}
