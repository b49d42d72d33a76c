package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) GetAllRecipes(ctx context.Context, sess session.Session, opts models.ListOptions) ([]models.Recipe, error) {
	args := m.Called(ctx, sess, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) GetUserRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) GetRecipeByID(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, sess session.Session, data models.CreateRecipeData) (*models.Recipe, error) {
	args := m.Called(ctx, sess, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, data models.UpdateRecipeData) (*models.Recipe, error) {
	args := m.Called(ctx, sess, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) DeleteRecipe(ctx context.Context, sess session.Session, id uuid.UUID) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}

func (m *MockRecipeService) SearchRecipes(ctx context.Context, sess session.Session, query string, opts models.SearchOptions) ([]models.Recipe, error) {
	args := m.Called(ctx, sess, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) RateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, rating int) error {
	args := m.Called(ctx, sess, id, rating)
	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of repository.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) List(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Insert(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	args := m.Called(ctx, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) UpdateOwned(ctx context.Context, id, chefID uuid.UUID, fields map[string]interface{}) (*models.Recipe, error) {
	args := m.Called(ctx, id, chefID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) DeleteOwned(ctx context.Context, id, chefID uuid.UUID) error {
	args := m.Called(ctx, id, chefID)
	return args.Error(0)
}
