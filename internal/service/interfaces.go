package service

import (
	"context"
	"image"

	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	GetCurrentUser(ctx context.Context, sess session.Session) (*session.Identity, error)
	SignIn(ctx context.Context, email, password string) (*auth.Result, error)
	SignUp(ctx context.Context, email, password string, profile auth.SignUpProfile) (*auth.Result, error)
	SignOut(ctx context.Context, sess session.Session) error
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, sess session.Session, id *uuid.UUID) (*models.Profile, error)
	GetCurrentProfile(ctx context.Context, sess session.Session) (*models.Profile, error)
	UpdateProfile(ctx context.Context, sess session.Session, update models.ProfileUpdate) (*models.Profile, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	GetAllRecipes(ctx context.Context, sess session.Session, opts models.ListOptions) ([]models.Recipe, error)
	GetUserRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) ([]models.Recipe, error)
	GetRecipeByID(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, sess session.Session, data models.CreateRecipeData) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, data models.UpdateRecipeData) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, sess session.Session, id uuid.UUID) error
	SearchRecipes(ctx context.Context, sess session.Session, query string, opts models.SearchOptions) ([]models.Recipe, error)
	RateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, rating int) error
}

// ISearchService defines the interface for cross-collection search
type ISearchService interface {
	GlobalSearch(ctx context.Context, sess session.Session, query string, opts models.GlobalSearchOptions) (*models.GlobalSearchResult, error)
}

// IImageService defines the interface for image uploads
type IImageService interface {
	Upload(ctx context.Context, sess session.Session, category, filename string, data []byte, crop *image.Rectangle) (string, error)
}
