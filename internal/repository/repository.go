// Package repository is the tabular contract of the remote data service:
// the profiles, recipes and recipe_ratings collections plus the recipe count
// procedures. Implementations live in the gormstore and supastore packages.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

// ErrNotFound is returned when no row matches, including when an ownership
// predicate filters the row out.
var ErrNotFound = errors.New("record not found")

// RecipeFilter narrows a recipe read. Rows are always ordered newest first.
type RecipeFilter struct {
	ChefID     *uuid.UUID
	Query      string
	Featured   *bool
	Difficulty string
	Tags       []string
	Limit      int
	Offset     int
}

// Window returns the limit and offset to apply. An offset without a limit
// reads a page of models.DefaultPageSize rows.
func (f RecipeFilter) Window() (limit, offset int) {
	limit = f.Limit
	if f.Offset > 0 && limit <= 0 {
		limit = models.DefaultPageSize
	}
	return limit, f.Offset
}

type ProfileRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Profile, error)
	// Search matches first name, last name or bio case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]models.Profile, error)
	IncrementRecipeCount(ctx context.Context, id uuid.UUID) error
	DecrementRecipeCount(ctx context.Context, id uuid.UUID) error
}

type RecipeRepository interface {
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	Insert(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	// UpdateOwned writes fields to the row matching both id and chefID.
	UpdateOwned(ctx context.Context, id, chefID uuid.UUID, fields map[string]interface{}) (*models.Recipe, error)
	// DeleteOwned removes the row matching both id and chefID.
	DeleteOwned(ctx context.Context, id, chefID uuid.UUID) error
}

type RatingRepository interface {
	// Upsert inserts or replaces the rating keyed by (recipe id, user id).
	Upsert(ctx context.Context, rating *models.RecipeRating) error
}

// Store groups the repositories of one backend.
type Store interface {
	Profiles() ProfileRepository
	Recipes() RecipeRepository
	Ratings() RatingRepository
	// WithToken scopes requests to the user owning token, so row level
	// security applies. Direct database stores return themselves.
	WithToken(token string) Store
}
