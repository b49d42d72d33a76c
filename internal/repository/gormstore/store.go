// Package gormstore implements the repository contract on a directly
// connected postgres or sqlite database.
package gormstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
)

// Store is a repository.Store backed by gorm.
type Store struct {
	db *gorm.DB
}

// New creates a new Store instance
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Profiles() repository.ProfileRepository { return &profileRepo{db: s.db} }
func (s *Store) Recipes() repository.RecipeRepository   { return &recipeRepo{db: s.db} }
func (s *Store) Ratings() repository.RatingRepository   { return &ratingRepo{db: s.db} }

// WithToken returns s; ownership is enforced by the queries themselves.
func (s *Store) WithToken(string) repository.Store { return s }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

type profileRepo struct {
	db *gorm.DB
}

func (r *profileRepo) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Profile, error) {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *profileRepo) Search(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	like := likePattern(query)
	q := r.db.WithContext(ctx).
		Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(bio, '')) LIKE ?)", like, like, like).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	profiles := []models.Profile{}
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) IncrementRecipeCount(ctx context.Context, id uuid.UUID) error {
	return r.adjustCount(ctx, id, gorm.Expr("num_recipes + 1"))
}

// DecrementRecipeCount never takes the count below zero.
func (r *profileRepo) DecrementRecipeCount(ctx context.Context, id uuid.UUID) error {
	return r.adjustCount(ctx, id, gorm.Expr("CASE WHEN num_recipes > 0 THEN num_recipes - 1 ELSE 0 END"))
}

func (r *profileRepo) adjustCount(ctx context.Context, id uuid.UUID, expr clause.Expr) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).UpdateColumn("num_recipes", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type recipeRepo struct {
	db *gorm.DB
}

func (r *recipeRepo) List(ctx context.Context, f repository.RecipeFilter) ([]models.Recipe, error) {
	q := r.db.WithContext(ctx).Model(&models.Recipe{}).Preload("Chef")

	if f.ChefID != nil {
		q = q.Where("chef_id = ?", *f.ChefID)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty_level = ?", f.Difficulty)
	}
	if len(f.Tags) > 0 {
		q = r.whereTagsOverlap(q, f.Tags)
	}
	if strings.TrimSpace(f.Query) != "" {
		like := likePattern(f.Query)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}

	q = q.Order("created_at DESC")
	limit, offset := f.Window()
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	recipes := []models.Recipe{}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// whereTagsOverlap keeps recipes carrying at least one of tags.
func (r *recipeRepo) whereTagsOverlap(q *gorm.DB, tags []string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Where("jsonb_exists_any(recipes.tags, ?)", pq.Array(tags))
	}
	return q.Where("EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE json_each.value IN ?)", tags)
}

func (r *recipeRepo) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).Preload("Chef").First(&recipe, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

func (r *recipeRepo) Insert(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	recipe.Chef = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx, recipe.ID)
}

func (r *recipeRepo) UpdateOwned(ctx context.Context, id, chefID uuid.UUID, fields map[string]interface{}) (*models.Recipe, error) {
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ? AND chef_id = ?", id, chefID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *recipeRepo) DeleteOwned(ctx context.Context, id, chefID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND chef_id = ?", id, chefID).Delete(&models.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Where("recipe_id = ?", id).Delete(&models.RecipeRating{}).Error
	})
}

type ratingRepo struct {
	db *gorm.DB
}

func (r *ratingRepo) Upsert(ctx context.Context, rating *models.RecipeRating) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
}
