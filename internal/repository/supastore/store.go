// Package supastore implements the repository contract against a hosted
// Supabase project through its PostgREST endpoint.
package supastore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
)

const recipeSelect = "*,chef:profiles!chef_id(id,first_name,last_name,avatar_url)"

// Config addresses the PostgREST endpoint of a project.
type Config struct {
	URL    string
	Schema string
	// APIKey is the anon (or service) key sent on every request.
	APIKey string
}

// Store is a repository.Store that talks to PostgREST. A fresh client is
// built per request because postgrest.Client keeps per-call error state.
type Store struct {
	cfg   Config
	token string
}

func New(cfg Config) *Store {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return &Store{cfg: cfg, token: cfg.APIKey}
}

func (s *Store) WithToken(token string) repository.Store {
	if token == "" {
		return s
	}
	return &Store{cfg: s.cfg, token: token}
}

func (s *Store) Profiles() repository.ProfileRepository { return &profileRepo{s: s} }
func (s *Store) Recipes() repository.RecipeRepository   { return &recipeRepo{s: s} }
func (s *Store) Ratings() repository.RatingRepository   { return &ratingRepo{s: s} }

func (s *Store) client() *postgrest.Client {
	return postgrest.NewClient(s.cfg.URL, s.cfg.Schema, map[string]string{
		"apikey":        s.cfg.APIKey,
		"Authorization": "Bearer " + s.token,
	})
}

// rpc calls a stored procedure and surfaces both transport failures and
// error payloads returned by the server.
func (s *Store) rpc(name string, body interface{}) error {
	c := s.client()
	out := c.Rpc(name, "", body)
	if c.ClientError != nil {
		return errors.Wrapf(c.ClientError, "rpc %s", name)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(out), &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("rpc %s: (%s) %s", name, apiErr.Code, apiErr.Message)
		}
	}
	return nil
}

// translate maps the "no rows for a single object" response to ErrNotFound.
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "PGRST116") || strings.Contains(msg, "0 rows") {
		return repository.ErrNotFound
	}
	return err
}

// sanitize strips characters that would break a PostgREST or-filter.
func sanitize(q string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '"', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(q))
}

func arrayLiteral(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

type profileRepo struct{ s *Store }

func (r *profileRepo) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	_, err := r.s.client().From("profiles").
		Select("*", "", false).
		Eq("id", id.String()).
		Single().
		ExecuteTo(&profile)
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

type profileRow struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
}

func (r *profileRepo) Create(_ context.Context, p *models.Profile) error {
	row := profileRow{ID: p.ID, Email: p.Email, FirstName: p.FirstName, LastName: p.LastName, AvatarURL: p.AvatarURL, Bio: p.Bio}
	_, _, err := r.s.client().From("profiles").Insert(row, false, "", "minimal", "").Execute()
	return err
}

func (r *profileRepo) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Profile, error) {
	var rows []models.Profile
	_, err := r.s.client().From("profiles").
		Update(fields, "representation", "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

func (r *profileRepo) Search(_ context.Context, query string, limit int) ([]models.Profile, error) {
	q := sanitize(query)
	filter := fmt.Sprintf("first_name.ilike.%%%s%%,last_name.ilike.%%%s%%,bio.ilike.%%%s%%", q, q, q)

	b := r.s.client().From("profiles").Select("*", "", false).Or(filter, "")
	if limit > 0 {
		b = b.Limit(limit, "")
	}

	profiles := []models.Profile{}
	if _, err := b.ExecuteTo(&profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) IncrementRecipeCount(_ context.Context, id uuid.UUID) error {
	return r.s.rpc("increment_recipe_count", map[string]string{"user_id": id.String()})
}

func (r *profileRepo) DecrementRecipeCount(_ context.Context, id uuid.UUID) error {
	return r.s.rpc("decrement_recipe_count", map[string]string{"user_id": id.String()})
}

type recipeRepo struct{ s *Store }

func (r *recipeRepo) List(_ context.Context, f repository.RecipeFilter) ([]models.Recipe, error) {
	b := r.s.client().From("recipes").Select(recipeSelect, "", false)

	if f.ChefID != nil {
		b = b.Eq("chef_id", f.ChefID.String())
	}
	if f.Featured != nil {
		b = b.Eq("featured", strconv.FormatBool(*f.Featured))
	}
	if f.Difficulty != "" {
		b = b.Eq("difficulty_level", f.Difficulty)
	}
	if len(f.Tags) > 0 {
		b = b.Filter("tags", "ov", arrayLiteral(f.Tags))
	}
	if q := sanitize(f.Query); q != "" {
		b = b.Or(fmt.Sprintf("title.ilike.%%%s%%,description.ilike.%%%s%%", q, q), "")
	}

	b = b.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	limit, offset := f.Window()
	if offset > 0 {
		b = b.Range(offset, offset+limit-1, "")
	} else if limit > 0 {
		b = b.Limit(limit, "")
	}

	recipes := []models.Recipe{}
	if _, err := b.ExecuteTo(&recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepo) Get(_ context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	_, err := r.s.client().From("recipes").
		Select(recipeSelect, "", false).
		Eq("id", id.String()).
		Single().
		ExecuteTo(&recipe)
	if err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

// recipeRow is the insert payload; server defaults fill the timestamps.
type recipeRow struct {
	ID              uuid.UUID          `json:"id"`
	ChefID          uuid.UUID          `json:"chef_id"`
	Title           string             `json:"title"`
	Description     *string            `json:"description,omitempty"`
	Ingredients     models.StringArray `json:"ingredients"`
	Instructions    models.StringArray `json:"instructions"`
	PrepTime        *int               `json:"prep_time,omitempty"`
	CookTime        *int               `json:"cook_time,omitempty"`
	Servings        *int               `json:"servings,omitempty"`
	DifficultyLevel models.Difficulty  `json:"difficulty_level"`
	Category        string             `json:"category"`
	Tags            models.StringArray `json:"tags"`
	ImageURL        *string            `json:"image_url,omitempty"`
	Featured        bool               `json:"featured"`
	Rating          float64            `json:"rating"`
	TotalReviews    int                `json:"total_reviews"`
}

func (r *recipeRepo) Insert(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	row := recipeRow{
		ID:              recipe.ID,
		ChefID:          recipe.ChefID,
		Title:           recipe.Title,
		Description:     recipe.Description,
		Ingredients:     recipe.Ingredients,
		Instructions:    recipe.Instructions,
		PrepTime:        recipe.PrepTime,
		CookTime:        recipe.CookTime,
		Servings:        recipe.Servings,
		DifficultyLevel: recipe.DifficultyLevel,
		Category:        recipe.Category,
		Tags:            recipe.Tags,
		ImageURL:        recipe.ImageURL,
		Featured:        recipe.Featured,
		Rating:          recipe.Rating,
		TotalReviews:    recipe.TotalReviews,
	}
	if _, _, err := r.s.client().From("recipes").Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return nil, err
	}
	return r.Get(ctx, recipe.ID)
}

func (r *recipeRepo) UpdateOwned(ctx context.Context, id, chefID uuid.UUID, fields map[string]interface{}) (*models.Recipe, error) {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["updated_at"] = time.Now().UTC()

	var rows []models.Recipe
	_, err := r.s.client().From("recipes").
		Update(payload, "representation", "").
		Eq("id", id.String()).
		Eq("chef_id", chefID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *recipeRepo) DeleteOwned(_ context.Context, id, chefID uuid.UUID) error {
	var rows []models.Recipe
	_, err := r.s.client().From("recipes").
		Delete("representation", "").
		Eq("id", id.String()).
		Eq("chef_id", chefID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return translate(err)
	}
	if len(rows) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type ratingRepo struct{ s *Store }

func (r *ratingRepo) Upsert(_ context.Context, rating *models.RecipeRating) error {
	row := map[string]interface{}{
		"recipe_id": rating.RecipeID.String(),
		"user_id":   rating.UserID.String(),
		"rating":    rating.Rating,
	}
	_, _, err := r.s.client().From("recipe_ratings").
		Upsert(row, "recipe_id,user_id", "minimal", "").
		Execute()
	return err
}
