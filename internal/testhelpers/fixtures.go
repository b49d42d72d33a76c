package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

// CreateProfile inserts a profile with a fresh id.
func CreateProfile(t testing.TB, db *gorm.DB, firstName, lastName string) *models.Profile {
	t.Helper()
	id := uuid.New()
	profile := &models.Profile{
		ID:        id,
		Email:     fmt.Sprintf("%s@example.com", id.String()[:8]),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return profile
}

// NewRecipe returns a valid unsaved recipe owned by chefID.
func NewRecipe(chefID uuid.UUID, title string) *models.Recipe {
	prep, cook, servings := 5, 10, 2
	return &models.Recipe{
		ChefID:          chefID,
		Title:           title,
		Ingredients:     models.StringArray{"1 cup flour"},
		Instructions:    models.StringArray{"Mix"},
		PrepTime:        &prep,
		CookTime:        &cook,
		Servings:        &servings,
		DifficultyLevel: models.DifficultyEasy,
		Category:        "dinner",
		Tags:            models.StringArray{"quick"},
	}
}

// CreateRecipe inserts a recipe for chefID after applying mutate.
func CreateRecipe(t testing.TB, db *gorm.DB, chefID uuid.UUID, title string, mutate func(r *models.Recipe)) *models.Recipe {
	t.Helper()
	recipe := NewRecipe(chefID, title)
	if mutate != nil {
		mutate(recipe)
	}
	if err := db.Omit("Chef").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

// TacosData is the publish form used across scenario tests.
func TacosData() models.CreateRecipeData {
	prep, cook, servings := 5, 5, 1
	return models.CreateRecipeData{
		Title:           "Tacos",
		Ingredients:     []string{"1 tortilla"},
		Instructions:    []string{"Fill it"},
		Tags:            []string{"quick"},
		DifficultyLevel: models.DifficultyEasy,
		Category:        "dinner",
		PrepTime:        &prep,
		CookTime:        &cook,
		Servings:        &servings,
	}
}
