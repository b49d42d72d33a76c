package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a string slice stored as a JSON array column.
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}

	return json.Unmarshal(bytes, a)
}

// Difficulty is the effort level of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every accepted difficulty level.
var Difficulties = []interface{}{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ChefSummary is the public slice of a profile embedded in recipe reads.
type ChefSummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL *string   `json:"avatar_url"`
}

func (ChefSummary) TableName() string { return "profiles" }

// Recipe is a published dish owned by one chef.
type Recipe struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ChefID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"chef_id"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Description     *string      `gorm:"type:text" json:"description"`
	Ingredients     StringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions    StringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	PrepTime        *int         `json:"prep_time"`
	CookTime        *int         `json:"cook_time"`
	Servings        *int         `json:"servings"`
	DifficultyLevel Difficulty   `gorm:"size:10;not null" json:"difficulty_level"`
	Category        string       `gorm:"size:50" json:"category"`
	Tags            StringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	ImageURL        *string      `gorm:"size:512" json:"image_url"`
	Featured        bool         `gorm:"not null;default:false;index" json:"featured"`
	Rating          float64      `gorm:"not null;default:0" json:"rating"`
	TotalReviews    int          `gorm:"not null;default:0" json:"total_reviews"`
	CreatedAt       time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Chef            *ChefSummary `gorm:"foreignKey:ChefID" json:"chef,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeRating is one user's score for one recipe.
type RecipeRating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RecipeRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
