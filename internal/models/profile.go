package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public identity of a user as a chef. It is paired 1:1
// with an auth identity and shares its id.
type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	AvatarURL    *string   `gorm:"size:512" json:"avatar_url"`
	Bio          *string   `gorm:"type:text" json:"bio"`
	Rating       float64   `gorm:"not null;default:0" json:"rating"`
	TotalReviews int       `gorm:"not null;default:0" json:"total_reviews"`
	NumRecipes   int       `gorm:"not null;default:0" json:"num_recipes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary returns the projection embedded in recipe reads.
func (p *Profile) Summary() *ChefSummary {
	return &ChefSummary{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		AvatarURL: p.AvatarURL,
	}
}
