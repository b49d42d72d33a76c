package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a locally managed auth identity. Deployments backed by the hosted
// auth provider never touch this table.
type User struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
}
