// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxFlairLength bounds the flair badge shown next to a username.
const MaxFlairLength = 40

// User represents an extension user linked to an external identity.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"size:255;not null" json:"username"`
	DisplayName string    `gorm:"size:255" json:"displayName"`
	GithubID    string    `gorm:"size:64;uniqueIndex" json:"githubId"`
	PhotoURL    string    `gorm:"type:text" json:"photoUrl"`
	ProfileURL  string    `gorm:"type:text" json:"profileUrl"`
	Flair       *string   `gorm:"size:40" json:"flair"`
	IsModerator bool      `gorm:"not null;default:false" json:"isModerator"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a v4 id when the caller did not provide one.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
