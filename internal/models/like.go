package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryLike records that a user liked a story.
// The pair (StoryID, UserID) is the primary key, so a user can like a story at most once.
type StoryLike struct {
	StoryID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"storyId"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	Story *Story `gorm:"foreignKey:StoryID;constraint:OnDelete:CASCADE" json:"-"`
	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the database table name for StoryLike.
func (StoryLike) TableName() string {
	return "story_likes"
}
