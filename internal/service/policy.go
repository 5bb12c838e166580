package service

import (
	"stories/internal/models"

	"github.com/google/uuid"
)

// Actor is the authenticated user performing an action, with the roles
// resolved for this request.
type Actor struct {
	UserID      uuid.UUID
	IsModerator bool
}

// CanDeleteStory reports whether actor may delete story: creators may delete
// their own stories and moderators may delete any.
func CanDeleteStory(actor Actor, story *models.Story) bool {
	if story == nil || actor.UserID == uuid.Nil {
		return false
	}
	return actor.IsModerator || story.CreatorID == actor.UserID
}
