package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoryKind distinguishes text snippets from recorded gifs.
type StoryKind string

const (
	StoryKindText StoryKind = "text"
	StoryKindGIF  StoryKind = "gif"
)

// Valid reports whether k is a known story kind.
func (k StoryKind) Valid() bool {
	return k == StoryKindText || k == StoryKindGIF
}

// Story is a single shareable snippet. Text stories carry Text, Filename and
// RecordingSteps; gif stories carry MediaID and Flagged.
type Story struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind                  StoryKind      `gorm:"size:8;not null;index:idx_stories_kind_created,priority:1" json:"kind"`
	CreatorID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"creatorId"`
	Creator               *User          `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Text                  string         `gorm:"type:text" json:"text,omitempty"`
	Filename              string         `gorm:"size:100" json:"filename,omitempty"`
	RecordingSteps        RecordingSteps `gorm:"type:jsonb" json:"recordingSteps,omitempty"`
	MediaID               string         `gorm:"type:text" json:"mediaId,omitempty"`
	Flagged               *bool          `json:"flagged,omitempty"`
	ProgrammingLanguageID *string        `gorm:"size:40" json:"programmingLanguageId"`
	NumLikes              int            `gorm:"not null;default:0;check:chk_stories_num_likes,num_likes >= 0" json:"numLikes"`
	CreatedAt             time.Time      `gorm:"not null;index:idx_stories_kind_created,priority:2" json:"createdAt"`
}

// BeforeCreate assigns a v4 id when the caller did not provide one and
// rejects unknown kinds.
func (s *Story) BeforeCreate(_ *gorm.DB) error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown story kind %q", s.Kind)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StoryDetail is a story as seen by a viewer. HasLiked is nil for anonymous viewers.
type StoryDetail struct {
	Story
	HasLiked *bool `json:"hasLiked,omitempty"`
}

// FeedItem is one row of the hot feed: the story id plus its author projection.
type FeedItem struct {
	ID               uuid.UUID `json:"id"`
	CreatorUsername  string    `json:"creatorUsername"`
	CreatorAvatarURL *string   `json:"creatorAvatarUrl"`
	Flair            *string   `json:"flair"`
	NumLikes         int       `json:"-"`
	CreatedAt        time.Time `json:"-"`
}

// RecordingSteps holds the editor replay steps of a text story as raw JSON.
type RecordingSteps json.RawMessage

// Value implements driver.Valuer.
func (r RecordingSteps) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	if !json.Valid(r) {
		return nil, errors.New("recording steps are not valid JSON")
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *RecordingSteps) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RecordingSteps(v)
	default:
		return fmt.Errorf("cannot scan %T into RecordingSteps", src)
	}
	return nil
}

// MarshalJSON emits the stored JSON verbatim.
func (r RecordingSteps) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps the incoming JSON verbatim.
func (r *RecordingSteps) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}

// RankInputs exposes the values the hot score is computed from.
func (f FeedItem) RankInputs() (int, time.Time) {
	return f.NumLikes, f.CreatedAt
}
