// Package service holds the story and user use cases between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"log/slog"

	"stories/internal/middleware"
	"stories/internal/models"
	"stories/internal/observability"
	"stories/internal/ratelimit"
	"stories/internal/repository"

	"github.com/google/uuid"
)

// CreationLimitMessage is returned when a user is over their creation budget.
const CreationLimitMessage = "Limit reached. You can only post 10 stories a day."

// Admission gates story creation per user and kind.
type Admission interface {
	Reserve(ctx context.Context, resource, id string) (*ratelimit.Reservation, bool, error)
	Release(ctx context.Context, r *ratelimit.Reservation) error
}

// CreatedStory is returned to the author after a successful creation.
type CreatedStory struct {
	ID               uuid.UUID `json:"id"`
	CreatorUsername  string    `json:"creatorUsername"`
	MediaID          string    `json:"mediaId,omitempty"`
	CreatorAvatarURL string    `json:"creatorAvatarUrl"`
	Flair            *string   `json:"flair"`
}

type DeleteStoryInput struct {
	Kind    models.StoryKind
	StoryID uuid.UUID
	UserID  uuid.UUID
}

type StoryService struct {
	stories     repository.StoryRepository
	users       repository.UserRepository
	guard       *ContentGuard
	admission   Admission
	isModerator func(ctx context.Context, userID uuid.UUID) (bool, error)
}

func NewStoryService(
	stories repository.StoryRepository,
	users repository.UserRepository,
	guard *ContentGuard,
	admission Admission,
	isModerator func(ctx context.Context, userID uuid.UUID) (bool, error),
) *StoryService {
	return &StoryService{
		stories:     stories,
		users:       users,
		guard:       guard,
		admission:   admission,
		isModerator: isModerator,
	}
}

// AdmissionResource is the limiter resource name for creations of kind.
func AdmissionResource(kind models.StoryKind) string {
	return "story:" + string(kind)
}

func (s *StoryService) CreateTextStory(ctx context.Context, userID uuid.UUID, in TextStoryInput) (*CreatedStory, error) {
	return s.create(ctx, models.StoryKindText, userID, func() (*models.Story, error) {
		return s.guard.GuardText(in)
	})
}

func (s *StoryService) CreateGifStory(ctx context.Context, userID uuid.UUID, in GifStoryInput) (*CreatedStory, error) {
	return s.create(ctx, models.StoryKindGIF, userID, func() (*models.Story, error) {
		return s.guard.GuardGIF(in)
	})
}

// create admits, guards and persists one story. The admission slot is handed
// back when anything after it fails, so only stored stories use up budget.
func (s *StoryService) create(ctx context.Context, kind models.StoryKind, userID uuid.UUID, build func() (*models.Story, error)) (created *CreatedStory, err error) {
	reservation, err := s.admit(ctx, kind, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if relErr := s.admission.Release(ctx, reservation); relErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to release creation slot",
				slog.String("kind", string(kind)), slog.String("error", relErr.Error()))
		}
	}()

	story, err := build()
	if err != nil {
		return nil, err
	}
	story.CreatorID = userID

	creator, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return nil, err
	}
	observability.StoriesCreated.WithLabelValues(string(kind)).Inc()

	return &CreatedStory{
		ID:               story.ID,
		CreatorUsername:  creator.Username,
		MediaID:          story.MediaID,
		CreatorAvatarURL: creator.PhotoURL,
		Flair:            creator.Flair,
	}, nil
}

func (s *StoryService) admit(ctx context.Context, kind models.StoryKind, userID uuid.UUID) (*ratelimit.Reservation, error) {
	if s.admission == nil {
		return nil, models.NewServiceUnavailableError("Service temporarily unavailable", ratelimit.ErrNoStore)
	}

	reservation, ok, err := s.admission.Reserve(ctx, AdmissionResource(kind), userID.String())
	if err != nil {
		return nil, models.NewServiceUnavailableError("Service temporarily unavailable", err)
	}
	if !ok {
		observability.AdmissionRejections.WithLabelValues(string(kind)).Inc()
		return nil, models.NewRateLimitError(CreationLimitMessage)
	}
	return reservation, nil
}

// GetStory returns the story with its like state for viewerID. A nil viewer
// gets no like state.
func (s *StoryService) GetStory(ctx context.Context, kind models.StoryKind, id uuid.UUID, viewerID *uuid.UUID) (*models.StoryDetail, error) {
	return s.stories.GetDetail(ctx, kind, id, viewerID)
}

func (s *StoryService) LikeStory(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) error {
	err := s.stories.Like(ctx, kind, storyID, userID)
	observability.StoryLikeActions.WithLabelValues(string(kind), "like", likeResult(err, true)).Inc()
	return err
}

// UnlikeStory removes the user's like. Unliking a story that was never liked succeeds.
func (s *StoryService) UnlikeStory(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) error {
	removed, err := s.stories.Unlike(ctx, kind, storyID, userID)
	observability.StoryLikeActions.WithLabelValues(string(kind), "unlike", likeResult(err, removed)).Inc()
	return err
}

func likeResult(err error, changed bool) string {
	switch {
	case models.IsCode(err, models.CodeDuplicateAction):
		return "duplicate"
	case models.IsCode(err, models.CodeNotFound):
		return "not_found"
	case err != nil:
		return "error"
	case !changed:
		return "noop"
	default:
		return "ok"
	}
}

// DeleteStory deletes a story the user owns, or any story when the user is a
// moderator. It reports false when there was nothing to delete.
func (s *StoryService) DeleteStory(ctx context.Context, in DeleteStoryInput) (bool, error) {
	story, err := s.stories.GetByID(ctx, in.Kind, in.StoryID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	actor := Actor{UserID: in.UserID}
	if story.CreatorID != in.UserID && s.isModerator != nil {
		actor.IsModerator, err = s.isModerator(ctx, in.UserID)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return false, err
		}
	}
	if !CanDeleteStory(actor, story) {
		return false, models.NewForbiddenError("You can only delete your own stories")
	}

	// Owners delete with a creator filter so the ownership check holds at write time.
	var creatorFilter *uuid.UUID
	by := "moderator"
	if story.CreatorID == in.UserID {
		creatorFilter = &in.UserID
		by = "owner"
	}

	deleted, err := s.stories.Delete(ctx, in.Kind, in.StoryID, creatorFilter)
	if err != nil {
		return false, err
	}
	if deleted {
		observability.StoriesDeleted.WithLabelValues(string(in.Kind), by).Inc()
	}
	return deleted, nil
}

// RecountLikes repairs num_likes drift from the like edges.
func (s *StoryService) RecountLikes(ctx context.Context) (int64, error) {
	return s.stories.RecountLikes(ctx)
}
