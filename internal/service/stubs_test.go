package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stories/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storyRepoStub is a stub for repository.StoryRepository.
type storyRepoStub struct {
	createFn       func(context.Context, *models.Story) error
	getByIDFn      func(context.Context, models.StoryKind, uuid.UUID) (*models.Story, error)
	getDetailFn    func(context.Context, models.StoryKind, uuid.UUID, *uuid.UUID) (*models.StoryDetail, error)
	hotFn          func(context.Context, models.StoryKind, int, int, time.Time) ([]models.FeedItem, error)
	hasLikedFn     func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	likeFn         func(context.Context, models.StoryKind, uuid.UUID, uuid.UUID) error
	unlikeFn       func(context.Context, models.StoryKind, uuid.UUID, uuid.UUID) (bool, error)
	deleteFn       func(context.Context, models.StoryKind, uuid.UUID, *uuid.UUID) (bool, error)
	recountLikesFn func(context.Context) (int64, error)
}

func (s *storyRepoStub) Create(ctx context.Context, story *models.Story) error {
	return s.createFn(ctx, story)
}
func (s *storyRepoStub) GetByID(ctx context.Context, kind models.StoryKind, id uuid.UUID) (*models.Story, error) {
	return s.getByIDFn(ctx, kind, id)
}
func (s *storyRepoStub) GetDetail(ctx context.Context, kind models.StoryKind, id uuid.UUID, viewerID *uuid.UUID) (*models.StoryDetail, error) {
	return s.getDetailFn(ctx, kind, id, viewerID)
}
func (s *storyRepoStub) Hot(ctx context.Context, kind models.StoryKind, limit, offset int, now time.Time) ([]models.FeedItem, error) {
	return s.hotFn(ctx, kind, limit, offset, now)
}
func (s *storyRepoStub) HasLiked(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	return s.hasLikedFn(ctx, storyID, userID)
}
func (s *storyRepoStub) Like(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) error {
	return s.likeFn(ctx, kind, storyID, userID)
}
func (s *storyRepoStub) Unlike(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) (bool, error) {
	return s.unlikeFn(ctx, kind, storyID, userID)
}
func (s *storyRepoStub) Delete(ctx context.Context, kind models.StoryKind, id uuid.UUID, creatorID *uuid.UUID) (bool, error) {
	return s.deleteFn(ctx, kind, id, creatorID)
}
func (s *storyRepoStub) RecountLikes(ctx context.Context) (int64, error) {
	return s.recountLikesFn(ctx)
}

func noopStoryRepo() *storyRepoStub {
	return &storyRepoStub{
		createFn: func(_ context.Context, s *models.Story) error {
			s.ID = uuid.New()
			return nil
		},
		getByIDFn: func(_ context.Context, _ models.StoryKind, id uuid.UUID) (*models.Story, error) {
			return nil, models.NewNotFoundError("Story", id)
		},
		getDetailFn: func(_ context.Context, _ models.StoryKind, id uuid.UUID, _ *uuid.UUID) (*models.StoryDetail, error) {
			return nil, models.NewNotFoundError("Story", id)
		},
		hotFn:          func(_ context.Context, _ models.StoryKind, _, _ int, _ time.Time) ([]models.FeedItem, error) { return nil, nil },
		hasLikedFn:     func(_ context.Context, _, _ uuid.UUID) (bool, error) { return false, nil },
		likeFn:         func(_ context.Context, _ models.StoryKind, _, _ uuid.UUID) error { return nil },
		unlikeFn:       func(_ context.Context, _ models.StoryKind, _, _ uuid.UUID) (bool, error) { return true, nil },
		deleteFn:       func(_ context.Context, _ models.StoryKind, _ uuid.UUID, _ *uuid.UUID) (bool, error) { return true, nil },
		recountLikesFn: func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn        func(context.Context, uuid.UUID) (*models.User, error)
	getByGithubIDFn  func(context.Context, string) (*models.User, error)
	createFn         func(context.Context, *models.User) error
	updateFlairFn    func(context.Context, uuid.UUID, string) error
	setModeratorFn   func(context.Context, uuid.UUID, bool) error
	listModeratorsFn func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	return s.getByGithubIDFn(ctx, githubID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateFlair(ctx context.Context, id uuid.UUID, flair string) error {
	return s.updateFlairFn(ctx, id, flair)
}
func (s *userRepoStub) SetModerator(ctx context.Context, id uuid.UUID, moderator bool) error {
	return s.setModeratorFn(ctx, id, moderator)
}
func (s *userRepoStub) ListModerators(ctx context.Context) ([]models.User, error) {
	return s.listModeratorsFn(ctx)
}

func userRepoWith(users ...*models.User) *userRepoStub {
	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, models.NewNotFoundError("User", id)
		},
		getByGithubIDFn:  func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:         func(_ context.Context, _ *models.User) error { return nil },
		updateFlairFn:    func(_ context.Context, _ uuid.UUID, _ string) error { return nil },
		setModeratorFn:   func(_ context.Context, _ uuid.UUID, _ bool) error { return nil },
		listModeratorsFn: func(_ context.Context) ([]models.User, error) { return nil, nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
