package service

import (
	"context"
	"unicode/utf8"

	"stories/internal/models"
	"stories/internal/repository"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// IsModerator resolves the moderator role for id. It matches the callback
// StoryService uses for delete authorization.
func (s *UserService) IsModerator(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsModerator, nil
}

// UpdateFlair sets the user's badge. The flair must be 1 to 40 characters.
func (s *UserService) UpdateFlair(ctx context.Context, userID uuid.UUID, flair string) error {
	n := utf8.RuneCountInString(flair)
	if n == 0 {
		return models.NewValidationError("Flair is required")
	}
	if n > models.MaxFlairLength {
		return models.NewValidationError("Flair too long (max 40 characters)")
	}
	return s.userRepo.UpdateFlair(ctx, userID, flair)
}

func (s *UserService) SetModerator(ctx context.Context, userID uuid.UUID, moderator bool) error {
	return s.userRepo.SetModerator(ctx, userID, moderator)
}

func (s *UserService) ListModerators(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListModerators(ctx)
}
