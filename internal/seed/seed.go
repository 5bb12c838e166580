package seed

import (
	"fmt"
	"log/slog"

	"stories/internal/middleware"
	"stories/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumTextStories int
	NumGifStories  int
	// MaxLikesPerStory caps likes per story; it is further capped by NumUsers.
	MaxLikesPerStory int
	ShouldClean      bool
}

// Result counts what a seeding run created.
type Result struct {
	Users   int
	Stories int
	Likes   int
}

// Seeder fills a database with generated users, stories and likes.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes every like, story and user.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.StoryLike{}, &models.Story{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Seed populates the database. Like counters always match the like rows written.
func (s *Seeder) Seed(opts Options) (*Result, error) {
	middleware.Logger.Info("Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("text_stories", opts.NumTextStories),
		slog.Int("gif_stories", opts.NumGifStories),
	)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}
	if opts.NumUsers <= 0 {
		return &Result{}, nil
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}

	stories := make([]*models.Story, 0, opts.NumTextStories+opts.NumGifStories)
	for i := 0; i < opts.NumTextStories; i++ {
		stories = append(stories, s.factory.BuildTextStory(users[s.factory.rng.Intn(len(users))]))
	}
	for i := 0; i < opts.NumGifStories; i++ {
		stories = append(stories, s.factory.BuildGifStory(users[s.factory.rng.Intn(len(users))]))
	}
	if err := s.factory.CreateStoriesBatch(stories); err != nil {
		return nil, fmt.Errorf("failed to create stories: %w", err)
	}

	likes := s.buildLikes(users, stories, opts.MaxLikesPerStory)
	if err := s.factory.CreateLikes(likes); err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}

	res := &Result{Users: len(users), Stories: len(stories), Likes: len(likes)}
	middleware.Logger.Info("Seeding complete",
		slog.Int("users", res.Users),
		slog.Int("stories", res.Stories),
		slog.Int("likes", res.Likes),
	)
	return res, nil
}

// buildLikes picks distinct likers per story so the (story, user) key is never repeated.
func (s *Seeder) buildLikes(users []*models.User, stories []*models.Story, maxPerStory int) []models.StoryLike {
	if maxPerStory > len(users) {
		maxPerStory = len(users)
	}
	if maxPerStory <= 0 {
		return nil
	}

	var likes []models.StoryLike
	for _, story := range stories {
		n := s.factory.rng.Intn(maxPerStory + 1)
		for _, idx := range s.factory.rng.Perm(len(users))[:n] {
			likes = append(likes, models.StoryLike{
				StoryID:   story.ID,
				UserID:    users[idx].ID,
				CreatedAt: story.CreatedAt,
			})
		}
	}
	return likes
}
