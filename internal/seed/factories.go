// Package seed provides helpers to create demo data for the stories
// database. These helpers are intended for development and testing only.
package seed

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"stories/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedOptions tunes generated content.
type SeedOptions struct {
	// MaxAge bounds how far back story creation times are spread.
	MaxAge time.Duration
	// Seed makes generation reproducible when non-zero.
	Seed int64
}

var languageIDs = []string{"go", "typescript", "javascript", "python", "rust", "java", "c", "cpp", "ruby", "elixir"}

var filenames = map[string]string{
	"go":         "main.go",
	"typescript": "index.ts",
	"javascript": "index.js",
	"python":     "main.py",
	"rust":       "main.rs",
	"java":       "Main.java",
	"c":          "main.c",
	"cpp":        "main.cpp",
	"ruby":       "app.rb",
	"elixir":     "app.ex",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	fake *gofakeit.Faker
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7 * 24 * time.Hour
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
		fake: gofakeit.New(seed),
	}
}

// BuildUser constructs an unsaved user with a fake GitHub identity.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := f.fake.Username() + fmt.Sprintf("%d", f.fake.Number(100, 999))
	user := &models.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: f.fake.Name(),
		GithubID:    fmt.Sprintf("%d", f.fake.Number(1000000, 99999999)),
		PhotoURL:    fmt.Sprintf("https://avatars.githubusercontent.com/u/%d", f.fake.Number(1000, 9999999)),
		ProfileURL:  "https://github.com/" + username,
	}
	if f.rng.Intn(3) == 0 {
		flair := languageIDs[f.rng.Intn(len(languageIDs))]
		user.Flair = &flair
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildTextStory constructs an unsaved text story with a short replay.
func (f *Factory) BuildTextStory(creator *models.User, overrides ...func(*models.Story)) *models.Story {
	lang := languageIDs[f.rng.Intn(len(languageIDs))]
	text := f.fake.HackerPhrase() + "\n" + f.fake.Sentence(12)

	story := &models.Story{
		ID:                    uuid.New(),
		Kind:                  models.StoryKindText,
		CreatorID:             creator.ID,
		Text:                  text,
		Filename:              filenames[lang],
		RecordingSteps:        f.recordingSteps(text),
		ProgrammingLanguageID: &lang,
		CreatedAt:             f.createdAt(),
	}
	for _, override := range overrides {
		override(story)
	}
	return story
}

// BuildGifStory constructs an unsaved gif story pointing at a fake media id.
func (f *Factory) BuildGifStory(creator *models.User, overrides ...func(*models.Story)) *models.Story {
	lang := languageIDs[f.rng.Intn(len(languageIDs))]
	flagged := false

	story := &models.Story{
		ID:                    uuid.New(),
		Kind:                  models.StoryKindGIF,
		CreatorID:             creator.ID,
		MediaID:               f.fake.UUID() + ".gif",
		Flagged:               &flagged,
		ProgrammingLanguageID: &lang,
		CreatedAt:             f.createdAt(),
	}
	for _, override := range overrides {
		override(story)
	}
	return story
}

// CreateUser constructs and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateStoriesBatch persists multiple stories in batched inserts.
func (f *Factory) CreateStoriesBatch(stories []*models.Story) error {
	if len(stories) == 0 {
		return nil
	}
	return f.db.CreateInBatches(stories, 100).Error
}

// CreateLikes persists like rows and bumps each story's counter by the
// number of rows added for it, in one transaction.
func (f *Factory) CreateLikes(likes []models.StoryLike) error {
	if len(likes) == 0 {
		return nil
	}
	perStory := make(map[uuid.UUID]int)
	for _, l := range likes {
		perStory[l.StoryID]++
	}

	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(likes, 200).Error; err != nil {
			return err
		}
		for storyID, n := range perStory {
			if err := tx.Model(&models.Story{}).
				Where("id = ?", storyID).
				UpdateColumn("num_likes", gorm.Expr("num_likes + ?", n)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.rng.Int63n(int64(f.opts.MaxAge)))
	return time.Now().Add(-back).Truncate(time.Second)
}

// recordingSteps replays text as one insertion per line.
func (f *Factory) recordingSteps(text string) models.RecordingSteps {
	type step struct {
		Offset int    `json:"offset"`
		Text   string `json:"text"`
		Delay  int    `json:"delay"`
	}
	var steps []step
	offset := 0
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			steps = append(steps, step{Offset: offset, Text: text[start:i], Delay: 50 + f.rng.Intn(400)})
			offset += i - start
			start = i
		}
	}
	raw, _ := json.Marshal(steps)
	return models.RecordingSteps(raw)
}
