package repository

import (
	"testing"
	"time"

	"stories/internal/database"
	"stories/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB returns a postgres-dialect gorm DB backed by sqlmock, for
// asserting the SQL the repositories send to postgres.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a fresh in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	flair := gofakeit.ProgrammingLanguage()
	if len(flair) > models.MaxFlairLength {
		flair = flair[:models.MaxFlairLength]
	}
	u := &models.User{
		Username: gofakeit.Username(),
		GithubID: uuid.NewString(),
		PhotoURL: gofakeit.URL(),
		Flair:    &flair,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createStory(t *testing.T, db *gorm.DB, kind models.StoryKind, creator *models.User, likes int, createdAt time.Time) *models.Story {
	t.Helper()
	s := &models.Story{
		Kind:      kind,
		CreatorID: creator.ID,
		NumLikes:  likes,
		CreatedAt: createdAt,
	}
	if kind == models.StoryKindText {
		s.Text = gofakeit.Sentence(8)
		s.Filename = "main.go"
	} else {
		s.MediaID = gofakeit.UUID() + ".gif"
	}
	require.NoError(t, db.Create(s).Error)
	return s
}
