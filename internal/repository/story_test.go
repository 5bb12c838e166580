package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"stories/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func numLikes(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var s models.Story
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return s.NumLikes
}

func edgeCount(t *testing.T, db *gorm.DB, storyID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StoryLike{}).Where("story_id = ?", storyID).Count(&n).Error)
	return n
}

func TestStoryRepository_LikeUnlikeRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	viewer := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, author, 0, time.Now().Add(-time.Hour))

	require.NoError(t, repo.Like(ctx, models.StoryKindText, story.ID, viewer.ID))
	assert.Equal(t, 1, numLikes(t, db, story.ID))

	liked, err := repo.HasLiked(ctx, story.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	removed, err := repo.Unlike(ctx, models.StoryKindText, story.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, numLikes(t, db, story.ID))
	assert.Zero(t, edgeCount(t, db, story.ID))
}

func TestStoryRepository_DuplicateLike(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	story := createStory(t, db, models.StoryKindGIF, author, 0, time.Now())

	require.NoError(t, repo.Like(ctx, models.StoryKindGIF, story.ID, author.ID))

	err := repo.Like(ctx, models.StoryKindGIF, story.ID, author.ID)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeDuplicateAction))
	assert.Equal(t, DuplicateLikeMessage, err.(*models.AppError).Message)
	assert.Equal(t, 1, numLikes(t, db, story.ID))
}

func TestStoryRepository_UnlikeNeverLiked(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, author, 3, time.Now())

	removed, err := repo.Unlike(ctx, models.StoryKindText, story.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 3, numLikes(t, db, story.ID))
}

func TestStoryRepository_LikeMissingOrWrongKind(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, author, 0, time.Now())

	err := repo.Like(ctx, models.StoryKindText, uuid.New(), author.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = repo.Like(ctx, models.StoryKindGIF, story.ID, author.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.Zero(t, edgeCount(t, db, story.ID), "edge insert must roll back with the counter update")
	assert.Equal(t, 0, numLikes(t, db, story.ID))
}

func TestStoryRepository_ConcurrentLikesIncrementOnce(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, author, 0, time.Now())

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Like(ctx, models.StoryKindText, story.ID, author.ID)
		}()
	}
	wg.Wait()
	close(errs)

	ok, dup := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case models.IsCode(err, models.CodeDuplicateAction):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
	assert.Equal(t, 1, numLikes(t, db, story.ID))
}

func TestStoryRepository_GetDetail(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	viewer := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, author, 0, time.Now())

	detail, err := repo.GetDetail(ctx, models.StoryKindText, story.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, detail.HasLiked)
	assert.Equal(t, story.Text, detail.Text)

	detail, err = repo.GetDetail(ctx, models.StoryKindText, story.ID, &viewer.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.HasLiked)
	assert.False(t, *detail.HasLiked)

	require.NoError(t, repo.Like(ctx, models.StoryKindText, story.ID, viewer.ID))
	detail, err = repo.GetDetail(ctx, models.StoryKindText, story.ID, &viewer.ID)
	require.NoError(t, err)
	assert.True(t, *detail.HasLiked)
	assert.Equal(t, 1, detail.NumLikes)

	_, err = repo.GetDetail(ctx, models.StoryKindGIF, story.ID, nil)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestStoryRepository_HotRanking(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()
	now := time.Now()

	author := createUser(t, db)
	older := createStory(t, db, models.StoryKindText, author, 1, now.Add(-10*time.Hour))
	newer := createStory(t, db, models.StoryKindText, author, 10, now.Add(-time.Hour))
	createStory(t, db, models.StoryKindGIF, author, 1000, now.Add(-time.Minute))

	items, err := repo.Hot(ctx, models.StoryKindText, 22, 0, now)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Equal(t, author.Username, items[0].CreatorUsername)
	require.NotNil(t, items[0].Flair)
	assert.Equal(t, *author.Flair, *items[0].Flair)
}

func TestStoryRepository_HotPaging(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()
	now := time.Now()

	author := createUser(t, db)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", author.ID).Update("photo_url", "").Error)
	for i := 0; i < 25; i++ {
		createStory(t, db, models.StoryKindGIF, author, 0, now.Add(-time.Duration(i+1)*time.Minute))
	}

	first, err := repo.Hot(ctx, models.StoryKindGIF, 22, 0, now)
	require.NoError(t, err)
	assert.Len(t, first, 22)
	assert.Nil(t, first[0].CreatorAvatarURL)

	second, err := repo.Hot(ctx, models.StoryKindGIF, 22, 21, now)
	require.NoError(t, err)
	assert.Len(t, second, 4)

	beyond, err := repo.Hot(ctx, models.StoryKindGIF, 22, 42, now)
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestStoryRepository_HotPostgresQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStoryRepository(db)
	now := time.Now()
	id := uuid.New()

	mock.ExpectQuery(`SELECT s\.id, u\.username AS creator_username, u\.photo_url AS creator_avatar_url, u\.flair, s\.num_likes, s\.created_at FROM stories AS s JOIN users u ON u\.id = s\.creator_id WHERE s\.kind = \$1 ORDER BY \(s\.num_likes \+ 1\) / POWER\(GREATEST\(EXTRACT\(EPOCH FROM \(CAST\(\$2 AS timestamptz\) - s\.created_at\)\), 1\) / 3600\.0, 1\.8\) DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(models.StoryKindText, sqlmock.AnyArg(), 22, 21).
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_username", "creator_avatar_url", "flair", "num_likes", "created_at"}).
			AddRow(id.String(), "octocat", "https://avatars.example/1", nil, 4, now.Add(-time.Hour)))

	items, err := repo.Hot(context.Background(), models.StoryKindText, 22, 21, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Nil(t, items[0].Flair)
	assert.Equal(t, 4, items[0].NumLikes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	owner := createUser(t, db)
	other := createUser(t, db)
	story := createStory(t, db, models.StoryKindText, owner, 0, time.Now())
	require.NoError(t, repo.Like(ctx, models.StoryKindText, story.ID, other.ID))

	deleted, err := repo.Delete(ctx, models.StoryKindText, story.ID, &other.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "creator filter must not match another user")

	deleted, err = repo.Delete(ctx, models.StoryKindGIF, story.ID, nil)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, models.StoryKindText, story.ID, &owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Zero(t, edgeCount(t, db, story.ID))

	_, err = repo.GetByID(ctx, models.StoryKindText, story.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestStoryRepository_RecountLikes(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	author := createUser(t, db)
	fan := createUser(t, db)
	drifted := createStory(t, db, models.StoryKindText, author, 0, time.Now())
	consistent := createStory(t, db, models.StoryKindText, author, 0, time.Now())

	require.NoError(t, repo.Like(ctx, models.StoryKindText, drifted.ID, fan.ID))
	require.NoError(t, db.Model(&models.Story{}).Where("id = ?", drifted.ID).Update("num_likes", 5).Error)

	fixed, err := repo.RecountLikes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	assert.Equal(t, 1, numLikes(t, db, drifted.ID))
	assert.Equal(t, 0, numLikes(t, db, consistent.ID))
}

func TestStoryRepository_CreateUnknownCreator(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)

	err := repo.Create(context.Background(), &models.Story{
		Kind:      models.StoryKindText,
		CreatorID: uuid.New(),
		Text:      "orphan",
	})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestStoryRepository_CreateRejectsUnknownKind(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStoryRepository(db)
	creator := createUser(t, db)

	err := repo.Create(context.Background(), &models.Story{
		Kind:      models.StoryKind("video"),
		CreatorID: creator.ID,
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))

	var n int64
	require.NoError(t, db.Model(&models.Story{}).Count(&n).Error)
	assert.Zero(t, n)
}
