// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"stories/internal/database"
	"stories/internal/models"
	"stories/internal/observability"
	"stories/internal/ranking"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DuplicateLikeMessage is returned when a user likes a story twice.
const DuplicateLikeMessage = "You probably already liked this"

// StoryRepository defines persistence operations for stories and their likes.
// Every lookup is scoped to a kind: a gif id never resolves on a text route.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, kind models.StoryKind, id uuid.UUID) (*models.Story, error)
	GetDetail(ctx context.Context, kind models.StoryKind, id uuid.UUID, viewerID *uuid.UUID) (*models.StoryDetail, error)
	Hot(ctx context.Context, kind models.StoryKind, limit, offset int, now time.Time) ([]models.FeedItem, error)
	HasLiked(ctx context.Context, storyID, userID uuid.UUID) (bool, error)
	Like(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) error
	Unlike(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, kind models.StoryKind, id uuid.UUID, creatorID *uuid.UUID) (bool, error)
	RecountLikes(ctx context.Context) (int64, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, dialect(r.db), "Create", "stories")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("insert", "stories")()

	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.NewNotFoundError("User", story.CreatorID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, kind models.StoryKind, id uuid.UUID) (*models.Story, error) {
	defer observability.TrackQuery("select", "stories")()

	var story models.Story
	err := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, kind).
		First(&story).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Story", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &story, nil
}

func (r *storyRepository) GetDetail(ctx context.Context, kind models.StoryKind, id uuid.UUID, viewerID *uuid.UUID) (*models.StoryDetail, error) {
	story, err := r.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	detail := &models.StoryDetail{Story: *story}
	if viewerID == nil {
		return detail, nil
	}

	liked, err := r.HasLiked(ctx, id, *viewerID)
	if err != nil {
		return nil, err
	}
	detail.HasLiked = &liked
	return detail, nil
}

func (r *storyRepository) HasLiked(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StoryLike{}).
		Where("story_id = ? AND user_id = ?", storyID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Hot returns up to limit feed rows of kind starting at offset, ordered by
// descending hot score at now. Equal scores come back in no particular order.
func (r *storyRepository) Hot(ctx context.Context, kind models.StoryKind, limit, offset int, now time.Time) (items []models.FeedItem, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, dialect(r.db), "Hot", "stories")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("hot", "stories")()

	db := readDB(r.db)
	base := db.WithContext(ctx).
		Table("stories AS s").
		Select("s.id, u.username AS creator_username, u.photo_url AS creator_avatar_url, u.flair, s.num_likes, s.created_at").
		Joins("JOIN users u ON u.id = s.creator_id").
		Where("s.kind = ?", kind)

	if dialect(db) == "postgres" {
		err = base.
			Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:                ranking.OrderExpr,
				Vars:               []interface{}{now},
				WithoutParentheses: true,
			}}).
			Limit(limit).
			Offset(offset).
			Scan(&items).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return normalizeAvatars(items), nil
	}

	// No POWER/EXTRACT outside postgres: rank every candidate in process.
	if err = base.Scan(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ranking.Sort(items, now)
	if offset >= len(items) {
		return []models.FeedItem{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return normalizeAvatars(items[offset:end]), nil
}

func normalizeAvatars(items []models.FeedItem) []models.FeedItem {
	if items == nil {
		return []models.FeedItem{}
	}
	for i := range items {
		if items[i].CreatorAvatarURL != nil && *items[i].CreatorAvatarURL == "" {
			items[i].CreatorAvatarURL = nil
		}
	}
	return items
}

// Like inserts the like edge and increments the counter in one transaction.
// A second like by the same user fails on the (story_id, user_id) key and
// leaves the counter untouched.
func (r *storyRepository) Like(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, dialect(r.db), "Like", "story_likes")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("like", "story_likes")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.StoryLike{StoryID: storyID, UserID: userID}
		if err := tx.Create(&edge).Error; err != nil {
			switch {
			case database.IsUniqueViolation(err):
				return models.NewDuplicateActionError(DuplicateLikeMessage)
			case database.IsForeignKeyViolation(err):
				return models.NewNotFoundError("Story", storyID)
			default:
				return models.NewInternalError(err)
			}
		}

		res := tx.Model(&models.Story{}).
			Where("id = ? AND kind = ?", storyID, kind).
			UpdateColumn("num_likes", gorm.Expr("num_likes + 1"))
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Story", storyID)
		}
		return nil
	})
}

// Unlike removes the like edge and decrements the counter in one transaction.
// It reports whether an edge was removed; removing nothing is not an error.
func (r *storyRepository) Unlike(ctx context.Context, kind models.StoryKind, storyID, userID uuid.UUID) (removed bool, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, dialect(r.db), "Unlike", "story_likes")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("unlike", "story_likes")()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("story_id = ? AND user_id = ?", storyID, userID).
			Where("EXISTS (SELECT 1 FROM stories WHERE stories.id = story_likes.story_id AND stories.kind = ?)", kind).
			Delete(&models.StoryLike{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true

		res = tx.Model(&models.Story{}).
			Where("id = ? AND num_likes > 0", storyID).
			UpdateColumn("num_likes", gorm.Expr("num_likes - 1"))
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Delete removes the story of kind with the given id. When creatorID is set
// the row must also belong to that creator; the check and the delete are one
// statement. Like edges go with the story through ON DELETE CASCADE.
func (r *storyRepository) Delete(ctx context.Context, kind models.StoryKind, id uuid.UUID, creatorID *uuid.UUID) (bool, error) {
	defer observability.TrackQuery("delete", "stories")()

	q := r.db.WithContext(ctx).Where("id = ? AND kind = ?", id, kind)
	if creatorID != nil {
		q = q.Where("creator_id = ?", *creatorID)
	}
	res := q.Delete(&models.Story{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RecountLikes rewrites num_likes from the like edges for every story whose
// counter drifted, and returns how many stories were corrected.
func (r *storyRepository) RecountLikes(ctx context.Context) (int64, error) {
	defer observability.TrackQuery("recount", "stories")()

	const recount = `UPDATE stories SET num_likes = (
	SELECT COUNT(*) FROM story_likes WHERE story_likes.story_id = stories.id
) WHERE num_likes <> (
	SELECT COUNT(*) FROM story_likes WHERE story_likes.story_id = stories.id
)`
	res := r.db.WithContext(ctx).Exec(recount)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
