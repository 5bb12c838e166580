package service

import (
	"context"
	"strings"
	"time"

	"stories/internal/models"
	"stories/internal/repository"
)

// PageSize is the number of stories in one feed page.
const PageSize = 21

// maxCursor keeps cursor*PageSize well inside an int on every platform.
const maxCursor = 1 << 24

// FeedPage is one page of the hot feed.
//
// Pages are computed independently against the ranking at request time, so
// a client walking the cursor forward can see a story twice or miss one when
// likes, inserts or plain elapsed time reorder the feed between requests.
type FeedPage struct {
	Stories []models.FeedItem `json:"stories"`
	HasMore bool              `json:"hasMore"`
}

// ParseCursor turns the optional :cursor path segment into a page index.
// A leading integer is accepted ("2abc" is 2); anything else, including
// negative numbers, is page 0.
func ParseCursor(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		return 0
	}

	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > maxCursor {
			return maxCursor
		}
	}
	return n
}

// FeedService serves the paged hot feed.
type FeedService struct {
	stories repository.StoryRepository
	now     func() time.Time
}

func NewFeedService(stories repository.StoryRepository) *FeedService {
	return &FeedService{stories: stories, now: time.Now}
}

// Hot returns page cursor of the kind's hot feed. It fetches one row more
// than PageSize to learn whether another page exists.
func (s *FeedService) Hot(ctx context.Context, kind models.StoryKind, cursor int) (*FeedPage, error) {
	if cursor < 0 || cursor > maxCursor {
		cursor = 0
	}

	rows, err := s.stories.Hot(ctx, kind, PageSize+1, cursor*PageSize, s.now())
	if err != nil {
		return nil, err
	}

	page := &FeedPage{Stories: rows, HasMore: len(rows) == PageSize+1}
	if page.HasMore {
		page.Stories = rows[:PageSize]
	}
	if page.Stories == nil {
		page.Stories = []models.FeedItem{}
	}
	return page, nil
}
