// Package ratelimit implements a sliding-window log limiter on Redis sorted sets.
//
// Every admitted request is a member of the sorted set rl:<resource>:<id>,
// scored by its admission time in milliseconds. A request is admitted when,
// after pruning members older than the window, at most limit members remain
// including itself. State lives in Redis so every instance shares one budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoStore is returned when the limiter has no Redis client to talk to.
var ErrNoStore = errors.New("rate limit store unavailable")

// SlidingWindow admits at most Limit events per Window for each key.
type SlidingWindow struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) {
		w.now = now
	}
}

// NewSlidingWindow creates a limiter admitting limit events per window.
// rdb may be nil, in which case every call returns ErrNoStore.
func NewSlidingWindow(rdb redis.Cmdable, limit int, window time.Duration, opts ...Option) *SlidingWindow {
	w := &SlidingWindow{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Limit returns the number of events admitted per window.
func (w *SlidingWindow) Limit() int { return w.limit }

// Window returns the window length.
func (w *SlidingWindow) Window() time.Duration { return w.window }

// Reservation is an admitted event that can be handed back with Release.
type Reservation struct {
	key    string
	member string
}

// Key builds the Redis key used for resource and id.
func Key(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

// Reserve tries to admit one event for (resource, id). It returns a
// reservation when admitted, or nil with allowed=false when the window is full.
func (w *SlidingWindow) Reserve(ctx context.Context, resource, id string) (*Reservation, bool, error) {
	if isNilClient(w.rdb) {
		return nil, false, ErrNoStore
	}

	now := w.now()
	key := Key(resource, id)
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	cutoff := now.Add(-w.window).UnixMilli()

	var card *redis.IntCmd
	_, err := w.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, w.window)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reserve %s: %w", key, err)
	}

	if card.Val() > int64(w.limit) {
		// Over budget: take our own member back out so it does not count.
		if err := w.rdb.ZRem(ctx, key, member).Err(); err != nil {
			return nil, false, fmt.Errorf("rollback %s: %w", key, err)
		}
		return nil, false, nil
	}

	return &Reservation{key: key, member: member}, true, nil
}

// Allow is Reserve without the option to release.
func (w *SlidingWindow) Allow(ctx context.Context, resource, id string) (bool, error) {
	_, ok, err := w.Reserve(ctx, resource, id)
	return ok, err
}

// Release returns a reservation to the window, e.g. when the guarded action failed.
// Releasing a nil reservation is a no-op.
func (w *SlidingWindow) Release(ctx context.Context, r *Reservation) error {
	if r == nil || isNilClient(w.rdb) {
		return nil
	}
	if err := w.rdb.ZRem(ctx, r.key, r.member).Err(); err != nil {
		return fmt.Errorf("release %s: %w", r.key, err)
	}
	return nil
}

// Count returns how many events for (resource, id) are currently inside the window.
func (w *SlidingWindow) Count(ctx context.Context, resource, id string) (int64, error) {
	if isNilClient(w.rdb) {
		return 0, ErrNoStore
	}
	cutoff := w.now().Add(-w.window).UnixMilli()
	n, err := w.rdb.ZCount(ctx, Key(resource, id), "("+strconv.FormatInt(cutoff, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", Key(resource, id), err)
	}
	return n, nil
}

func isNilClient(rdb redis.Cmdable) bool {
	if rdb == nil {
		return true
	}
	c, ok := rdb.(*redis.Client)
	return ok && c == nil
}
