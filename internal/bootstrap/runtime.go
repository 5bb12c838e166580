// Package bootstrap wires the runtime dependencies shared by the server and tools.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"stories/internal/cache"
	"stories/internal/config"
	"stories/internal/database"
	"stories/internal/middleware"
	"stories/internal/models"
	"stories/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// InitRuntime connects to DB and Redis, promotes configured moderators and
// optionally seeds demo content.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis may stay nil; creation then answers 503 while reads keep working.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the database side of startup against an open connection.
func Prepare(cfg *config.Config, db *gorm.DB, opts Options) error {
	if err := ensureModerators(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap moderators: %w", err)
	}
	if opts.SeedDemo {
		if err := seedDemo(cfg, db); err != nil {
			return fmt.Errorf("failed to seed demo content: %w", err)
		}
	}
	return nil
}

// ensureModerators promotes the usernames listed in BOOTSTRAP_MODERATORS.
// Unknown usernames are skipped; the user may not have signed in yet.
func ensureModerators(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	names := cfg.ModeratorUsernames()
	if len(names) == 0 {
		return nil
	}

	res := db.Model(&models.User{}).
		Where("username IN ?", names).
		Where("is_moderator = ?", false).
		Update("is_moderator", true)
	if res.Error != nil {
		return res.Error
	}
	middleware.Logger.Info("moderator bootstrap ensured",
		slog.String("usernames", strings.Join(names, ",")),
		slog.Int64("promoted", res.RowsAffected),
	)
	return nil
}

// seedDemo fills an empty development database. It never runs in production
// and never touches a database that already holds stories.
func seedDemo(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || cfg.IsProduction() {
		return nil
	}
	var n int64
	if err := db.Model(&models.Story{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := seed.NewSeeder(db, seed.SeedOptions{}).Seed(seed.Options{
		NumUsers:         10,
		NumTextStories:   30,
		NumGifStories:    10,
		MaxLikesPerStory: 10,
	})
	return err
}
