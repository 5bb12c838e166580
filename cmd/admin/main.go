// Package main provides operator utilities for the stories backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"stories/internal/config"
	"stories/internal/database"
	"stories/internal/middleware"
	"stories/internal/models"
	"stories/internal/repository"
	"stories/internal/service"
	"stories/internal/upload"

	"github.com/google/uuid"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id>                 - Grant the moderator role")
	fmt.Println("  admin demote <user_id>                  - Revoke the moderator role")
	fmt.Println("  admin list-moderators                   - List all moderators")
	fmt.Println("  admin recount-likes                     - Recompute like counters from like rows")
	fmt.Println("  admin upload-token <filename> [flagged] - Sign an upload credential (development)")
	fmt.Println("  admin access-token <user_id>            - Sign an access token (development)")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	command := os.Args[1]

	// Token commands only need secrets, not a database.
	switch command {
	case "upload-token":
		requireArgs(3, "admin upload-token <filename> [flagged]")
		issueUploadToken(cfg, os.Args[2], os.Args[3:])
		return
	case "access-token":
		requireArgs(3, "admin access-token <user_id>")
		issueAccessToken(cfg, parseUserID(os.Args[2]))
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()
	users := service.NewUserService(repository.NewUserRepository(db))

	switch command {
	case "promote":
		requireArgs(3, "admin promote <user_id>")
		setModerator(ctx, users, parseUserID(os.Args[2]), true)

	case "demote":
		requireArgs(3, "admin demote <user_id>")
		setModerator(ctx, users, parseUserID(os.Args[2]), false)

	case "list-moderators":
		listModerators(ctx, users)

	case "recount-likes":
		stories := service.NewStoryService(repository.NewStoryRepository(db), nil, nil, nil, nil)
		fixed, err := stories.RecountLikes(ctx)
		if err != nil {
			log.Fatalf("Failed to recount likes: %v", err)
		}
		fmt.Printf("Recounted likes, %d stories updated\n", fixed)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func requireArgs(n int, usage string) {
	if len(os.Args) < n {
		fmt.Println("Usage: " + usage)
		os.Exit(1)
	}
}

func parseUserID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		fmt.Printf("Invalid user ID %q: %v\n", raw, err)
		os.Exit(1)
	}
	return id
}

func setModerator(ctx context.Context, users *service.UserService, userID uuid.UUID, moderator bool) {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.IsModerator == moderator {
		fmt.Printf("User %s (ID: %s) already has moderator=%t\n", user.Username, user.ID, moderator)
		return
	}

	if err := users.SetModerator(ctx, userID, moderator); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("Updated %s (ID: %s): moderator=%t\n", user.Username, user.ID, moderator)
}

func listModerators(ctx context.Context, users *service.UserService) {
	moderators, err := users.ListModerators(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch moderators: %v", err)
	}

	if len(moderators) == 0 {
		fmt.Println("No moderators found")
		return
	}

	fmt.Printf("Moderators (%d):\n", len(moderators))
	for _, m := range moderators {
		fmt.Printf("  %s  %s\n", m.ID, m.Username)
	}
}

func issueUploadToken(cfg *config.Config, filename string, rest []string) {
	var flagged *bool
	if len(rest) > 0 {
		v, err := strconv.ParseBool(rest[0])
		if err != nil {
			fmt.Printf("Invalid flagged value %q\n", rest[0])
			os.Exit(1)
		}
		flagged = &v
	}

	token, err := upload.NewIssuer(cfg.UploadTokenSecret, time.Hour).Issue(filename, flagged)
	if err != nil {
		log.Fatalf("Failed to sign upload credential: %v", err)
	}
	fmt.Println(token)
}

func issueAccessToken(cfg *config.Config, userID uuid.UUID) {
	if cfg.IsProduction() {
		fmt.Println("Refusing to mint access tokens in production")
		os.Exit(1)
	}
	token, err := middleware.IssueAccessToken(cfg.JWTSecret, userID, 30*24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to sign access token: %v", err)
	}
	fmt.Println(token)
}
