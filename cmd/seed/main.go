// Command main runs the database seeder for the stories backend.
package main

import (
	"flag"
	"log"
	"time"

	"stories/internal/config"
	"stories/internal/database"
	"stories/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numText := flag.Int("text-stories", 150, "Number of text stories to create")
	numGif := flag.Int("gif-stories", 50, "Number of gif stories to create")
	maxLikes := flag.Int("max-likes", 30, "Maximum likes per story")
	maxAge := flag.Duration("max-age", 7*24*time.Hour, "Spread story creation times over this window")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d text stories, %d gif stories, clean=%v\n", *numUsers, *numText, *numGif, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	s := seed.NewSeeder(db, seed.SeedOptions{MaxAge: *maxAge, Seed: *randSeed})
	res, err := s.Seed(seed.Options{
		NumUsers:         *numUsers,
		NumTextStories:   *numText,
		NumGifStories:    *numGif,
		MaxLikesPerStory: *maxLikes,
		ShouldClean:      *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d stories, %d likes.\n", res.Users, res.Stories, res.Likes)
}
