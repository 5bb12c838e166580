// Command main drops every stories table so the next start rebuilds the schema.
package main

import (
	"flag"
	"fmt"
	"log"

	"stories/internal/config"
	"stories/internal/database"
)

func main() {
	confirm := flag.Bool("yes", false, "Confirm the database should be wiped")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to nuke a production database")
	}
	if !*confirm {
		log.Fatal("Pass -yes to wipe the database")
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.Close() }()

	fmt.Println("Nuking database...")
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
			log.Fatalf("failed to nuke schema: %v", err)
		}
		if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
			log.Fatalf("failed to grant schema permissions: %v", err)
		}
	} else {
		// Children first so foreign keys never block a drop.
		models := database.PersistentModels()
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				log.Fatalf("failed to drop %T: %v", models[i], err)
			}
		}
	}
	fmt.Println("Database nuked.")
}
