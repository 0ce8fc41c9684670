package main

import (
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/database"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the sql-migrate files")
	down := flag.Bool("down", false, "roll back instead of applying")
	limit := flag.Int("limit", 0, "maximum number of migrations to run (0 = all)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	direction := migrate.Up
	if *down {
		direction = migrate.Down
		if *limit == 0 {
			// rolling back everything has to be asked for explicitly
			*limit = 1
		}
	}

	if err := database.Migrate(db, *dir, direction, *limit); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
