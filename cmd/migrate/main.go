package main

import (
	"flag"
	"log"

	"github.com/closehq/close-api/internal/config"
	"github.com/closehq/close-api/migrations"
)

// Applies pending migrations, or rolls the last one back with -down.
// The server runs migrations on startup too; this tool exists for ops
// work against a database without booting the API.
func main() {
	down := flag.Bool("down", false, "roll back the last migration instead of migrating up")
	flag.Parse()

	cfg := config.Load()

	if *down {
		if err := migrations.Rollback(cfg.DB.URL()); err != nil {
			log.Fatalf("[migrate] %v", err)
		}
		return
	}

	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Fatalf("[migrate] %v", err)
	}
}
