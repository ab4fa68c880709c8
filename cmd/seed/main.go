package main

import (
	"log"

	"github.com/studentmart/backend/internal/config"
	"github.com/studentmart/backend/internal/seed"
)

// Seeds the demo catalog into an empty database.
func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if err := seed.Apply(db); err != nil {
		log.Fatalf("seed error: %v", err)
	}
	log.Println("seed complete")
}
