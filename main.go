package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"tillpoint/m/internal/api"
	"tillpoint/m/internal/config"
	"tillpoint/m/internal/database"
	"tillpoint/m/internal/migrations"
	"tillpoint/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabasePath)
	defer db.Close()

	migrations.Run(db)
	seed.EnsureAdmin(db)

	handler := api.New(db, cfg.Secret, cfg.RateLimitWindow, cfg.RateLimitMax)

	log.Printf("POS server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
