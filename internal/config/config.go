package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Secret          string
	DatabasePath    string
	HTTPPort        string
	RateLimitWindow time.Duration
	RateLimitMax    int
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "pos.db"
	}

	windowMinutes := envInt("RATE_LIMIT_WINDOW", 15)
	maxRequests := envInt("RATE_LIMIT_MAX_REQUESTS", 100)

	return Config{
		Secret:          secret,
		DatabasePath:    dbPath,
		HTTPPort:        port,
		RateLimitWindow: time.Duration(windowMinutes) * time.Minute,
		RateLimitMax:    maxRequests,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return val
}
