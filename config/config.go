// Package config loads server configuration from the environment.
//
// A .env file in the working directory is honored when present; real
// environment variables always win over the file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server's runtime configuration.
type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	DatabasePath   string   `env:"DATABASE_PATH" envDefault:"donations.db"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	// Missing .env is fine; explicit env vars are enough.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
