package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// tags. internal/config layers its own validation on top of this; callers
// should go through that package rather than Load directly.
//
// Example:
//
//	type Config struct {
//	    Port            int    `env:"HTTP_PORT" envDefault:"8080"`
//	    JWTAccessSecret string `env:"JWT_ACCESS_SECRET"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
