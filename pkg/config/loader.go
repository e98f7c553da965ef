package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into cfg using `env` struct tags.
// Fields tagged `required` must be present and non-empty, so a deploy with
// a blank GATEWAY_WEBHOOK_SECRET fails at startup rather than at the first
// webhook.
//
// Example:
//
//	type Config struct {
//	    HTTPPort      int    `env:"HTTP_PORT" envDefault:"8080"`
//	    GatewayAPIKey string `env:"GATEWAY_API_KEY" envDefault:""`
//	}
func Load(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{RequiredNotEmpty: true}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
