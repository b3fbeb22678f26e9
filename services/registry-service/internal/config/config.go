// Package config loads the registry service's settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the portal server's runtime settings.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BackendMode selects direct database access or the internal user API.
	// It is read once at startup.
	BackendMode string `env:"BACKEND_MODE" envDefault:"direct"`

	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"member_portal"`

	UserAPIBaseURL       string        `env:"USER_API_URL"`
	UserAPIConsulService string        `env:"USER_API_CONSUL_SERVICE"`
	UserAPITimeout       time.Duration `env:"USER_API_TIMEOUT" envDefault:"10s"`

	TokenIssuer        string        `env:"TOKEN_ISSUER"         envDefault:"member-portal"`
	ServiceTokenSecret string        `env:"SERVICE_TOKEN_SECRET"`
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL"     envDefault:"1h"`
	ResetTokenTTL      time.Duration `env:"RESET_TOKEN_TTL"      envDefault:"15m"`

	PollerInterval      time.Duration `env:"POLLER_INTERVAL"       envDefault:"1h"`
	PendingAgeThreshold time.Duration `env:"PENDING_AGE_THRESHOLD" envDefault:"24h"`
	NotifyCooldown      time.Duration `env:"NOTIFY_COOLDOWN"       envDefault:"120h"`
	NotifyMarkerPath    string        `env:"NOTIFY_MARKER_PATH"    envDefault:"data/last_notified.json"`
	AdminEmail          string        `env:"ADMIN_EMAIL"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
}

// Load parses the portal configuration from environment variables.
func Load(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

func (c *Config) validate() error {
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("missing ACCESS_TOKEN_SECRET environment variable")
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("missing ADMIN_EMAIL environment variable")
	}
	if c.BackendMode == "remote" {
		if c.ServiceTokenSecret == "" {
			return fmt.Errorf("missing SERVICE_TOKEN_SECRET environment variable")
		}
		if c.UserAPIBaseURL == "" && c.UserAPIConsulService == "" {
			return fmt.Errorf("remote mode requires USER_API_URL or USER_API_CONSUL_SERVICE")
		}
	}

	return nil
}

// UserAPIConfig holds the internal user API server's runtime settings.
type UserAPIConfig struct {
	HTTPAddr           string `env:"USERAPI_HTTP_ADDR" envDefault:":8081"`
	MongoURI           string `env:"MONGO_URI"         envDefault:"mongodb://localhost:27017"`
	MongoDatabase      string `env:"MONGO_DATABASE"    envDefault:"member_portal"`
	TokenIssuer        string `env:"TOKEN_ISSUER"      envDefault:"member-portal"`
	ServiceTokenSecret string `env:"SERVICE_TOKEN_SECRET"`
}

// LoadUserAPI parses the user API configuration from environment variables.
func LoadUserAPI(logger *zerolog.Logger) *UserAPIConfig {
	cfg, err := env.ParseAs[UserAPIConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if cfg.ServiceTokenSecret == "" {
		logger.Fatal().Msg("missing SERVICE_TOKEN_SECRET environment variable")
	}

	return &cfg
}
