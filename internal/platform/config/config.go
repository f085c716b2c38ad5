// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct. A local '.env' file, when present, is loaded first with 'joho/godotenv'
so developers do not need to export variables by hand.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to components via constructors.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the NZELA API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath points at a migrations directory on disk. Empty uses the
	// set embedded in the binary.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// SessionSecret signs the session cookie.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Session lifecycle
	SessionTTL           time.Duration `env:"SESSION_TTL"            envDefault:"2h"`
	SessionSingle        bool          `env:"SESSION_SINGLE"         envDefault:"true"`
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME"    envDefault:"nzela_session"`
	SessionSweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 15m"`

	// ExposeSessionExpired reports lapsed sessions as "session_expired" instead of
	// the generic "unauthenticated" reason.
	ExposeSessionExpired bool `env:"AUTH_EXPOSE_SESSION_EXPIRED" envDefault:"false"`

	// Credential policy
	BcryptCost         int           `env:"BCRYPT_COST"          envDefault:"10"`
	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES"   envDefault:"5"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW" envDefault:"15m"`

	// ActivityTouchInterval bounds how often last_activity is written per user.
	ActivityTouchInterval time.Duration `env:"ACTIVITY_TOUCH_INTERVAL" envDefault:"1m"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"nzela.cd"`

	// First superadmin, provisioned at startup when absent.
	BootstrapEmail    string `env:"BOOTSTRAP_SUPERADMIN_EMAIL"`
	BootstrapPassword string `env:"BOOTSTRAP_SUPERADMIN_PASSWORD"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load() (*Config, error) {

	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}
	if c.LoginMaxFailures < 1 {
		return fmt.Errorf("config: LOGIN_MAX_FAILURES must be at least 1, got %d", c.LoginMaxFailures)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffix returns the domain suffix accepted by the CORS middleware.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
