package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, loaded from environment
// variables.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"GUARDIAN_DB_PATH" envDefault:"guardian.db"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"guardian-dev-secret-change-in-production"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	RefreshGrace time.Duration `env:"REFRESH_GRACE" envDefault:"15m"`
	CodeTTL      time.Duration `env:"CODE_TTL" envDefault:"5m"`

	// AllowedEmailDomains is the tenant-configurable allow-list checked at
	// login and enrollment. A subdomain of an allowed domain is accepted.
	AllowedEmailDomains []string `env:"ALLOWED_EMAIL_DOMAINS" envSeparator:"," envDefault:"utn.ac.cr,est.utn.ac.cr,adm.utn.ac.cr,gmail.com"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"no-reply@guardian.local"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@guardian.local"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"changeme"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
