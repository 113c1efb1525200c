// Package config builds the immutable runtime configuration from environment
// variables so main stays lean. Validation happens once at startup: a
// malformed email pattern or a missing signing secret in production is a
// fatal startup error, never a per-request failure path.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"

	dErrors "felicity/pkg/domain-errors"
)

// devSigningKey keeps local development working without secrets plumbing.
// Production refuses to start with it.
const devSigningKey = "dev-secret-key-change-in-production"

// Config captures every tunable the server reads. Loaded once; treated as
// immutable afterwards.
type Config struct {
	Addr        string `env:"FELICITY_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	DatabaseURL  string   `env:"DATABASE_URL"`
	RedisURL     string   `env:"REDIS_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"felicity.audit"`

	JWTSigningKey string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"168h"`
	TokenIssuer   string        `env:"AUTH_TOKEN_ISSUER" envDefault:"felicity"`

	// EmailPattern is the syntactic gate every signup email must pass.
	EmailPattern string `env:"EMAIL_REGEX" envDefault:"^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"`

	// Institute identity rules. OrgName equal to InstituteName forces the
	// IIIT participant type and an institute email.
	InstituteName                  string `env:"INSTITUTE_NAME" envDefault:"International Institute of Information Technology"`
	InstituteEmailDomain           string `env:"INSTITUTE_EMAIL_DOMAIN" envDefault:".iiit.ac.in"`
	RequireInstituteOrganizerEmail bool   `env:"REQUIRE_INSTITUTE_ORGANIZER_EMAIL" envDefault:"true"`

	// Admin bootstrap. Admins are provisioned at startup, never via signup.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PWD"`

	LockoutAttempts int           `env:"LOCKOUT_ATTEMPTS" envDefault:"5"`
	LockoutWindow   time.Duration `env:"LOCKOUT_WINDOW" envDefault:"15m"`
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if _, err := regexp.Compile(cfg.EmailPattern); err != nil {
		return Config{}, dErrors.Wrap(err, dErrors.CodeConfig, "EMAIL_REGEX is not a valid pattern")
	}

	if cfg.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Config{}, dErrors.New(dErrors.CodeConfig, "JWT_SECRET must be set in production")
		}
		cfg.JWTSigningKey = devSigningKey
	}
	if cfg.IsProduction() && cfg.JWTSigningKey == devSigningKey {
		return Config{}, dErrors.New(dErrors.CodeConfig, "JWT_SECRET must not be the development default in production")
	}

	if cfg.LockoutAttempts <= 0 {
		return Config{}, dErrors.New(dErrors.CodeConfig, "LOCKOUT_ATTEMPTS must be positive")
	}

	return cfg, nil
}

// CompiledEmailPattern returns the email regexp. Load has already verified it
// compiles.
func (c Config) CompiledEmailPattern() *regexp.Regexp {
	return regexp.MustCompile(c.EmailPattern)
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
