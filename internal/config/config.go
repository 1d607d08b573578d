package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
	Port        int    `env:"PORT" envDefault:"8080"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:3000"`

	Database DatabaseConfig

	JWTSecret string `env:"JWT_SECRET"`

	// SessionTTL applies to password logins, SocialSessionTTL to logins
	// through an identity provider.
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SocialSessionTTL time.Duration `env:"SOCIAL_SESSION_TTL" envDefault:"24h"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL" envDefault:"30m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	OAuth OAuthConfig
	SMTP  SMTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN          string `env:"DATABASE_DSN"`
	Host         string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         string `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string `env:"POSTGRES_USER" envDefault:"accountd"`
	Password     string `env:"POSTGRES_PASSWORD" envDefault:"secret"`
	Name         string `env:"POSTGRES_DB" envDefault:"accountd"`
	SSLMode      string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

// OAuthConfig holds OAuth2/OIDC configuration.
// The flow is enabled as soon as an issuer is configured.
type OAuthConfig struct {
	Issuer       string   `env:"OAUTH_ISSUER"`
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
	ProviderName string   `env:"OAUTH_PROVIDER_NAME" envDefault:"oidc"`
}

// Enabled reports whether the OIDC login flow is configured.
func (c OAuthConfig) Enabled() bool {
	return c.Issuer != ""
}

// SMTPConfig holds the outgoing mail configuration used for
// password-reset messages. Mail is skipped when Host is empty.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Load loads configuration from the environment (and .env in development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = buildPostgresDSN(cfg.Database)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{strings.TrimRight(cfg.AppURL, "/")}
	}
	if cfg.OAuth.Enabled() && cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = strings.TrimRight(cfg.AppURL, "/") + "/oauth/callback"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildPostgresDSN(db DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%s", db.Host, db.Port),
		Path:   db.Name,
	}

	query := u.Query()
	query.Set("sslmode", db.SSLMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}

		insecureSecrets := []string{
			"change-this-secret-in-production",
			"change-me-in-production",
			"secret",
			"password",
			"changeme",
		}
		for _, insecure := range insecureSecrets {
			if c.JWTSecret == insecure {
				return fmt.Errorf("JWT_SECRET is set to an insecure default value. Please set a strong random secret")
			}
		}
	}

	if c.OAuth.Enabled() {
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
			return fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required when OAuth is enabled")
		}
	}

	return nil
}
