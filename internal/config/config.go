// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	SessionTokenTTL time.Duration `mapstructure:"SESSION_TOKEN_TTL"`
	SessionIssuer   string        `mapstructure:"SESSION_ISSUER"`
	SessionAudience string        `mapstructure:"SESSION_AUDIENCE"`

	IdentityIssuer      string        `mapstructure:"IDENTITY_ISSUER"`
	IdentityAudience    string        `mapstructure:"IDENTITY_AUDIENCE"`
	IdentityJWKSURL     string        `mapstructure:"IDENTITY_JWKS_URL"`
	IdentityHTTPTimeout time.Duration `mapstructure:"IDENTITY_HTTP_TIMEOUT"`
	IdentityClockSkew   time.Duration `mapstructure:"IDENTITY_CLOCK_SKEW"`
	IdentityKeyRefresh  time.Duration `mapstructure:"IDENTITY_JWKS_REFRESH_INTERVAL"`

	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	SeedCatalogOnStart            bool   `mapstructure:"SEED_CATALOG_ON_START"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	AuthRateLimit   int           `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindow  time.Duration `mapstructure:"AUTH_RATE_WINDOW"`
	WriteRateLimit  int           `mapstructure:"WRITE_RATE_LIMIT"`
	WriteRateWindow time.Duration `mapstructure:"WRITE_RATE_WINDOW"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SESSION_TOKEN_TTL", "24h")
	v.SetDefault("SESSION_ISSUER", "vinoteca-api")
	v.SetDefault("SESSION_AUDIENCE", "vinoteca-app")

	v.SetDefault("IDENTITY_ISSUER", "https://accounts.google.com")
	v.SetDefault("IDENTITY_AUDIENCE", "")
	v.SetDefault("IDENTITY_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs")
	v.SetDefault("IDENTITY_HTTP_TIMEOUT", "5s")
	v.SetDefault("IDENTITY_CLOCK_SKEW", "30s")
	v.SetDefault("IDENTITY_JWKS_REFRESH_INTERVAL", "1h")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "vinoteca")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "vinoteca")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_READ_HOST", "")
	v.SetDefault("DB_READ_PORT", "5432")
	v.SetDefault("DB_READ_USER", "vinoteca")
	v.SetDefault("DB_READ_PASSWORD", "password")
	v.SetDefault("DB_SCHEMA_MODE", "hybrid")
	v.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	v.SetDefault("SEED_CATALOG_ON_START", false)

	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("AUTH_RATE_LIMIT", 10)
	v.SetDefault("AUTH_RATE_WINDOW", "5m")
	v.SetDefault("WRITE_RATE_LIMIT", 30)
	v.SetDefault("WRITE_RATE_WINDOW", "1m")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from file and environment variables.
// config.yml is read first; for any APP_ENV other than development a
// config.<env>.yml profile must exist and is merged on top. Environment
// variables override both.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	// The base file is optional
	_ = v.ReadInConfig()

	env := strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV")))
	if env != "" && env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// IsProduction reports whether strict production checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTokenTTL <= 0 {
		return errors.New("SESSION_TOKEN_TTL must be positive")
	}
	if c.IdentityIssuer == "" {
		return errors.New("IDENTITY_ISSUER is required")
	}
	if u, err := url.Parse(c.IdentityJWKSURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("IDENTITY_JWKS_URL must be an absolute URL, got %q", c.IdentityJWKSURL)
	}
	if c.IdentityHTTPTimeout <= 0 {
		return errors.New("IDENTITY_HTTP_TIMEOUT must be positive")
	}
	if c.IdentityClockSkew < 0 {
		return errors.New("IDENTITY_CLOCK_SKEW must not be negative")
	}
	if c.IdentityKeyRefresh < time.Minute {
		return errors.New("IDENTITY_JWKS_REFRESH_INTERVAL must be at least 1m")
	}
	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be within [0, 1]")
	}
	switch c.DBSchemaMode {
	case "", "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", c.DBSchemaMode)
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.IdentityAudience == "" {
			return errors.New("IDENTITY_AUDIENCE is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
		if c.IdentityAudience == "" {
			log.Println("WARNING: IDENTITY_AUDIENCE is empty; every identity token will be rejected.")
		}
	}

	return nil
}
