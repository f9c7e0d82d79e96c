package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	apperrors "conduit/backend/pkg/errors"
)

// Store drivers understood by the service manager.
const (
	DriverMemory   = "memory"
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// App
	ServiceName     string
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Storage
	StoreDriver string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// PostgreSQL
	PostgresDSN string

	// Feed & views
	FeedDefaultLimit int
	FeedMaxLimit     int
	ViewConcurrency  int

	// Content
	SlugSuffixLength int

	// Identity
	BcryptCost int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:      getEnv("SERVICE_NAME", "conduit"),
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		FeedDefaultLimit: getEnvInt("FEED_DEFAULT_LIMIT", 20),
		FeedMaxLimit:     getEnvInt("FEED_MAX_LIMIT", 100),
		ViewConcurrency:  getEnvInt("VIEW_CONCURRENCY", 8),
		SlugSuffixLength: getEnvInt("SLUG_SUFFIX_LENGTH", 6),
		BcryptCost:       getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return apperrors.NewConfigMissingRequired("POSTGRES_DSN")
		}
	default:
		return apperrors.NewConfigValidationFailed("STORE_DRIVER",
			fmt.Sprintf("unknown driver %q (want memory, neo4j or postgres)", c.StoreDriver))
	}

	if c.FeedDefaultLimit < 1 {
		return apperrors.NewConfigValidationFailed("FEED_DEFAULT_LIMIT", "must be positive")
	}
	if c.FeedMaxLimit < c.FeedDefaultLimit {
		return apperrors.NewConfigValidationFailed("FEED_MAX_LIMIT", "must be >= FEED_DEFAULT_LIMIT")
	}
	if c.ViewConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("VIEW_CONCURRENCY", "must be positive")
	}
	if c.SlugSuffixLength < 4 || c.SlugSuffixLength > 32 {
		return apperrors.NewConfigValidationFailed("SLUG_SUFFIX_LENGTH", "must be between 4 and 32")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return apperrors.NewConfigValidationFailed("BCRYPT_COST",
			fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
