package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "conduit/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("FEED_DEFAULT_LIMIT", "")
	t.Setenv("PORT", "")
	t.Setenv("SERVICE_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "conduit", cfg.ServiceName)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 20, cfg.FeedDefaultLimit)
	assert.Equal(t, 100, cfg.FeedMaxLimit)
	assert.Equal(t, 6, cfg.SlugSuffixLength)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestValidate_Bounds(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:             "8080",
			StoreDriver:      DriverMemory,
			FeedDefaultLimit: 20,
			FeedMaxLimit:     100,
			ViewConcurrency:  4,
			SlugSuffixLength: 6,
			BcryptCost:       10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "redis" }, "STORE_DRIVER"},
		{"max below default", func(c *Config) { c.FeedMaxLimit = 10 }, "FEED_MAX_LIMIT"},
		{"zero concurrency", func(c *Config) { c.ViewConcurrency = 0 }, "VIEW_CONCURRENCY"},
		{"short suffix", func(c *Config) { c.SlugSuffixLength = 2 }, "SLUG_SUFFIX_LENGTH"},
		{"cost too high", func(c *Config) { c.BcryptCost = 99 }, "BCRYPT_COST"},
	}

	assert.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
