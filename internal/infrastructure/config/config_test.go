package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"ERLI_APP_NAME":                os.Getenv("ERLI_APP_NAME"),
		"ERLI_APP_ENV":                 os.Getenv("ERLI_APP_ENV"),
		"ERLI_APP_PORT":                os.Getenv("ERLI_APP_PORT"),
		"ERLI_DATABASE_HOST":           os.Getenv("ERLI_DATABASE_HOST"),
		"ERLI_DATABASE_PORT":           os.Getenv("ERLI_DATABASE_PORT"),
		"ERLI_DATABASE_USER":           os.Getenv("ERLI_DATABASE_USER"),
		"ERLI_DATABASE_PASSWORD":       os.Getenv("ERLI_DATABASE_PASSWORD"),
		"ERLI_DATABASE_DBNAME":         os.Getenv("ERLI_DATABASE_DBNAME"),
		"ERLI_DATABASE_SSLMODE":        os.Getenv("ERLI_DATABASE_SSLMODE"),
		"ERLI_DATABASE_MAX_OPEN_CONNS": os.Getenv("ERLI_DATABASE_MAX_OPEN_CONNS"),
		"ERLI_DATABASE_MAX_IDLE_CONNS": os.Getenv("ERLI_DATABASE_MAX_IDLE_CONNS"),
		"ERLI_MARKETPLACE_API_KEY":     os.Getenv("ERLI_MARKETPLACE_API_KEY"),
		"ERLI_MARKETPLACE_SANDBOX":     os.Getenv("ERLI_MARKETPLACE_SANDBOX"),
		"ERLI_HTTP_CRON_TOKEN":         os.Getenv("ERLI_HTTP_CRON_TOKEN"),
		"ERLI_SYNC_INBOX_LIMIT":        os.Getenv("ERLI_SYNC_INBOX_LIMIT"),
		"ERLI_SYNC_BATCH_SIZE":         os.Getenv("ERLI_SYNC_BATCH_SIZE"),
		"ERLI_SYNC_EXTERNAL_ID_PREFIX": os.Getenv("ERLI_SYNC_EXTERNAL_ID_PREFIX"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erli-sync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "erli_sync", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "ps", cfg.Sync.ExternalIDPrefix)
		assert.Equal(t, 100, cfg.Sync.InboxLimit)
		assert.Equal(t, 10, cfg.Sync.MaxInboxBatches)
		assert.Equal(t, "PL", cfg.Sync.DefaultCountry)
		assert.Equal(t, "payment_accepted", cfg.Sync.StatePaid)
		assert.Equal(t, cfg.Sync.StatePending, cfg.Sync.StateDefault)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.InboxInterval)
	})

	t.Run("loads values from environment variables with ERLI prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERLI_APP_NAME", "test-app")
		os.Setenv("ERLI_APP_ENV", "testing")
		os.Setenv("ERLI_APP_PORT", "9000")
		os.Setenv("ERLI_DATABASE_HOST", "testdb.local")
		os.Setenv("ERLI_DATABASE_PORT", "5433")
		os.Setenv("ERLI_DATABASE_USER", "testuser")
		os.Setenv("ERLI_DATABASE_PASSWORD", "testpass")
		os.Setenv("ERLI_DATABASE_DBNAME", "testdb")
		os.Setenv("ERLI_MARKETPLACE_API_KEY", "key-123")
		os.Setenv("ERLI_MARKETPLACE_SANDBOX", "true")
		os.Setenv("ERLI_SYNC_INBOX_LIMIT", "25")
		os.Setenv("ERLI_SYNC_BATCH_SIZE", "50")
		os.Setenv("ERLI_SYNC_EXTERNAL_ID_PREFIX", "shop")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "key-123", cfg.Marketplace.APIKey)
		assert.True(t, cfg.Marketplace.Sandbox)
		assert.Equal(t, 25, cfg.Sync.InboxLimit)
		assert.Equal(t, 50, cfg.Sync.BatchSize)
		assert.Equal(t, "shop", cfg.Sync.ExternalIDPrefix)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERLI_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ERLI_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERLI_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates inbox limit upper bound", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERLI_SYNC_INBOX_LIMIT", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.inbox_limit")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"ERLI_APP_ENV":             os.Getenv("ERLI_APP_ENV"),
		"ERLI_MARKETPLACE_API_KEY": os.Getenv("ERLI_MARKETPLACE_API_KEY"),
		"ERLI_MARKETPLACE_SANDBOX": os.Getenv("ERLI_MARKETPLACE_SANDBOX"),
		"ERLI_HTTP_CRON_TOKEN":     os.Getenv("ERLI_HTTP_CRON_TOKEN"),
		"ERLI_DATABASE_PASSWORD":   os.Getenv("ERLI_DATABASE_PASSWORD"),
		"ERLI_DATABASE_SSLMODE":    os.Getenv("ERLI_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("ERLI_APP_ENV", "production")
		os.Setenv("ERLI_MARKETPLACE_API_KEY", "live-api-key")
		os.Setenv("ERLI_MARKETPLACE_SANDBOX", "false")
		os.Setenv("ERLI_HTTP_CRON_TOKEN", "this-cron-token-is-at-least-32-chars")
		os.Setenv("ERLI_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ERLI_DATABASE_SSLMODE", "require")
	}

	t.Run("requires marketplace.api_key in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("ERLI_MARKETPLACE_API_KEY")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marketplace.api_key is required in production")
	})

	t.Run("rejects sandbox mode in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ERLI_MARKETPLACE_SANDBOX", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marketplace.sandbox must be false in production")
	})

	t.Run("requires http.cron_token in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("ERLI_HTTP_CRON_TOKEN")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.cron_token is required in production")
	})

	t.Run("requires http.cron_token of at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ERLI_HTTP_CRON_TOKEN", "short-token")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.cron_token must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("ERLI_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ERLI_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
