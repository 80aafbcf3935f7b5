package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Marketplace MarketplaceConfig
	Sync        SyncConfig
	Scheduler   SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// CronToken guards the sync-triggering endpoints. Requests must carry it
	// as a bearer token or ?token= parameter.
	CronToken string
}

// MarketplaceConfig holds the marketplace API client settings
type MarketplaceConfig struct {
	// APIKey authenticates every marketplace call
	APIKey string
	// Sandbox switches the client to the sandbox environment
	Sandbox bool
	// BaseURL overrides the environment-derived API root when set
	BaseURL string
	// TimeoutSeconds bounds a single HTTP call
	TimeoutSeconds int
	// RequestsPerSecond throttles outbound calls client-side
	RequestsPerSecond float64
}

// SyncConfig holds the synchronization engine settings
type SyncConfig struct {
	// ExternalIDPrefix prefixes derived marketplace identifiers
	ExternalIDPrefix string
	// BatchSize is how many product links one database fetch returns
	BatchSize int
	// InboxLimit is the inbox page size, capped at 100
	InboxLimit int
	// MaxInboxBatches bounds how many inbox pages one run consumes
	MaxInboxBatches int
	// DispatchDays is the promised dispatch time on pushed products
	DispatchDays int
	// ShippingTag is an optional packaging tag on pushed products
	ShippingTag string
	// DefaultCountry receives orders whose address country is unknown
	DefaultCountry string
	// CarrierID is assigned to imported orders
	CarrierID int64
	// PaymentMethod labels marketplace payments on imported orders
	PaymentMethod string
	// State names for imported orders
	StatePending   string
	StatePaid      string
	StateCancelled string
	StateDefault   string
}

// SchedulerConfig holds the background sync loop settings
type SchedulerConfig struct {
	Enabled         bool
	ProductInterval time.Duration
	InboxInterval   time.Duration
	JobTimeout      time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ERLI_ prefix (e.g., ERLI_MARKETPLACE_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ERLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			CronToken:    v.GetString("http.cron_token"),
		},
		Marketplace: MarketplaceConfig{
			APIKey:            v.GetString("marketplace.api_key"),
			Sandbox:           v.GetBool("marketplace.sandbox"),
			BaseURL:           v.GetString("marketplace.base_url"),
			TimeoutSeconds:    v.GetInt("marketplace.timeout_seconds"),
			RequestsPerSecond: v.GetFloat64("marketplace.requests_per_second"),
		},
		Sync: SyncConfig{
			ExternalIDPrefix: v.GetString("sync.external_id_prefix"),
			BatchSize:        v.GetInt("sync.batch_size"),
			InboxLimit:       v.GetInt("sync.inbox_limit"),
			MaxInboxBatches:  v.GetInt("sync.max_inbox_batches"),
			DispatchDays:     v.GetInt("sync.dispatch_days"),
			ShippingTag:      v.GetString("sync.shipping_tag"),
			DefaultCountry:   v.GetString("sync.default_country"),
			CarrierID:        v.GetInt64("sync.carrier_id"),
			PaymentMethod:    v.GetString("sync.payment_method"),
			StatePending:     v.GetString("sync.state_pending"),
			StatePaid:        v.GetString("sync.state_paid"),
			StateCancelled:   v.GetString("sync.state_cancelled"),
			StateDefault:     v.GetString("sync.state_default"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         v.GetBool("scheduler.enabled"),
			ProductInterval: v.GetDuration("scheduler.product_interval"),
			InboxInterval:   v.GetDuration("scheduler.inbox_interval"),
			JobTimeout:      v.GetDuration("scheduler.job_timeout"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erli-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "erli_sync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Sync runs are triggered synchronously over HTTP and can be slow
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Marketplace.TimeoutSeconds == 0 {
		cfg.Marketplace.TimeoutSeconds = 30
	}
	if cfg.Marketplace.RequestsPerSecond == 0 {
		cfg.Marketplace.RequestsPerSecond = 5
	}
	if cfg.Sync.ExternalIDPrefix == "" {
		cfg.Sync.ExternalIDPrefix = "ps"
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 20
	}
	if cfg.Sync.InboxLimit == 0 {
		cfg.Sync.InboxLimit = 100
	}
	if cfg.Sync.MaxInboxBatches == 0 {
		cfg.Sync.MaxInboxBatches = 10
	}
	if cfg.Sync.DispatchDays == 0 {
		cfg.Sync.DispatchDays = 1
	}
	if cfg.Sync.DefaultCountry == "" {
		cfg.Sync.DefaultCountry = "PL"
	}
	if cfg.Sync.PaymentMethod == "" {
		cfg.Sync.PaymentMethod = "Erli Payment"
	}
	if cfg.Sync.StatePending == "" {
		cfg.Sync.StatePending = "awaiting_payment"
	}
	if cfg.Sync.StatePaid == "" {
		cfg.Sync.StatePaid = "payment_accepted"
	}
	if cfg.Sync.StateCancelled == "" {
		cfg.Sync.StateCancelled = "canceled"
	}
	if cfg.Sync.StateDefault == "" {
		cfg.Sync.StateDefault = cfg.Sync.StatePending
	}
	if cfg.Scheduler.ProductInterval == 0 {
		cfg.Scheduler.ProductInterval = 15 * time.Minute
	}
	if cfg.Scheduler.InboxInterval == 0 {
		cfg.Scheduler.InboxInterval = 5 * time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.InboxLimit < 1 || c.Sync.InboxLimit > 100 {
		return fmt.Errorf("sync.inbox_limit must be between 1 and 100, got %d", c.Sync.InboxLimit)
	}
	if c.Marketplace.RequestsPerSecond < 0 {
		return fmt.Errorf("marketplace.requests_per_second cannot be negative")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Marketplace.APIKey == "" {
			return fmt.Errorf("marketplace.api_key is required in production")
		}
		if c.Marketplace.Sandbox {
			return fmt.Errorf("marketplace.sandbox must be false in production")
		}
		if c.HTTP.CronToken == "" {
			return fmt.Errorf("http.cron_token is required in production")
		}
		if len(c.HTTP.CronToken) < 32 {
			return fmt.Errorf("http.cron_token must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
