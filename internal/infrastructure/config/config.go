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
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Search    SearchConfig
	Analytics AnalyticsConfig
	Shipping  ShippingConfig
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

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// SearchConfig holds search engine and autocomplete settings
type SearchConfig struct {
	MinQueryLength int           // below this, autocomplete returns empty without touching storage
	MaxSuggestions int           // cap on autocomplete entries
	ResultCacheTTL time.Duration // TTL for cached search result pages
}

// AnalyticsConfig holds search analytics settings
type AnalyticsConfig struct {
	Enabled           bool
	AnonymizeQueries  bool          // replace raw query text with a non-cryptographic hash
	SnapshotRetention time.Duration // per-query snapshot expiry
	PopularRetention  time.Duration // popularity counter expiry
	ZeroResultWindow  int           // rolling per-tenant window of zero-result queries
}

// ShippingConfig holds carrier integration settings
type ShippingConfig struct {
	RateCacheTTL   time.Duration
	RequestTimeout time.Duration
	UPS            CarrierConfig
	FedEx          CarrierConfig
	USPS           CarrierConfig
}

// CarrierConfig holds one carrier's API settings
type CarrierConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g. STOREFRONT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Boolean defaults must be declared up front; a missing key and an
	// explicit false are otherwise indistinguishable
	v.SetDefault("analytics.enabled", true)
	v.SetDefault("shipping.ups.enabled", true)
	v.SetDefault("shipping.fedex.enabled", true)
	v.SetDefault("shipping.usps.enabled", true)

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
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Search: SearchConfig{
			MinQueryLength: v.GetInt("search.min_query_length"),
			MaxSuggestions: v.GetInt("search.max_suggestions"),
			ResultCacheTTL: v.GetDuration("search.result_cache_ttl"),
		},
		Analytics: AnalyticsConfig{
			Enabled:           v.GetBool("analytics.enabled"),
			AnonymizeQueries:  v.GetBool("analytics.anonymize_queries"),
			SnapshotRetention: v.GetDuration("analytics.snapshot_retention"),
			PopularRetention:  v.GetDuration("analytics.popular_retention"),
			ZeroResultWindow:  v.GetInt("analytics.zero_result_window"),
		},
		Shipping: ShippingConfig{
			RateCacheTTL:   v.GetDuration("shipping.rate_cache_ttl"),
			RequestTimeout: v.GetDuration("shipping.request_timeout"),
			UPS: CarrierConfig{
				Enabled: v.GetBool("shipping.ups.enabled"),
				BaseURL: v.GetString("shipping.ups.base_url"),
				APIKey:  v.GetString("shipping.ups.api_key"),
			},
			FedEx: CarrierConfig{
				Enabled: v.GetBool("shipping.fedex.enabled"),
				BaseURL: v.GetString("shipping.fedex.base_url"),
				APIKey:  v.GetString("shipping.fedex.api_key"),
			},
			USPS: CarrierConfig{
				Enabled: v.GetBool("shipping.usps.enabled"),
				BaseURL: v.GetString("shipping.usps.base_url"),
				APIKey:  v.GetString("shipping.usps.api_key"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-backend"
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
		cfg.Database.DBName = "storefront"
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
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = 2
	}
	if cfg.Search.MaxSuggestions == 0 {
		cfg.Search.MaxSuggestions = 8
	}
	if cfg.Search.ResultCacheTTL == 0 {
		cfg.Search.ResultCacheTTL = 5 * time.Minute
	}
	if cfg.Analytics.SnapshotRetention == 0 {
		cfg.Analytics.SnapshotRetention = 24 * time.Hour
	}
	if cfg.Analytics.PopularRetention == 0 {
		cfg.Analytics.PopularRetention = 7 * 24 * time.Hour
	}
	if cfg.Analytics.ZeroResultWindow == 0 {
		cfg.Analytics.ZeroResultWindow = 100
	}
	if cfg.Shipping.RateCacheTTL == 0 {
		cfg.Shipping.RateCacheTTL = 24 * time.Hour
	}
	if cfg.Shipping.RequestTimeout == 0 {
		cfg.Shipping.RequestTimeout = 10 * time.Second
	}
	// Carriers default to enabled with their public API endpoints; keys
	// must come from config or environment
	applyCarrierDefaults(&cfg.Shipping.UPS, "https://onlinetools.ups.com/api")
	applyCarrierDefaults(&cfg.Shipping.FedEx, "https://apis.fedex.com")
	applyCarrierDefaults(&cfg.Shipping.USPS, "https://api.usps.com")
}

func applyCarrierDefaults(c *CarrierConfig, baseURL string) {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be at least 1")
	}
	if c.Search.MaxSuggestions < 1 {
		return fmt.Errorf("search.max_suggestions must be at least 1")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
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
