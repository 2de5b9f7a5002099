package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Geocoding  GeocodingConfig  `mapstructure:"geocoding"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Comparison ComparisonConfig `mapstructure:"comparison"`
	Events     EventsConfig     `mapstructure:"events"`
	Search     SearchConfig     `mapstructure:"search"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	Type string `mapstructure:"type"` // "memory" or "pebble"
	Path string `mapstructure:"path"`
}

// GeocodingConfig holds geocoding API configuration
type GeocodingConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Debug             bool          `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// ComparisonConfig holds price comparison settings
type ComparisonConfig struct {
	MissingItemPolicy string `mapstructure:"missing_item_policy"`
}

// EventsConfig holds event publishing configuration. No brokers disables publishing.
type EventsConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// SearchConfig holds product search tuning
type SearchConfig struct {
	MinScore float64 `mapstructure:"min_score"`
	Fuzzy    bool    `mapstructure:"fuzzy"`
	Limit    int     `mapstructure:"limit"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricewise/")

	// PRICEWISE_GEOCODING_BASE_URL -> geocoding.base_url
	v.SetEnvPrefix("PRICEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can bind it during Unmarshal
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "data/pricewise")

	// Geocoding defaults (public Nominatim allows one request per second)
	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.api_key", "")
	v.SetDefault("geocoding.user_agent", "Pricewise/1.0")
	v.SetDefault("geocoding.requests_per_second", 1.0)
	v.SetDefault("geocoding.burst", 1)
	v.SetDefault("geocoding.timeout", "10s")
	v.SetDefault("geocoding.debug", false)

	// Cache defaults
	v.SetDefault("cache.ttl", "720h") // 30 days
	v.SetDefault("cache.cleanup_interval", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("comparison.missing_item_policy", "zero_cost")

	v.SetDefault("events.brokers", "")
	v.SetDefault("events.topic", "pricewise.prices")

	// Search defaults
	v.SetDefault("search.min_score", 30.0)
	v.SetDefault("search.fuzzy", true)
	v.SetDefault("search.limit", 10)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Storage.Type != "memory" && config.Storage.Type != "pebble" {
		return fmt.Errorf("storage type must be 'memory' or 'pebble', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "pebble" && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required when storage type is 'pebble'")
	}

	switch config.Comparison.MissingItemPolicy {
	case "zero_cost", "exclude_incomplete":
	default:
		return fmt.Errorf("missing item policy must be 'zero_cost' or 'exclude_incomplete', got: %s",
			config.Comparison.MissingItemPolicy)
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Log.Level)
	}

	if config.Geocoding.RequestsPerSecond < 0 {
		return fmt.Errorf("geocoding requests_per_second must not be negative")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative")
	}

	if config.Events.Brokers != "" && config.Events.Topic == "" {
		return fmt.Errorf("events topic is required when brokers are set")
	}

	return nil
}
