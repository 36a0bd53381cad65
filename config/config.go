package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Cache    CacheConfig
	Matching MatchingConfig
	Pricing  PricingConfig
	Catalog  CatalogConfig
	Vision   VisionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// StoreConfig selects where catalogs and rates are persisted
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type        string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL    string        `mapstructure:"redis_url"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	RateTTL     time.Duration `mapstructure:"rate_ttl"`
}

// MatchingConfig holds fuzzy matching configuration
type MatchingConfig struct {
	ConversationalThreshold float64  `mapstructure:"conversational_threshold"`
	InventoryThreshold      float64  `mapstructure:"inventory_threshold"`
	NoisePhrases            []string `mapstructure:"noise_phrases"` // empty uses the built-in list
	Debug                   bool     `mapstructure:"debug"`         // log every candidate score
}

// PricingConfig holds price rendering configuration
type PricingConfig struct {
	DefaultRate  float64 `mapstructure:"default_rate"` // 0 disables the fallback
	DecimalWord  string  `mapstructure:"decimal_word"`
	CurrencyWord string  `mapstructure:"currency_word"` // "-" reads prices without a currency name
}

// CatalogConfig holds spreadsheet import configuration
type CatalogConfig struct {
	NameColumn   int    `mapstructure:"name_column"`
	PriceColumn  int    `mapstructure:"price_column"`
	StockColumn  int    `mapstructure:"stock_column"` // -1 when files carry no stock
	HasHeader    bool   `mapstructure:"has_header"`
	CSVDelimiter string `mapstructure:"csv_delimiter"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb"`
}

// VisionConfig holds prescription reading configuration
type VisionConfig struct {
	Provider          string `mapstructure:"provider"` // "gemini" or "none"
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// Enabled reports whether prescription reading can be used
func (v VisionConfig) Enabled() bool {
	return v.Provider == "gemini" && v.APIKey != ""
}

// Load loads configuration from a .env file, environment variables and config files
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
	v.AddConfigPath("/etc/pharmavoz/")

	// PHARMAVOZ_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("PHARMAVOZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports the variables of ./.env, if present. Variables already set in the
// environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so that AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Store defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/pharmavoz.db")
	v.SetDefault("store.postgres_url", "")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.snapshot_ttl", "5m")
	v.SetDefault("cache.rate_ttl", "10m")

	// Matching defaults
	v.SetDefault("matching.conversational_threshold", 45.0)
	v.SetDefault("matching.inventory_threshold", 60.0)
	v.SetDefault("matching.noise_phrases", []string{})
	v.SetDefault("matching.debug", false)

	// Pricing defaults
	v.SetDefault("pricing.default_rate", 0.0)
	v.SetDefault("pricing.decimal_word", "con")
	v.SetDefault("pricing.currency_word", "bolívares")

	// Catalog defaults
	v.SetDefault("catalog.name_column", 0)
	v.SetDefault("catalog.price_column", 1)
	v.SetDefault("catalog.stock_column", 2)
	v.SetDefault("catalog.has_header", true)
	v.SetDefault("catalog.csv_delimiter", ",")
	v.SetDefault("catalog.max_upload_mb", 10)

	// Vision defaults
	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "gemini-2.0-flash")
	v.SetDefault("vision.requests_per_minute", 15)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Driver {
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when store driver is 'sqlite'")
		}
	case "postgres":
		if config.Store.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required when store driver is 'postgres' (set PHARMAVOZ_STORE_POSTGRES_URL)")
		}
	default:
		return fmt.Errorf("store driver must be 'sqlite' or 'postgres', got: %s", config.Store.Driver)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.SnapshotTTL <= 0 || config.Cache.RateTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	for name, threshold := range map[string]float64{
		"conversational": config.Matching.ConversationalThreshold,
		"inventory":      config.Matching.InventoryThreshold,
	} {
		if threshold <= 0 || threshold > 100 {
			return fmt.Errorf("%s threshold must be in (0, 100], got: %v", name, threshold)
		}
	}

	if config.Pricing.DefaultRate < 0 {
		return fmt.Errorf("default rate must not be negative, got: %v", config.Pricing.DefaultRate)
	}

	if config.Catalog.NameColumn < 0 || config.Catalog.PriceColumn < 0 {
		return fmt.Errorf("catalog name and price columns must not be negative")
	}

	if config.Catalog.MaxUploadMB <= 0 {
		return fmt.Errorf("catalog max upload size must be positive")
	}

	if config.Vision.Provider != "gemini" && config.Vision.Provider != "none" {
		return fmt.Errorf("vision provider must be 'gemini' or 'none', got: %s", config.Vision.Provider)
	}

	return nil
}
