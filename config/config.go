package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Overrides OverridesConfig
	Matching  MatchingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig points at the per-run catalog snapshot export.
type CatalogConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// OverridesConfig holds the override store location.
type OverridesConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// MatchingConfig carries the tolerance constants of the matching and
// unit-resolution pipeline. The defaults were tuned empirically against
// this business's catalog; override them per installation, do not
// "improve" them in code.
type MatchingConfig struct {
	MinConfidence         float64 `mapstructure:"min_confidence"`
	HighConfidence        float64 `mapstructure:"high_confidence"`
	MinSimilarity         float64 `mapstructure:"min_similarity"`
	CategoryBoostMax      float64 `mapstructure:"category_boost_max"`
	VendorBoost           float64 `mapstructure:"vendor_boost"`
	PriceBoostMax         float64 `mapstructure:"price_boost_max"`
	PriceWindow           float64 `mapstructure:"price_window"`
	PriceTolerance        float64 `mapstructure:"price_tolerance"`
	DivisibilityTolerance float64 `mapstructure:"divisibility_tolerance"`
	Workers               int     `mapstructure:"workers"`
	// VendorAliases maps receipt header spellings to canonical vendor
	// names, e.g. "usf" -> "us foods".
	VendorAliases map[string]string `mapstructure:"vendor_aliases"`
}

// CacheConfig holds result-cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/receiptly/")

	v.SetEnvPrefix("RECEIPTLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("catalog.snapshot_path", "catalog_snapshot.json")
	v.SetDefault("overrides.db_path", "overrides.db")

	v.SetDefault("matching.min_confidence", 0.6)
	v.SetDefault("matching.high_confidence", 0.8)
	v.SetDefault("matching.min_similarity", 0.6)
	v.SetDefault("matching.category_boost_max", 0.15)
	v.SetDefault("matching.vendor_boost", 0.2)
	v.SetDefault("matching.price_boost_max", 0.15)
	v.SetDefault("matching.price_window", 0.30)
	v.SetDefault("matching.price_tolerance", 0.15)
	v.SetDefault("matching.divisibility_tolerance", 0.01)
	v.SetDefault("matching.workers", 0)

	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.SnapshotPath == "" {
		return fmt.Errorf("catalog snapshot path is required (set RECEIPTLY_CATALOG_SNAPSHOT_PATH)")
	}
	if config.Overrides.DBPath == "" {
		return fmt.Errorf("override store path is required (set RECEIPTLY_OVERRIDES_DB_PATH)")
	}

	m := config.Matching
	if m.MinConfidence <= 0 || m.MinConfidence > 1 {
		return fmt.Errorf("matching.min_confidence must be in (0,1], got: %v", m.MinConfidence)
	}
	if m.HighConfidence < m.MinConfidence || m.HighConfidence > 1 {
		return fmt.Errorf("matching.high_confidence must be in [min_confidence,1], got: %v", m.HighConfidence)
	}
	if m.PriceTolerance <= 0 || m.PriceTolerance >= 1 {
		return fmt.Errorf("matching.price_tolerance must be in (0,1), got: %v", m.PriceTolerance)
	}
	if m.PriceWindow <= 0 || m.PriceWindow >= 1 {
		return fmt.Errorf("matching.price_window must be in (0,1), got: %v", m.PriceWindow)
	}

	return nil
}
