package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Firestore  FirestoreConfig
	Cache      CacheConfig
	Catalog    CatalogConfig
	Retailers  RetailersConfig
	Correction CorrectionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FirestoreConfig holds document store configuration. When Enabled is false
// the service runs on the local catalog snapshots alone.
type FirestoreConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ProjectID       string        `mapstructure:"project_id"`
	DatabaseID      string        `mapstructure:"database_id"`
	Collection      string        `mapstructure:"collection"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CredentialsFile string        `mapstructure:"credentials_file"`
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// CatalogConfig holds catalog source configuration
type CatalogConfig struct {
	// LocalDir is the directory of per-retailer JSON snapshots used when the
	// document store is unreachable.
	LocalDir string `mapstructure:"local_dir"`

	// FallbackTypes are the product types reported per store brand when no
	// catalog source can produce one.
	FallbackTypes map[string][]string `mapstructure:"fallback_types"`
}

// RetailersConfig holds per store brand API configuration
type RetailersConfig struct {
	Brands  []string       `mapstructure:"brands"`
	DM      RetailerConfig `mapstructure:"dm"`
	Douglas RetailerConfig `mapstructure:"douglas"`
}

// RetailerConfig holds one retailer's endpoint and default pickup store
type RetailerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	StoreID string `mapstructure:"store_id"`
}

// CorrectionConfig holds the scanner bias correction constants. Overrides
// replaces the global constants for individual store brands.
type CorrectionConfig struct {
	ScaleL float64 `mapstructure:"scale_l"`
	ScaleA float64 `mapstructure:"scale_a"`
	ScaleB float64 `mapstructure:"scale_b"`

	RotateXDeg float64 `mapstructure:"rotate_x_deg"`
	RotateYDeg float64 `mapstructure:"rotate_y_deg"`
	RotateZDeg float64 `mapstructure:"rotate_z_deg"`

	OffsetL float64 `mapstructure:"offset_l"`
	OffsetA float64 `mapstructure:"offset_a"`
	OffsetB float64 `mapstructure:"offset_b"`

	Overrides map[string]CorrectionConfig `mapstructure:"overrides"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shadematch/")

	// Environment variable settings
	v.SetEnvPrefix("SHADEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Firestore defaults
	v.SetDefault("firestore.enabled", true)
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "")
	v.SetDefault("firestore.database_id", "(default)")
	v.SetDefault("firestore.collection", "products")
	v.SetDefault("firestore.timeout", "15s")

	// Cache defaults
	v.SetDefault("cache.ttl", "300s")

	// Catalog defaults
	v.SetDefault("catalog.local_dir", "./database")
	v.SetDefault("catalog.fallback_types", map[string][]string{
		"dm":      {"foundation"},
		"douglas": {"foundation"},
	})

	// Retailer defaults
	v.SetDefault("retailers.brands", []string{"dm", "douglas"})
	v.SetDefault("retailers.dm.base_url", "https://products.dm.de")
	v.SetDefault("retailers.dm.store_id", "D522")
	v.SetDefault("retailers.douglas.base_url", "https://www.douglas.de")
	v.SetDefault("retailers.douglas.store_id", "02180539")

	// Correction defaults, fitted against reference swatch scans
	v.SetDefault("correction.scale_l", 0.8)
	v.SetDefault("correction.scale_a", 0.6)
	v.SetDefault("correction.scale_b", 0.6)
	v.SetDefault("correction.rotate_x_deg", 0.0)
	v.SetDefault("correction.rotate_y_deg", 10.0)
	v.SetDefault("correction.rotate_z_deg", -25.0)
	v.SetDefault("correction.offset_l", -10.0)
	v.SetDefault("correction.offset_a", -4.0)
	v.SetDefault("correction.offset_b", -7.0)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Firestore.Enabled && config.Firestore.ProjectID == "" {
		return fmt.Errorf("Firestore project ID is required (set SHADEMATCH_FIRESTORE_PROJECT_ID or disable Firestore)")
	}

	if len(config.Retailers.Brands) == 0 {
		return fmt.Errorf("at least one store brand is required")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Correction.ScaleL <= 0 || config.Correction.ScaleA <= 0 || config.Correction.ScaleB <= 0 {
		return fmt.Errorf("correction scale factors must be positive")
	}

	return nil
}
