package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. FX_SERVER_PORT
const EnvPrefix = "FX"

// Storage drivers
const (
	DriverBadger = "badger"
	DriverRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sources SourcesConfig `mapstructure:"sources"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig contains rate cache configuration
type CacheConfig struct {
	TTL              time.Duration `mapstructure:"ttl"`
	CollapseRequests bool          `mapstructure:"collapse_requests"`
}

// SourcesConfig contains the settings of the rate source tiers
type SourcesConfig struct {
	InternalAPIEnabled bool          `mapstructure:"internal_api_enabled"`
	InternalAPIURL     string        `mapstructure:"internal_api_url"`
	ExternalAPIURL     string        `mapstructure:"external_api_url"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	BackoffBase        time.Duration `mapstructure:"backoff_base"`
	// MockSeed fixes the mock generator; zero means a random seed per process
	MockSeed uint64 `mapstructure:"mock_seed"`
}

// StorageConfig selects the key-value backend for preferences
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	BadgerDir   string `mapstructure:"badger_dir"`
	InMemory    bool   `mapstructure:"in_memory"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MarketDataURL returns the internal API base URL, defaulting to this server
func (c *Config) MarketDataURL() string {
	if c.Sources.InternalAPIURL != "" {
		return c.Sources.InternalAPIURL
	}
	return fmt.Sprintf("http://localhost:%d/api/marketdata", c.Server.Port)
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from defaults, an optional YAML file and FX_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.collapse_requests", false)

	v.SetDefault("sources.internal_api_enabled", true)
	v.SetDefault("sources.internal_api_url", "")
	v.SetDefault("sources.external_api_url", "https://open.er-api.com/v6")
	v.SetDefault("sources.http_timeout", 10*time.Second)
	v.SetDefault("sources.max_attempts", 3)
	v.SetDefault("sources.backoff_base", 200*time.Millisecond)
	v.SetDefault("sources.mock_seed", 0)

	v.SetDefault("storage.driver", DriverBadger)
	v.SetDefault("storage.badger_dir", "./data")
	v.SetDefault("storage.in_memory", false)
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.redis_prefix", "fx:")

	v.SetDefault("log.level", "INFO")
}

// validate performs validation on the configuration
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if cfg.Sources.ExternalAPIURL == "" {
		return fmt.Errorf("sources.external_api_url is required")
	}
	if cfg.Sources.HTTPTimeout <= 0 {
		return fmt.Errorf("sources.http_timeout must be positive")
	}
	if cfg.Sources.MaxAttempts < 1 {
		return fmt.Errorf("sources.max_attempts must be at least 1")
	}
	if cfg.Sources.BackoffBase < 0 {
		return fmt.Errorf("sources.backoff_base must be non-negative")
	}

	switch cfg.Storage.Driver {
	case DriverBadger:
		if cfg.Storage.BadgerDir == "" && !cfg.Storage.InMemory {
			return fmt.Errorf("storage.badger_dir is required unless storage.in_memory is set")
		}
	case DriverRedis:
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverBadger, DriverRedis, cfg.Storage.Driver)
	}

	return nil
}
