package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Feeds    FeedsConfig    `mapstructure:"feeds"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FeedsConfig holds the upstream feed endpoints and polling behavior
type FeedsConfig struct {
	StationURL    string        `mapstructure:"station_url"`
	CompetitorURL string        `mapstructure:"competitor_url"`
	WarURL        string        `mapstructure:"war_url"`
	AlertsURL     string        `mapstructure:"alerts_url"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DefaultRegion string        `mapstructure:"default_region"`
}

// ServerConfig holds the REST API configuration
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BearerToken string `mapstructure:"bearer_token"`
}

// StorageConfig holds the correction store configuration
type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // sqlite or postgres
	DSN          string `mapstructure:"dsn"`
	MaxAlertRows int    `mapstructure:"max_alert_rows"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("EDS_RADAR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Feed defaults; the upstream source refreshes every half hour.
	v.SetDefault("feeds.poll_interval", "30m")
	v.SetDefault("feeds.timeout", "30s")
	v.SetDefault("feeds.default_region", "Metropolitana de Santiago")

	// Server defaults
	v.SetDefault("server.port", 8080)

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "./data/edsradar.db")
	v.SetDefault("storage.max_alert_rows", 5000)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Feeds.StationURL == "" {
		return fmt.Errorf("feeds.station_url is required")
	}
	if c.Feeds.CompetitorURL == "" {
		return fmt.Errorf("feeds.competitor_url is required")
	}
	if c.Feeds.PollInterval < 1*time.Minute {
		return fmt.Errorf("feeds.poll_interval must be at least 1 minute")
	}
	if c.Feeds.Timeout < 1*time.Second {
		return fmt.Errorf("feeds.timeout must be at least 1 second")
	}
	if c.Feeds.DefaultRegion == "" {
		return fmt.Errorf("feeds.default_region is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be one of: sqlite, postgres")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.MaxAlertRows < 1 {
		return fmt.Errorf("storage.max_alert_rows must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
