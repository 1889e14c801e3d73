package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	content := `
feeds:
  station_url: "https://example.test/api/stations"
  competitor_url: "https://example.test/api/competitors"
  war_url: "https://example.test/api/war"
  alerts_url: "https://example.test/api/alerts"
  poll_interval: 30m
  default_region: "Metropolitana de Santiago"

server:
  port: 9090

storage:
  driver: sqlite
  dsn: "./data/test.db"

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

logging:
  level: "info"
  format: "json"
`
	path := writeTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Feeds.PollInterval != 30*time.Minute {
		t.Errorf("poll_interval = %v, want 30m", cfg.Feeds.PollInterval)
	}
	if cfg.Feeds.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", cfg.Feeds.Timeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.ListenAddr() != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr())
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Storage.Driver)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Feeds: FeedsConfig{
				StationURL:    "https://example.test/stations",
				CompetitorURL: "https://example.test/competitors",
				PollInterval:  30 * time.Minute,
				Timeout:       30 * time.Second,
				DefaultRegion: "Metropolitana de Santiago",
			},
			Server:  ServerConfig{Port: 8080},
			Storage: StorageConfig{Driver: "sqlite", DSN: "./x.db", MaxAlertRows: 100},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing station url", func(c *Config) { c.Feeds.StationURL = "" }},
		{"missing competitor url", func(c *Config) { c.Feeds.CompetitorURL = "" }},
		{"poll interval too short", func(c *Config) { c.Feeds.PollInterval = 10 * time.Second }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "oracle" }},
		{"missing dsn", func(c *Config) { c.Storage.DSN = "" }},
		{"telegram enabled without token", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "123"
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
