// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken    string   `yaml:"telegram_token"`
	AnthropicAPIKey  string   `yaml:"anthropic_api_key"`
	NotionToken      string   `yaml:"notion_token"`
	NotionDatabaseID string   `yaml:"notion_database_id"`
	AnthropicModel   string   `yaml:"anthropic_model"`
	Categories       []string `yaml:"categories"`
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs"`
	LLMTimeoutSecs   int      `yaml:"llm_timeout_secs"`
	RecapTime        string   `yaml:"recap_time"`
	Timezone         string   `yaml:"timezone"`
	DBPath           string   `yaml:"db_path"`
	MetricsAddr      string   `yaml:"metrics_addr"`
}

// recapTimeRegex validates HH:MM format with proper ranges.
var recapTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults and
// environment overrides. A missing file is fine as long as the required
// values arrive via the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("CAPTURE_BOT_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-sonnet-4-20250514"
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.LLMTimeoutSecs == 0 {
		cfg.LLMTimeoutSecs = 30
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./capture-bot.db"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.NotionToken = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.NotionDatabaseID = v
	}
	if v := os.Getenv("CAPTURE_BOT_DB"); v != "" {
		cfg.DBPath = v
	}
}

func validate(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("telegram_token is required")
	}
	if cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("anthropic_api_key is required")
	}
	if cfg.NotionToken == "" {
		return fmt.Errorf("notion_token is required")
	}
	if cfg.NotionDatabaseID == "" {
		return fmt.Errorf("notion_database_id is required")
	}
	if len(cfg.Categories) == 1 {
		return fmt.Errorf("categories must list at least two labels (the second is the default)")
	}
	if cfg.RecapTime != "" && !recapTimeRegex.MatchString(cfg.RecapTime) {
		return fmt.Errorf("recap_time must be in HH:MM format (00:00-23:59), got %q", cfg.RecapTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}
