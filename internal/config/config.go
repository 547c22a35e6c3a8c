package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	LLM struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Perplexity struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"perplexity"`
	Cache struct {
		File                   string `yaml:"file"`
		RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes"`
		ErrorCooldownSeconds   int    `yaml:"error_cooldown_seconds"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PERPLEXITY_API_KEY"); v != "" {
		cfg.Perplexity.APIKey = v
	}
	if v := os.Getenv("CACHE_FILE"); v != "" {
		cfg.Cache.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REFRESH_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RefreshIntervalMinutes = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-5.2"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.Perplexity.TimeoutSeconds == 0 {
		cfg.Perplexity.TimeoutSeconds = 30
	}
	if cfg.Cache.File == "" {
		cfg.Cache.File = "data/market_cache.json"
	}
	if cfg.Cache.RefreshIntervalMinutes == 0 {
		cfg.Cache.RefreshIntervalMinutes = 60
	}
	if cfg.Cache.ErrorCooldownSeconds == 0 {
		cfg.Cache.ErrorCooldownSeconds = 60
	}
	if cfg.Database.RetentionDays == 0 {
		cfg.Database.RetentionDays = 30 // -1 disables pruning
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.Cache.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("cache.refresh_interval_minutes must not be negative")
	}
	return nil
}
