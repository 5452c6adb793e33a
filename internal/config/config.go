package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Limits   LimitsConfig   `yaml:"limits"`
	Vision   VisionConfig   `yaml:"vision"`
	Insights InsightsConfig `yaml:"insights"`
	History  HistoryConfig  `yaml:"history"` // SQLite or MongoDB battle store
	LogLevel string         `yaml:"log_level,omitempty"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin,omitempty"`
}

// LimitsConfig represents quota and pacing configuration
type LimitsConfig struct {
	DailyLimit             int     `yaml:"daily_limit"`
	RequestsPerMinute      int     `yaml:"requests_per_minute"`
	WindowSeconds          int     `yaml:"window_seconds"`
	UpstreamTimeoutSeconds int     `yaml:"upstream_timeout_seconds"`
	UpstreamPerSecond      float64 `yaml:"upstream_per_second,omitempty"` // outbound pacing toward the inference service
}

// VisionConfig represents the screenshot analysis upstream configuration
type VisionConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// InsightsConfig represents the trend analysis provider configuration
type InsightsConfig struct {
	Provider  string `yaml:"provider"` // anthropic, openai, google, perplexity
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// HistoryConfig represents battle history store configuration
type HistoryConfig struct {
	Provider string            `yaml:"provider"` // sqlite, mongodb
	URI      string            `yaml:"uri"`
	Database string            `yaml:"database,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8787",
		},
		Limits: LimitsConfig{
			DailyLimit:             50,
			RequestsPerMinute:      5,
			WindowSeconds:          60,
			UpstreamTimeoutSeconds: 60,
		},
		Vision: VisionConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Insights: InsightsConfig{
			Provider: "anthropic",
		},
		History: HistoryConfig{
			Provider: "sqlite",
			URI:      "battlelens.db",
			Database: "battlelens",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".battlelens/config.yaml"
	}
	return filepath.Join(home, ".battlelens", "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
