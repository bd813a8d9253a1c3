// Package config holds the underwriter's file and environment
// configuration.
package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main underwriter configuration
type Config struct {
	// Inference provider settings
	Inference InferenceConfig `json:"inference" mapstructure:"inference"`

	// HTTP server settings
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// InferenceConfig holds model provider configuration
type InferenceConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // openai, anthropic, fireworks
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	MaxRetries  int     `json:"max_retries" mapstructure:"max_retries"`

	// InitialBackoffMs is the first retry wait; it doubles per attempt.
	InitialBackoffMs int `json:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	RequestTimeout     int    `json:"request_timeout" mapstructure:"request_timeout"` // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.2,
			MaxTokens:   1024,
			MaxRetries:  2,

			InitialBackoffMs: 1000,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			RateLimitPerMinute: 60,
			RequestTimeout:     120,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config with the API key
// masked.
func (c *Config) String() string {
	masked := *c
	if masked.Inference.APIKey != "" {
		masked.Inference.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Inference.Provider == "" {
		return fmt.Errorf("inference provider is required")
	}
	if c.Inference.APIKey == "" {
		return fmt.Errorf("inference api_key is required (set UNDERWRITER_INFERENCE_API_KEY or run 'underwriter configure')")
	}
	if c.Inference.Model == "" {
		return fmt.Errorf("inference model is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}
