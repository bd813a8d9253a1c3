package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateProvider validates the inference provider name
func (v *Validator) ValidateProvider(provider string) error {
	validProviders := []string{"openai", "anthropic", "fireworks"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if cfg.Inference.Provider != "" {
		if err := v.ValidateProvider(cfg.Inference.Provider); err != nil {
			errors = append(errors, err)
		}
		if cfg.Inference.APIKey != "" {
			if err := v.ValidateAPIKey(cfg.Inference.APIKey, cfg.Inference.Provider); err != nil {
				errors = append(errors, err)
			}
		}
	}

	if cfg.Inference.Temperature != 0 {
		if err := v.ValidateTemperature(cfg.Inference.Temperature); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.Inference.MaxTokens != 0 {
		if err := v.ValidateMaxTokens(cfg.Inference.MaxTokens); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.Inference.MaxRetries < 0 {
		errors = append(errors, fmt.Errorf("inference max_retries must be >= 0"))
	}
	if cfg.Inference.InitialBackoffMs < 0 {
		errors = append(errors, fmt.Errorf("inference initial_backoff_ms must be >= 0"))
	}

	if cfg.Server.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Errorf("server rate_limit_per_minute must be >= 0"))
	}
	if cfg.Server.RequestTimeout < 0 {
		errors = append(errors, fmt.Errorf("server request_timeout must be >= 0"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
