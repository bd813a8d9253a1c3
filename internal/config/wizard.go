package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== Underwriter Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	// Provider
	for {
		fmt.Print("Inference provider (openai/anthropic/fireworks) [openai]: ")
		provider, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if provider == "" {
			provider = "openai"
		}

		if err := validator.ValidateProvider(provider); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.Inference.Provider = provider
		break
	}

	// API Key
	for {
		fmt.Printf("%s API key: ", cfg.Inference.Provider)
		key, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if err := validator.ValidateAPIKey(key, cfg.Inference.Provider); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.Inference.APIKey = key
		break
	}

	fmt.Println()

	// Model
	fmt.Printf("Model name [%s]: ", cfg.Inference.Model)
	model, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Inference.Model = model
	}

	fmt.Println()

	// Log Level
	fmt.Print("Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Println()
	fmt.Println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
