package inference

import (
	"context"
	"fmt"
)

// Provider is a single LLM inference endpoint.
type Provider interface {
	// Call makes one model request.
	Call(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name.
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string // "openai", "fireworks", "anthropic"
	APIKey   string
	BaseURL  string // optional override for OpenAI-compatible hosts
}

// NewProvider creates a provider from options. Fireworks speaks the
// OpenAI chat-completions wire format, so it shares the OpenAI client.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai", "fireworks":
		return NewOpenAIProvider(opts.APIKey, opts.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(opts.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}
