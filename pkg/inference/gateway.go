package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Gateway wraps a Provider with retry and backoff. One Call sends one
// logical model request; transient failures are retried with doubling
// waits until the budget is spent. The Gateway holds no state between
// calls beyond its configuration.
type Gateway struct {
	provider       Provider
	maxRetries     int
	initialBackoff time.Duration
	retryable      func(error) bool
	sleep          func(context.Context, time.Duration) error
	logger         zerolog.Logger
}

// Config holds gateway configuration.
type Config struct {
	Provider       Provider
	MaxRetries     int           // retries after the first attempt (default 2)
	InitialBackoff time.Duration // first wait, doubled each attempt (default 1s)
	Retryable      func(error) bool
	Logger         zerolog.Logger
}

// New creates a gateway around the given provider.
func New(cfg Config) (*Gateway, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.Retryable == nil {
		cfg.Retryable = Transient
	}

	return &Gateway{
		provider:       cfg.Provider,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		retryable:      cfg.Retryable,
		sleep:          sleepCtx,
		logger:         cfg.Logger,
	}, nil
}

// Call sends the conversation and tool schemas to the model and
// returns the parsed response. Transient errors are retried up to the
// configured budget; the returned *APIError carries the number of
// retries attempted. A *ParseError from the provider is returned as-is
// and never retried.
func (g *Gateway) Call(ctx context.Context, req Request) (*Response, error) {
	backoff := g.initialBackoff

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		response, err := g.provider.Call(ctx, req)
		if err == nil {
			return response, nil
		}
		lastErr = err

		// A malformed tool-call payload is a model defect, not a
		// transport failure. Surface it untouched.
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr
		}

		if !g.retryable(err) || attempt == g.maxRetries {
			return nil, &APIError{Retries: attempt, Err: err}
		}

		g.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Str("provider", g.provider.Name()).
			Msg("Transient inference failure, retrying")

		if err := g.sleep(ctx, backoff); err != nil {
			return nil, &APIError{Retries: attempt, Err: err}
		}
		backoff *= 2
	}

	return nil, &APIError{Retries: g.maxRetries, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
