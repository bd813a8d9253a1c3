package agent

import (
	"context"
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/loanlab/underwriter/pkg/inference"
	"github.com/loanlab/underwriter/pkg/toolkit"
)

// Session is one bounded tool-calling loop bound to a system prompt
// and a tool registry. The orchestrator, verification, and policy
// agents are all instances of this loop with different tool sets,
// prompts, and termination conditions. The conversation is owned by a
// single Run and never outlives it.
type Session struct {
	cfg Config
}

// Config holds session configuration.
type Config struct {
	Name         string // agent name, used in logs
	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int
	MaxTurns     int
	Registry     *toolkit.Registry
	Caller       Caller
	// Complete short-circuits the loop once every required tool
	// output is present. Nil means run until the model stops calling
	// tools or the ceiling is reached.
	Complete func(collected map[string]map[string]any) bool
	Logger   zerolog.Logger
}

// NewSession creates a session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.SystemPrompt == "" {
		return nil, fmt.Errorf("system prompt is required")
	}
	if cfg.MaxTurns <= 0 {
		return nil, fmt.Errorf("max turns must be positive")
	}

	return &Session{cfg: cfg}, nil
}

// Run executes the loop: call the model, execute requested tools,
// append results, repeat. Tool-level failures are recorded and fed
// back to the model as error-shaped results without aborting the loop;
// an API or parse error from the caller stops the loop immediately and
// is reported in Outcome.Failure for the assembler to degrade on.
func (s *Session) Run(ctx context.Context, userMessage string) Outcome {
	runID, err := gonanoid.New()
	if err != nil {
		runID = "run-unknown"
	}

	logger := s.cfg.Logger.With().
		Str("agent", s.cfg.Name).
		Str("run_id", runID).
		Logger()

	outcome := Outcome{
		RunID:     runID,
		Collected: make(map[string]map[string]any),
	}

	messages := []inference.Message{
		{Role: inference.RoleSystem, Content: s.cfg.SystemPrompt},
		{Role: inference.RoleUser, Content: userMessage},
	}
	schemas := s.cfg.Registry.Schemas()

	for turn := 0; turn < s.cfg.MaxTurns; turn++ {
		outcome.Turns = turn + 1

		response, err := s.cfg.Caller.Call(ctx, inference.Request{
			Model:       s.cfg.Model,
			Messages:    messages,
			Tools:       schemas,
			Temperature: s.cfg.Temperature,
			MaxTokens:   s.cfg.MaxTokens,
		})
		if err != nil {
			logger.Error().Err(err).Int("turn", turn).Msg("Inference call failed, stopping loop")
			outcome.Failure = err
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome
		}

		outcome.Content = response.Content

		if len(response.ToolCalls) == 0 {
			logger.Debug().Int("turn", turn).Msg("No tool calls, loop done")
			return outcome
		}

		// Execute every requested call in order. One failing tool
		// must not block its siblings in the same turn.
		toolMessages := make([]inference.Message, 0, len(response.ToolCalls))
		for _, call := range response.ToolCalls {
			result, execErr := s.cfg.Registry.Execute(ctx, call.Name, call.Arguments)
			if execErr != nil {
				logger.Warn().Err(execErr).Str("tool", call.Name).Msg("Tool call failed")
				outcome.Errors = append(outcome.Errors, execErr.Error())
				result = map[string]any{"error": execErr.Error()}
			} else {
				outcome.Collected[call.Name] = result
			}

			outcome.Trace = append(outcome.Trace, TraceEntry{
				Tool:      call.Name,
				Arguments: call.Arguments,
				Result:    result,
			})

			toolMessages = append(toolMessages, inference.Message{
				Role:       inference.RoleTool,
				Content:    marshalResult(result),
				ToolCallID: call.ID,
			})
		}

		// One assistant echo carrying the requests, then one tool
		// message per call, ids preserved so the model can associate
		// results with requests.
		messages = append(messages, inference.Message{
			Role:      inference.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
		messages = append(messages, toolMessages...)

		if s.cfg.Complete != nil && s.cfg.Complete(outcome.Collected) {
			logger.Debug().Int("turn", turn).Msg("All required tool outputs collected")
			return outcome
		}
	}

	logger.Info().Int("max_turns", s.cfg.MaxTurns).Msg("Turn ceiling reached with partial results")
	return outcome
}

func marshalResult(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode tool result: %v"}`, err)
	}
	return string(data)
}
