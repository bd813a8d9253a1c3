package underwriting

import (
	"context"
	"fmt"
	"strings"

	"github.com/loanlab/underwriter/pkg/agent"
	"github.com/loanlab/underwriter/pkg/lending"
	"github.com/loanlab/underwriter/pkg/toolkit"
)

const verificationSystemPrompt = `You are a loan verification agent. Given applicant data, you must:
1. Call compute_dti with the applicant's income and debts.
2. Call compute_ltv with the loan amount and property value.
3. Call check_doc_completeness with the uploaded document list.
Call every tool exactly once, then summarize the findings in one short paragraph.`

// verificationMaxTurns bounds the verification loop. Three tool calls
// plus a closing summary fit comfortably.
const verificationMaxTurns = 5

var verificationRequiredTools = []string{"compute_dti", "compute_ltv", "check_doc_completeness"}

// VerificationAgent runs the verification tool loop and assembles a
// VerificationResult from whatever the loop collected.
type VerificationAgent struct {
	session *agent.Session
}

// NewVerificationAgent builds the agent with its calculation tools
// registered.
func NewVerificationAgent(cfg Config) (*VerificationAgent, error) {
	registry := toolkit.NewRegistry(cfg.Logger)
	for _, def := range lending.CalculationTools() {
		if err := registry.Register(def); err != nil {
			return nil, fmt.Errorf("failed to register verification tool: %w", err)
		}
	}

	session, err := agent.NewSession(agent.Config{
		Name:         "verification",
		SystemPrompt: verificationSystemPrompt,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		MaxTurns:     verificationMaxTurns,
		Registry:     registry,
		Caller:       cfg.Caller,
		Complete: func(collected map[string]map[string]any) bool {
			for _, tool := range verificationRequiredTools {
				if _, ok := collected[tool]; !ok {
					return false
				}
			}
			return true
		},
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &VerificationAgent{session: session}, nil
}

// Run verifies one application. Missing tool outputs degrade to zero
// values rather than failing the run; every recorded error lands in
// Notes so nothing is silently swallowed.
func (a *VerificationAgent) Run(ctx context.Context, app ApplicationData) VerificationResult {
	outcome := a.session.Run(ctx, verificationUserMessage(app))
	return assembleVerification(outcome)
}

func verificationUserMessage(app ApplicationData) string {
	return fmt.Sprintf(
		"Verify this application:\nMonthly income: %.2f\nMonthly debts: %v\nLoan amount: %.2f\nProperty value: %.2f\nUploaded documents: %v",
		app.Income, app.Debts, app.LoanAmount, app.PropertyValue, app.UploadedDocs,
	)
}

func assembleVerification(outcome agent.Outcome) VerificationResult {
	result := VerificationResult{
		DTIPercent:  resultFloat(outcome.Result("compute_dti"), "dti_percent"),
		LTVPercent:  resultFloat(outcome.Result("compute_ltv"), "ltv_percent"),
		MissingDocs: resultStrings(outcome.Result("check_doc_completeness"), "missing_docs"),
		Notes:       outcome.Content,
	}

	if len(outcome.Errors) > 0 {
		errNote := "Errors encountered: " + strings.Join(outcome.Errors, "; ")
		if result.Notes != "" {
			result.Notes += "\n\n"
		}
		result.Notes += errNote
	}

	return result
}

// resultFloat pulls a numeric field out of a collected tool result,
// defaulting to zero when the tool never ran.
func resultFloat(result map[string]any, key string) float64 {
	if result == nil {
		return 0
	}
	value, ok := result[key].(float64)
	if !ok {
		return 0
	}
	return value
}

// resultStrings pulls a string list out of a collected tool result.
// Results that round-tripped through JSON arrive as []any.
func resultStrings(result map[string]any, key string) []string {
	if result == nil {
		return []string{}
	}
	switch v := result[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
