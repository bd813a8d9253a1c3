package underwriting

import (
	"context"
	"fmt"
	"strings"

	"github.com/loanlab/underwriter/pkg/agent"
	"github.com/loanlab/underwriter/pkg/lending"
	"github.com/loanlab/underwriter/pkg/toolkit"
)

const orchestratorSystemPrompt = `You are a loan underwriting orchestrator. Process applications by:
1. Calling run_verification_agent with the applicant's financial data.
2. Calling run_policy_agent with the computed DTI, LTV, and the applicant's FICO score.
3. Calling summarize_for_underwriter with both results.
Run the steps in order, then present the summary to the user.`

// orchestratorMaxTurns bounds the outer loop. The happy path is three
// sub-agent calls plus a closing message.
const orchestratorMaxTurns = 10

// Result is the orchestrator's caller-facing output. Verification,
// Policy, and Summary are nil when the corresponding step never ran;
// Errors lists everything that went wrong along the way.
type Result struct {
	Response     string              `json:"response"`
	ToolCalls    []agent.TraceEntry  `json:"tool_calls"`
	Verification *VerificationResult `json:"verification_result,omitempty"`
	Policy       *PolicyResult       `json:"policy_result,omitempty"`
	Summary      *UnderwriterSummary `json:"summary,omitempty"`
	Errors       []string            `json:"errors,omitempty"`
}

// Orchestrator drives the verification and policy agents as tools of
// its own session loop. Each Run builds a fresh registry so captured
// sub-agent results stay request-scoped.
type Orchestrator struct {
	cfg          Config
	verification *VerificationAgent
	policy       *PolicyAgent
}

// NewOrchestrator builds the orchestrator and both sub-agents from one
// shared config.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	verification, err := NewVerificationAgent(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build verification agent: %w", err)
	}
	policy, err := NewPolicyAgent(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy agent: %w", err)
	}

	return &Orchestrator{
		cfg:          cfg,
		verification: verification,
		policy:       policy,
	}, nil
}

// Run processes one underwriting request end to end. A model failure
// mid-run degrades: whatever the sub-agents produced is still returned
// alongside an explanatory response.
func (o *Orchestrator) Run(ctx context.Context, userMessage string, app ApplicationData) Result {
	var (
		capturedVerification *VerificationResult
		capturedPolicy       *PolicyResult
		capturedSummary      *UnderwriterSummary
	)

	registry := toolkit.NewRegistry(o.cfg.Logger)
	defs := []toolkit.Definition{
		{
			Name:        "run_verification_agent",
			Description: "Run the verification agent on applicant financial data",
			Parameters: []toolkit.Parameter{
				{Name: "income", Type: "number", Description: "Monthly income", Required: true},
				{Name: "debts", Type: "array", Description: "Monthly debt payments", Required: true, Items: map[string]any{"type": "number"}},
				{Name: "loan_amount", Type: "number", Description: "Requested loan amount", Required: true},
				{Name: "property_value", Type: "number", Description: "Property value", Required: true},
				{Name: "uploaded_docs", Type: "array", Description: "Uploaded document types", Required: true, Items: map[string]any{"type": "string"}},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				var input ApplicationData
				if err := fromMap(args, &input); err != nil {
					return nil, &toolkit.ValidationError{Field: "app_data", Message: err.Error()}
				}
				result := o.verification.Run(ctx, input)
				capturedVerification = &result
				return toMap(result), nil
			},
		},
		{
			Name:        "run_policy_agent",
			Description: "Run the policy agent on computed metrics",
			Parameters: []toolkit.Parameter{
				{Name: "dti_percent", Type: "number", Description: "Debt-to-income percentage", Required: true},
				{Name: "ltv_percent", Type: "number", Description: "Loan-to-value percentage", Required: true},
				{Name: "fico", Type: "number", Description: "FICO credit score", Required: true},
				{Name: "product", Type: "string", Description: "Loan product type", Required: false},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				dti, _ := args["dti_percent"].(float64)
				ltv, _ := args["ltv_percent"].(float64)
				fico := intArg(args["fico"])
				product, _ := args["product"].(string)
				if product == "" {
					product = app.Product
				}
				result := o.policy.Run(ctx, dti, ltv, fico, product)
				capturedPolicy = &result
				return toMap(result), nil
			},
		},
		{
			Name:        "summarize_for_underwriter",
			Description: "Assemble the underwriter review package from both agent results",
			Parameters: []toolkit.Parameter{
				{Name: "verification_result", Type: "object", Description: "Output of run_verification_agent", Required: true},
				{Name: "policy_result", Type: "object", Description: "Output of run_policy_agent", Required: true},
				{Name: "fico", Type: "number", Description: "FICO credit score", Required: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				var verification VerificationResult
				var policy PolicyResult
				if m, ok := args["verification_result"].(map[string]any); ok {
					if err := fromMap(m, &verification); err != nil {
						return nil, &toolkit.ValidationError{Field: "verification_result", Message: err.Error()}
					}
				}
				if m, ok := args["policy_result"].(map[string]any); ok {
					if err := fromMap(m, &policy); err != nil {
						return nil, &toolkit.ValidationError{Field: "policy_result", Message: err.Error()}
					}
				}
				summary := SummarizeForUnderwriter(verification, policy, intArg(args["fico"]))
				capturedSummary = &summary
				return toMap(summary), nil
			},
		},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return Result{
				Response: "Internal error preparing the underwriting tools.",
				Errors:   []string{err.Error()},
			}
		}
	}

	session, err := agent.NewSession(agent.Config{
		Name:         "orchestrator",
		SystemPrompt: orchestratorSystemPrompt,
		Model:        o.cfg.Model,
		Temperature:  o.cfg.Temperature,
		MaxTokens:    o.cfg.MaxTokens,
		MaxTurns:     orchestratorMaxTurns,
		Registry:     registry,
		Caller:       o.cfg.Caller,
		Complete: func(collected map[string]map[string]any) bool {
			_, ok := collected["summarize_for_underwriter"]
			return ok
		},
		Logger: o.cfg.Logger,
	})
	if err != nil {
		return Result{
			Response: "Internal error preparing the underwriting session.",
			Errors:   []string{err.Error()},
		}
	}

	outcome := session.Run(ctx, orchestratorUserMessage(userMessage, app))

	result := Result{
		Response:     outcome.Content,
		ToolCalls:    outcome.Trace,
		Verification: capturedVerification,
		Policy:       capturedPolicy,
		Summary:      capturedSummary,
		Errors:       outcome.Errors,
	}
	if result.ToolCalls == nil {
		result.ToolCalls = []agent.TraceEntry{}
	}

	if outcome.Failure != nil {
		note := fmt.Sprintf("The underwriting run was interrupted by an inference failure: %v. Partial results are included.", outcome.Failure)
		if result.Response != "" {
			result.Response += "\n\n"
		}
		result.Response += note
	} else if result.Response == "" && capturedSummary != nil {
		result.Response = FormatSummary(*capturedSummary)
	}

	return result
}

func orchestratorUserMessage(userMessage string, app ApplicationData) string {
	product := app.Product
	if product == "" {
		product = lending.DefaultProduct
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nApplication data:\n", userMessage)
	fmt.Fprintf(&b, "Monthly income: %.2f\n", app.Income)
	fmt.Fprintf(&b, "Monthly debts: %v\n", app.Debts)
	fmt.Fprintf(&b, "Loan amount: %.2f\n", app.LoanAmount)
	fmt.Fprintf(&b, "Property value: %.2f\n", app.PropertyValue)
	fmt.Fprintf(&b, "FICO: %d\n", app.FICO)
	fmt.Fprintf(&b, "Uploaded documents: %v\n", app.UploadedDocs)
	fmt.Fprintf(&b, "Product: %s", product)
	return b.String()
}

// intArg converts a decoded JSON number to int.
func intArg(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
