package underwriting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loanlab/underwriter/pkg/agent"
	"github.com/loanlab/underwriter/pkg/lending"
	"github.com/loanlab/underwriter/pkg/toolkit"
)

const policySystemPrompt = `You are a loan policy agent. Given DTI, LTV, and FICO figures:
1. Call get_policy_snippet to retrieve the rules for the loan product.
2. Compare the figures against the retrieved thresholds.
3. Respond with ONLY a JSON object: {"decision": "PASS" or "FAIL", "reason_codes": [...], "explanation": "..."}
Use reason codes DTI_EXCEEDED, LTV_EXCEEDED, FICO_BELOW_MIN for failures, or ALL_CRITERIA_MET for a pass.`

// policyMaxTurns bounds the policy loop. One retrieval call plus the
// JSON verdict is the expected shape.
const policyMaxTurns = 3

// PolicyAgent evaluates metrics against product policy. The model's
// verdict is preferred; the deterministic evaluation is the fallback
// when the model is unreachable or its output cannot be parsed.
type PolicyAgent struct {
	session *agent.Session
}

// NewPolicyAgent builds the agent with the policy retrieval tool
// registered.
func NewPolicyAgent(cfg Config) (*PolicyAgent, error) {
	registry := toolkit.NewRegistry(cfg.Logger)
	for _, def := range lending.PolicyTools() {
		if err := registry.Register(def); err != nil {
			return nil, fmt.Errorf("failed to register policy tool: %w", err)
		}
	}

	session, err := agent.NewSession(agent.Config{
		Name:         "policy",
		SystemPrompt: policySystemPrompt,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		MaxTurns:     policyMaxTurns,
		Registry:     registry,
		Caller:       cfg.Caller,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &PolicyAgent{session: session}, nil
}

// Run evaluates one set of metrics. Inputs outside their valid domains
// short-circuit to a FAIL verdict without any model call.
func (a *PolicyAgent) Run(ctx context.Context, dtiPercent, ltvPercent float64, fico int, product string) PolicyResult {
	if invalid := validateMetrics(dtiPercent, ltvPercent, fico); invalid != "" {
		return PolicyResult{
			Decision:    DecisionFail,
			ReasonCodes: []string{ReasonValidationError},
			Explanation: invalid,
		}
	}

	if product == "" {
		product = lending.DefaultProduct
	}

	message := fmt.Sprintf(
		"Evaluate these metrics for a %s:\nDTI: %.1f%%\nLTV: %.1f%%\nFICO: %d",
		product, dtiPercent, ltvPercent, fico,
	)
	outcome := a.session.Run(ctx, message)

	if outcome.Failure != nil {
		return EvaluatePolicy(dtiPercent, ltvPercent, fico)
	}
	if result, ok := parsePolicyVerdict(outcome.Content); ok {
		return result
	}
	return EvaluatePolicy(dtiPercent, ltvPercent, fico)
}

// EvaluatePolicy applies the Standard Mortgage thresholds directly.
// Used as the fallback path and by the offline review command.
func EvaluatePolicy(dtiPercent, ltvPercent float64, fico int) PolicyResult {
	reasons := []string{}
	if dtiPercent > MaxDTIPercent {
		reasons = append(reasons, ReasonDTIExceeded)
	}
	if ltvPercent > MaxLTVPercent {
		reasons = append(reasons, ReasonLTVExceeded)
	}
	if fico < MinFICO {
		reasons = append(reasons, ReasonFICOBelowMin)
	}

	if len(reasons) > 0 {
		return PolicyResult{
			Decision:    DecisionFail,
			ReasonCodes: reasons,
			Explanation: fmt.Sprintf("Deterministic evaluation failed criteria: %s", strings.Join(reasons, ", ")),
		}
	}
	return PolicyResult{
		Decision:    DecisionPass,
		ReasonCodes: []string{ReasonAllCriteriaMet},
		Explanation: "All criteria within Standard Mortgage thresholds.",
	}
}

// validateMetrics returns a non-empty description when an input is
// outside its valid domain.
func validateMetrics(dtiPercent, ltvPercent float64, fico int) string {
	if fico < ficoFloor || fico > ficoCeiling {
		return fmt.Sprintf("FICO score %d outside valid range %d-%d", fico, ficoFloor, ficoCeiling)
	}
	if dtiPercent < 0 {
		return fmt.Sprintf("DTI percent must be non-negative, got %.1f", dtiPercent)
	}
	if ltvPercent < 0 {
		return fmt.Sprintf("LTV percent must be non-negative, got %.1f", ltvPercent)
	}
	return ""
}

// parsePolicyVerdict extracts the JSON verdict from the model's final
// message. The model often wraps the object in prose, so we take the
// span from the first brace to the last.
func parsePolicyVerdict(content string) (PolicyResult, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return PolicyResult{}, false
	}

	var verdict struct {
		Decision    string   `json:"decision"`
		ReasonCodes []string `json:"reason_codes"`
		Explanation string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return PolicyResult{}, false
	}

	result := PolicyResult{
		Decision:    verdict.Decision,
		ReasonCodes: verdict.ReasonCodes,
		Explanation: verdict.Explanation,
	}
	if result.Decision == "" {
		result.Decision = DecisionFail
	}
	if result.ReasonCodes == nil {
		result.ReasonCodes = []string{}
	}
	if result.Explanation == "" {
		result.Explanation = content
	}
	return result, true
}
