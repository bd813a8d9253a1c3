package underwriting

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanlab/underwriter/pkg/inference"
)

// scriptedCaller plays back canned model responses in order. Sub-agents
// share the caller with their parent, so scripts interleave outer and
// inner turns.
type scriptedCaller struct {
	responses []*inference.Response
	errs      []error
	requests  []inference.Request
}

func (c *scriptedCaller) Call(ctx context.Context, req inference.Request) (*inference.Response, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return &inference.Response{Content: "done"}, nil
}

func testConfig(caller *scriptedCaller) Config {
	return Config{
		Caller: caller,
		Model:  "test-model",
		Logger: zerolog.New(os.Stdout).Level(zerolog.Disabled),
	}
}

func toolCall(id, name string, args map[string]any) inference.ToolCallRequest {
	return inference.ToolCallRequest{ID: id, Name: name, Arguments: args}
}

func TestEvaluatePolicy(t *testing.T) {
	t.Run("should pass when all criteria are met", func(t *testing.T) {
		result := EvaluatePolicy(30, 70, 720)
		assert.Equal(t, DecisionPass, result.Decision)
		assert.Equal(t, []string{ReasonAllCriteriaMet}, result.ReasonCodes)
	})

	t.Run("should pass exactly at the thresholds", func(t *testing.T) {
		result := EvaluatePolicy(43, 80, 680)
		assert.Equal(t, DecisionPass, result.Decision)
	})

	t.Run("should fail with every violated code", func(t *testing.T) {
		result := EvaluatePolicy(50, 90, 650)
		assert.Equal(t, DecisionFail, result.Decision)
		assert.Equal(t, []string{ReasonDTIExceeded, ReasonLTVExceeded, ReasonFICOBelowMin}, result.ReasonCodes)
	})

	t.Run("should fail on a single violation", func(t *testing.T) {
		result := EvaluatePolicy(44, 70, 720)
		assert.Equal(t, DecisionFail, result.Decision)
		assert.Equal(t, []string{ReasonDTIExceeded}, result.ReasonCodes)
	})
}

func TestPolicyAgentRun(t *testing.T) {
	t.Run("should reject an out-of-range FICO without calling the model", func(t *testing.T) {
		caller := &scriptedCaller{}
		agent, err := NewPolicyAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), 30, 70, 200, "Standard Mortgage")

		assert.Equal(t, DecisionFail, result.Decision)
		assert.Equal(t, []string{ReasonValidationError}, result.ReasonCodes)
		assert.Contains(t, result.Explanation, "300-850")
		assert.Empty(t, caller.requests)
	})

	t.Run("should reject negative metrics without calling the model", func(t *testing.T) {
		caller := &scriptedCaller{}
		agent, err := NewPolicyAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), -1, 70, 720, "")

		assert.Equal(t, []string{ReasonValidationError}, result.ReasonCodes)
		assert.Empty(t, caller.requests)
	})

	t.Run("should parse a verdict wrapped in prose", func(t *testing.T) {
		caller := &scriptedCaller{responses: []*inference.Response{
			{ToolCalls: []inference.ToolCallRequest{toolCall("call_1", "get_policy_snippet", map[string]any{"product": "Standard Mortgage"})}},
			{Content: `Here is my assessment: {"decision": "PASS", "reason_codes": ["ALL_CRITERIA_MET"], "explanation": "Within limits."} Let me know if you need more.`},
		}}
		agent, err := NewPolicyAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), 32.5, 80, 710, "Standard Mortgage")

		assert.Equal(t, DecisionPass, result.Decision)
		assert.Equal(t, []string{ReasonAllCriteriaMet}, result.ReasonCodes)
		assert.Equal(t, "Within limits.", result.Explanation)
	})

	t.Run("should fall back to deterministic evaluation on API failure", func(t *testing.T) {
		caller := &scriptedCaller{errs: []error{&inference.APIError{Retries: 2, Err: fmt.Errorf("503")}}}
		agent, err := NewPolicyAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), 50, 70, 720, "")

		assert.Equal(t, DecisionFail, result.Decision)
		assert.Equal(t, []string{ReasonDTIExceeded}, result.ReasonCodes)
	})

	t.Run("should fall back when the final message has no JSON", func(t *testing.T) {
		caller := &scriptedCaller{responses: []*inference.Response{
			{Content: "I believe this application looks fine."},
		}}
		agent, err := NewPolicyAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), 30, 70, 720, "")

		assert.Equal(t, DecisionPass, result.Decision)
		assert.Equal(t, []string{ReasonAllCriteriaMet}, result.ReasonCodes)
	})

	t.Run("should default a parsed verdict without a decision to FAIL", func(t *testing.T) {
		result, ok := parsePolicyVerdict(`{"reason_codes": [], "explanation": "unclear"}`)
		require.True(t, ok)
		assert.Equal(t, DecisionFail, result.Decision)
	})
}

func TestVerificationAgentRun(t *testing.T) {
	t.Run("should assemble results from one tool-heavy turn", func(t *testing.T) {
		caller := &scriptedCaller{responses: []*inference.Response{
			{ToolCalls: []inference.ToolCallRequest{
				toolCall("call_1", "compute_dti", map[string]any{"income": 8000.0, "debts": []any{2000.0, 400.0, 200.0}}),
				toolCall("call_2", "compute_ltv", map[string]any{"loan_amount": 400000.0, "property_value": 500000.0}),
				toolCall("call_3", "check_doc_completeness", map[string]any{"uploaded_docs": []any{"PAYSTUB", "ID"}}),
			}},
		}}
		agent, err := NewVerificationAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), SampleApplication())

		assert.Equal(t, 32.5, result.DTIPercent)
		assert.Equal(t, 80.0, result.LTVPercent)
		assert.Equal(t, []string{"BANK_STATEMENT"}, result.MissingDocs)
		// All three collected in one turn, so the loop short-circuits.
		assert.Len(t, caller.requests, 1)
	})

	t.Run("should degrade to zero values when the model is unreachable", func(t *testing.T) {
		caller := &scriptedCaller{errs: []error{&inference.APIError{Retries: 2, Err: fmt.Errorf("timeout")}}}
		agent, err := NewVerificationAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), SampleApplication())

		assert.Equal(t, 0.0, result.DTIPercent)
		assert.Equal(t, 0.0, result.LTVPercent)
		assert.Equal(t, []string{}, result.MissingDocs)
		assert.Contains(t, result.Notes, "Errors encountered")
	})

	t.Run("should record a failed tool in the notes and keep the rest", func(t *testing.T) {
		caller := &scriptedCaller{responses: []*inference.Response{
			{ToolCalls: []inference.ToolCallRequest{
				toolCall("call_1", "compute_dti", map[string]any{"income": 0.0, "debts": []any{100.0}}),
				toolCall("call_2", "compute_ltv", map[string]any{"loan_amount": 400000.0, "property_value": 500000.0}),
			}},
			{Content: "dti could not be computed"},
		}}
		agent, err := NewVerificationAgent(testConfig(caller))
		require.NoError(t, err)

		result := agent.Run(context.Background(), SampleApplication())

		assert.Equal(t, 0.0, result.DTIPercent)
		assert.Equal(t, 80.0, result.LTVPercent)
		assert.Contains(t, result.Notes, "Errors encountered")
		assert.Contains(t, result.Notes, "income")
	})
}

func TestSummarizeForUnderwriter(t *testing.T) {
	passVerification := VerificationResult{DTIPercent: 32.5, LTVPercent: 80, MissingDocs: []string{}}
	passPolicy := PolicyResult{Decision: DecisionPass, ReasonCodes: []string{ReasonAllCriteriaMet}}

	t.Run("should recommend approval for a clean pass", func(t *testing.T) {
		summary := SummarizeForUnderwriter(passVerification, passPolicy, 710)
		assert.Equal(t, "All criteria met. Recommend approval.", summary.UnderwriterNote)
		assert.Empty(t, summary.DocConditions)
		assert.Contains(t, summary.DTISummary, "32.5")
		assert.Contains(t, summary.DTISummary, "✓")
	})

	t.Run("should condition approval on missing documents in input order", func(t *testing.T) {
		verification := passVerification
		verification.MissingDocs = []string{"ID", "BANK_STATEMENT"}

		summary := SummarizeForUnderwriter(verification, passPolicy, 710)

		assert.Contains(t, summary.UnderwriterNote, "ID, BANK_STATEMENT")
		require.Len(t, summary.DocConditions, 2)
		assert.Equal(t, "Obtain ID before closing", summary.DocConditions[0])
	})

	t.Run("should route failures to manual review naming the codes", func(t *testing.T) {
		policy := PolicyResult{Decision: DecisionFail, ReasonCodes: []string{ReasonDTIExceeded, ReasonFICOBelowMin}}

		summary := SummarizeForUnderwriter(passVerification, policy, 650)

		assert.Contains(t, summary.UnderwriterNote, "DTI_EXCEEDED, FICO_BELOW_MIN")
		assert.Contains(t, summary.UnderwriterNote, "manual review")
		assert.Contains(t, summary.FICOSummary, "✗")
	})

	t.Run("should render the formatted review package", func(t *testing.T) {
		verification := passVerification
		verification.MissingDocs = []string{"BANK_STATEMENT"}
		summary := SummarizeForUnderwriter(verification, passPolicy, 710)

		text := FormatSummary(summary)

		assert.Contains(t, text, "UNDERWRITER REVIEW PACKAGE")
		assert.Contains(t, text, "Obtain BANK_STATEMENT before closing")
		assert.Contains(t, text, "Policy decision: PASS")
	})
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("should drive both sub-agents and assemble the summary", func(t *testing.T) {
		app := SampleApplication()
		caller := &scriptedCaller{responses: []*inference.Response{
			// Orchestrator turn 1: delegate to the verification agent.
			{ToolCalls: []inference.ToolCallRequest{toolCall("call_1", "run_verification_agent", map[string]any{
				"income":         8000.0,
				"debts":          []any{2000.0, 400.0, 200.0},
				"loan_amount":    400000.0,
				"property_value": 500000.0,
				"uploaded_docs":  []any{"PAYSTUB", "ID"},
			})}},
			// Inner verification turn: all three tools at once.
			{ToolCalls: []inference.ToolCallRequest{
				toolCall("call_v1", "compute_dti", map[string]any{"income": 8000.0, "debts": []any{2000.0, 400.0, 200.0}}),
				toolCall("call_v2", "compute_ltv", map[string]any{"loan_amount": 400000.0, "property_value": 500000.0}),
				toolCall("call_v3", "check_doc_completeness", map[string]any{"uploaded_docs": []any{"PAYSTUB", "ID"}}),
			}},
			// Orchestrator turn 2: delegate to the policy agent.
			{ToolCalls: []inference.ToolCallRequest{toolCall("call_2", "run_policy_agent", map[string]any{
				"dti_percent": 32.5,
				"ltv_percent": 80.0,
				"fico":        710.0,
			})}},
			// Inner policy turns: snippet lookup then the verdict.
			{ToolCalls: []inference.ToolCallRequest{toolCall("call_p1", "get_policy_snippet", map[string]any{"product": "Standard Mortgage"})}},
			{Content: `{"decision": "PASS", "reason_codes": ["ALL_CRITERIA_MET"], "explanation": "Within limits."}`},
			// Orchestrator turn 3: summarize.
			{ToolCalls: []inference.ToolCallRequest{toolCall("call_3", "summarize_for_underwriter", map[string]any{
				"verification_result": map[string]any{
					"dti_percent":  32.5,
					"ltv_percent":  80.0,
					"missing_docs": []any{"BANK_STATEMENT"},
				},
				"policy_result": map[string]any{
					"decision":     "PASS",
					"reason_codes": []any{"ALL_CRITERIA_MET"},
					"explanation":  "Within limits.",
				},
				"fico": 710.0,
			})}},
		}}

		orchestrator, err := NewOrchestrator(testConfig(caller))
		require.NoError(t, err)

		result := orchestrator.Run(context.Background(), "Please underwrite this application.", app)

		require.NotNil(t, result.Verification)
		assert.Equal(t, 32.5, result.Verification.DTIPercent)
		assert.Equal(t, []string{"BANK_STATEMENT"}, result.Verification.MissingDocs)

		require.NotNil(t, result.Policy)
		assert.Equal(t, DecisionPass, result.Policy.Decision)

		require.NotNil(t, result.Summary)
		assert.Contains(t, result.Summary.UnderwriterNote, "BANK_STATEMENT")

		// The loop short-circuits after the summary, so the formatted
		// package stands in for the model's closing message.
		assert.Contains(t, result.Response, "UNDERWRITER REVIEW PACKAGE")
		assert.Len(t, result.ToolCalls, 3)
		assert.Equal(t, "run_verification_agent", result.ToolCalls[0].Tool)
		assert.Empty(t, result.Errors)
	})

	t.Run("should degrade with an explanation when the model is unreachable", func(t *testing.T) {
		caller := &scriptedCaller{errs: []error{&inference.APIError{Retries: 2, Err: fmt.Errorf("503")}}}
		orchestrator, err := NewOrchestrator(testConfig(caller))
		require.NoError(t, err)

		result := orchestrator.Run(context.Background(), "underwrite", SampleApplication())

		assert.Contains(t, result.Response, "interrupted by an inference failure")
		assert.NotEmpty(t, result.Errors)
		assert.Nil(t, result.Verification)
		assert.Nil(t, result.Policy)
		assert.Nil(t, result.Summary)
		assert.NotNil(t, result.ToolCalls)
		assert.Empty(t, result.ToolCalls)
	})

	t.Run("should keep sub-agent results collected before a failure", func(t *testing.T) {
		caller := &scriptedCaller{
			responses: []*inference.Response{
				{ToolCalls: []inference.ToolCallRequest{toolCall("call_1", "run_verification_agent", map[string]any{
					"income":         8000.0,
					"debts":          []any{2000.0, 400.0, 200.0},
					"loan_amount":    400000.0,
					"property_value": 500000.0,
					"uploaded_docs":  []any{"PAYSTUB", "ID"},
				})}},
				{ToolCalls: []inference.ToolCallRequest{
					toolCall("call_v1", "compute_dti", map[string]any{"income": 8000.0, "debts": []any{2000.0, 400.0, 200.0}}),
					toolCall("call_v2", "compute_ltv", map[string]any{"loan_amount": 400000.0, "property_value": 500000.0}),
					toolCall("call_v3", "check_doc_completeness", map[string]any{"uploaded_docs": []any{"PAYSTUB", "ID"}}),
				}},
			},
			errs: []error{nil, nil, &inference.APIError{Retries: 2, Err: fmt.Errorf("timeout")}},
		}
		orchestrator, err := NewOrchestrator(testConfig(caller))
		require.NoError(t, err)

		result := orchestrator.Run(context.Background(), "underwrite", SampleApplication())

		require.NotNil(t, result.Verification)
		assert.Equal(t, 32.5, result.Verification.DTIPercent)
		assert.Nil(t, result.Summary)
		assert.Contains(t, result.Response, "Partial results are included")
	})
}

func TestSampleApplication(t *testing.T) {
	app := SampleApplication()
	assert.Equal(t, 710, app.FICO)
	assert.Equal(t, "Standard Mortgage", app.Product)
	assert.NotContains(t, app.UploadedDocs, "BANK_STATEMENT")
}
