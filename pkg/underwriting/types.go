// Package underwriting wires the generic tool-calling session into the
// three loan-underwriting agents: verification, policy, and the
// orchestrator that drives both as tools.
package underwriting

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/loanlab/underwriter/pkg/agent"
)

// Policy decisions.
const (
	DecisionPass = "PASS"
	DecisionFail = "FAIL"
)

// Reason codes for policy decisions.
const (
	ReasonDTIExceeded     = "DTI_EXCEEDED"
	ReasonLTVExceeded     = "LTV_EXCEEDED"
	ReasonFICOBelowMin    = "FICO_BELOW_MIN"
	ReasonAllCriteriaMet  = "ALL_CRITERIA_MET"
	ReasonValidationError = "VALIDATION_ERROR"
)

// Standard Mortgage thresholds used by the deterministic evaluation.
const (
	MaxDTIPercent = 43.0
	MaxLTVPercent = 80.0
	MinFICO       = 680
)

// FICO scores outside this range are rejected before any model call.
const (
	ficoFloor   = 300
	ficoCeiling = 850
)

// ApplicationData is one loan application. State is request-scoped;
// nothing here is persisted.
type ApplicationData struct {
	Income        float64   `json:"income"`
	Debts         []float64 `json:"debts"`
	LoanAmount    float64   `json:"loan_amount"`
	PropertyValue float64   `json:"property_value"`
	FICO          int       `json:"fico"`
	UploadedDocs  []string  `json:"uploaded_docs"`
	Product       string    `json:"product"`
}

// SampleApplication returns the demo application. BANK_STATEMENT is
// intentionally absent so the document check has something to find.
func SampleApplication() ApplicationData {
	return ApplicationData{
		Income:        8000,
		Debts:         []float64{2000, 400, 200},
		LoanAmount:    400000,
		PropertyValue: 500000,
		FICO:          710,
		UploadedDocs:  []string{"PAYSTUB", "ID"},
		Product:       "Standard Mortgage",
	}
}

// VerificationResult is the verification agent's output. Missing tool
// outputs degrade to zero values; Notes carries the model's final text
// plus any accumulated error descriptions.
type VerificationResult struct {
	DTIPercent  float64  `json:"dti_percent"`
	LTVPercent  float64  `json:"ltv_percent"`
	MissingDocs []string `json:"missing_docs"`
	Notes       string   `json:"notes,omitempty"`
}

// PolicyResult is the policy agent's output.
type PolicyResult struct {
	Decision    string   `json:"decision"`
	ReasonCodes []string `json:"reason_codes"`
	Explanation string   `json:"explanation"`
}

// UnderwriterSummary is the formatted review package.
type UnderwriterSummary struct {
	DTISummary      string   `json:"dti_summary"`
	LTVSummary      string   `json:"ltv_summary"`
	FICOSummary     string   `json:"fico_summary"`
	DocConditions   []string `json:"doc_conditions"`
	PolicyDecision  string   `json:"policy_decision"`
	UnderwriterNote string   `json:"underwriter_note"`
}

// Config is shared by the three agent constructors.
type Config struct {
	Caller      agent.Caller
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      zerolog.Logger
}

// toMap converts a struct to the map shape tool results use.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// fromMap decodes a tool-argument map into a struct.
func fromMap(m map[string]any, target any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
