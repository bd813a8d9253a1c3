// Package lending holds the deterministic business calculations the
// agents expose as tools: DTI, LTV, document completeness, and policy
// snippet lookup. Everything here is pure; validation failures are
// field-scoped toolkit errors, never panics.
package lending

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/loanlab/underwriter/pkg/toolkit"
)

// RequiredDocs is the fixed set of documents a complete application
// must include. Matching is case-insensitive.
var RequiredDocs = []string{"PAYSTUB", "BANK_STATEMENT", "ID"}

// ComputeDTI calculates the debt-to-income ratio. Income must be a
// positive number; a nil debts list counts as zero debt.
func ComputeDTI(income float64, debts []float64) (map[string]any, error) {
	if income <= 0 {
		return nil, &toolkit.ValidationError{
			Field:   "income",
			Message: fmt.Sprintf("value must be positive, got %v", income),
		}
	}

	total := 0.0
	for _, debt := range debts {
		total += debt
	}

	ratio := total / income
	return map[string]any{
		"dti_ratio":   ratio,
		"dti_percent": roundPercent(ratio),
	}, nil
}

// ComputeLTV calculates the loan-to-value ratio. Property value must
// be positive and loan amount non-negative.
func ComputeLTV(loanAmount, propertyValue float64) (map[string]any, error) {
	if propertyValue <= 0 {
		return nil, &toolkit.ValidationError{
			Field:   "property_value",
			Message: fmt.Sprintf("value must be positive, got %v", propertyValue),
		}
	}
	if loanAmount < 0 {
		return nil, &toolkit.ValidationError{
			Field:   "loan_amount",
			Message: fmt.Sprintf("loan amount must be non-negative, got %v", loanAmount),
		}
	}

	ratio := loanAmount / propertyValue
	return map[string]any{
		"ltv_ratio":   ratio,
		"ltv_percent": roundPercent(ratio),
	}, nil
}

// CheckDocCompleteness reports which required documents are missing.
// Matching is case-insensitive and idempotent; missing docs come back
// in sorted order so output is stable.
func CheckDocCompleteness(uploadedDocs []string) map[string]any {
	uploaded := make(map[string]bool, len(uploadedDocs))
	for _, doc := range uploadedDocs {
		uploaded[strings.ToUpper(doc)] = true
	}

	missing := []string{}
	for _, required := range RequiredDocs {
		if !uploaded[required] {
			missing = append(missing, required)
		}
	}
	sort.Strings(missing)

	return map[string]any{
		"missing_docs": missing,
		"complete":     len(missing) == 0,
	}
}

// roundPercent converts a ratio to a percentage rounded to one decimal.
func roundPercent(ratio float64) float64 {
	return math.Round(1000*ratio) / 10
}
