package lending

import (
	"context"
	"fmt"

	"github.com/loanlab/underwriter/pkg/toolkit"
)

// CalculationTools returns the verification tool definitions:
// compute_dti, compute_ltv, check_doc_completeness.
func CalculationTools() []toolkit.Definition {
	return []toolkit.Definition{
		{
			Name:        "compute_dti",
			Description: "Calculate debt-to-income ratio",
			Parameters: []toolkit.Parameter{
				{Name: "income", Type: "number", Description: "Monthly income in dollars", Required: true},
				{Name: "debts", Type: "array", Description: "List of monthly debt payments", Required: true, Items: map[string]any{"type": "number"}},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				income, err := asNumber(args["income"], "income")
				if err != nil {
					return nil, err
				}
				debts, err := asNumberSlice(args["debts"], "debts")
				if err != nil {
					return nil, err
				}
				return ComputeDTI(income, debts)
			},
		},
		{
			Name:        "compute_ltv",
			Description: "Calculate loan-to-value ratio",
			Parameters: []toolkit.Parameter{
				{Name: "loan_amount", Type: "number", Description: "Requested loan amount", Required: true},
				{Name: "property_value", Type: "number", Description: "Property value", Required: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				loanAmount, err := asNumber(args["loan_amount"], "loan_amount")
				if err != nil {
					return nil, err
				}
				propertyValue, err := asNumber(args["property_value"], "property_value")
				if err != nil {
					return nil, err
				}
				return ComputeLTV(loanAmount, propertyValue)
			},
		},
		{
			Name:        "check_doc_completeness",
			Description: "Check which required documents are missing",
			Parameters: []toolkit.Parameter{
				{Name: "uploaded_docs", Type: "array", Description: "List of uploaded document types", Required: true, Items: map[string]any{"type": "string"}},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				docs, err := asStringSlice(args["uploaded_docs"], "uploaded_docs")
				if err != nil {
					return nil, err
				}
				return CheckDocCompleteness(docs), nil
			},
		},
	}
}

// PolicyTools returns the policy agent tool definitions.
func PolicyTools() []toolkit.Definition {
	return []toolkit.Definition{
		{
			Name:        "get_policy_snippet",
			Description: "Retrieve policy rules for a loan product",
			Parameters: []toolkit.Parameter{
				{Name: "product", Type: "string", Description: "Loan product type (e.g. 'Standard Mortgage', 'FHA Loan')", Required: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				product, _ := args["product"].(string)
				return GetPolicySnippet(product), nil
			},
		},
	}
}

// asNumber converts a decoded JSON value to float64. Arguments arrive
// as float64 from the wire but may be Go ints when an agent invokes a
// sub-agent directly.
func asNumber(value any, field string) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, &toolkit.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected number, got %T", value),
		}
	}
}

func asNumberSlice(value any, field string) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			n, err := asNumber(item, field)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, &toolkit.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected array of numbers, got %T", value),
		}
	}
}

func asStringSlice(value any, field string) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &toolkit.ValidationError{
					Field:   field,
					Message: fmt.Sprintf("expected string element, got %T", item),
				}
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, &toolkit.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected array of strings, got %T", value),
		}
	}
}
