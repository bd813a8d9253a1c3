package lending

// DefaultProduct is used when a requested product is unknown.
const DefaultProduct = "Standard Mortgage"

// policySnippets simulates a policy retrieval system with canned text
// per loan product.
var policySnippets = map[string]string{
	"Standard Mortgage": `
STANDARD MORTGAGE POLICY GUIDELINES:
- Maximum DTI: 43%
- Maximum LTV: 80%
- Minimum FICO: 680
- Required Documents: Paystub (last 30 days), Bank Statement (last 2 months), Government ID
`,
	"FHA Loan": `
FHA LOAN POLICY GUIDELINES:
- Maximum DTI: 50%
- Maximum LTV: 96.5%
- Minimum FICO: 580
- Required Documents: Paystub, Bank Statement, ID, Tax Returns (2 years)
`,
}

// GetPolicySnippet retrieves the policy rules for a product, falling
// back to the default product's text for unknown names.
func GetPolicySnippet(product string) map[string]any {
	snippet, ok := policySnippets[product]
	if !ok {
		snippet = policySnippets[DefaultProduct]
	}

	return map[string]any{
		"product":     product,
		"policy_text": snippet,
	}
}
