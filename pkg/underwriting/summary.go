package underwriting

import (
	"fmt"
	"strings"
)

// SummarizeForUnderwriter folds the verification and policy outputs
// into the review package a human underwriter reads.
func SummarizeForUnderwriter(verification VerificationResult, policy PolicyResult, fico int) UnderwriterSummary {
	summary := UnderwriterSummary{
		DTISummary:     metricSummary("DTI", verification.DTIPercent, MaxDTIPercent, verification.DTIPercent <= MaxDTIPercent),
		LTVSummary:     metricSummary("LTV", verification.LTVPercent, MaxLTVPercent, verification.LTVPercent <= MaxLTVPercent),
		FICOSummary:    ficoSummary(fico),
		DocConditions:  docConditions(verification.MissingDocs),
		PolicyDecision: policy.Decision,
	}
	summary.UnderwriterNote = underwriterNote(verification, policy)
	return summary
}

// FormatSummary renders the summary as the text block shown to the
// underwriter.
func FormatSummary(summary UnderwriterSummary) string {
	var b strings.Builder
	b.WriteString("UNDERWRITER REVIEW PACKAGE\n")
	b.WriteString("==========================\n")
	fmt.Fprintf(&b, "%s\n", summary.DTISummary)
	fmt.Fprintf(&b, "%s\n", summary.LTVSummary)
	fmt.Fprintf(&b, "%s\n", summary.FICOSummary)
	if len(summary.DocConditions) > 0 {
		b.WriteString("Conditions:\n")
		for _, condition := range summary.DocConditions {
			fmt.Fprintf(&b, "  - %s\n", condition)
		}
	}
	fmt.Fprintf(&b, "Policy decision: %s\n", summary.PolicyDecision)
	fmt.Fprintf(&b, "Note: %s", summary.UnderwriterNote)
	return b.String()
}

func metricSummary(name string, value, limit float64, ok bool) string {
	mark := "✓"
	if !ok {
		mark = "✗"
	}
	return fmt.Sprintf("%s: %.1f%% (limit %.1f%%) %s", name, value, limit, mark)
}

func ficoSummary(fico int) string {
	mark := "✓"
	if fico < MinFICO {
		mark = "✗"
	}
	return fmt.Sprintf("FICO: %d (minimum %d) %s", fico, MinFICO, mark)
}

// docConditions lists one condition per missing document, preserving
// the order the verification agent reported them in.
func docConditions(missingDocs []string) []string {
	conditions := make([]string, 0, len(missingDocs))
	for _, doc := range missingDocs {
		conditions = append(conditions, fmt.Sprintf("Obtain %s before closing", doc))
	}
	return conditions
}

// underwriterNote derives the recommendation line: a pass with complete
// documents recommends approval, a pass with missing documents is
// conditional on them, and a fail routes to manual review naming the
// reason codes.
func underwriterNote(verification VerificationResult, policy PolicyResult) string {
	switch {
	case policy.Decision == DecisionPass && len(verification.MissingDocs) == 0:
		return "All criteria met. Recommend approval."
	case policy.Decision == DecisionPass:
		return fmt.Sprintf(
			"Criteria met. Conditional approval pending documents: %s.",
			strings.Join(verification.MissingDocs, ", "),
		)
	default:
		codes := strings.Join(policy.ReasonCodes, ", ")
		if codes == "" {
			codes = "unspecified"
		}
		return fmt.Sprintf("Application failed policy checks (%s). Route to manual review.", codes)
	}
}
