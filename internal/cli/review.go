package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loanlab/underwriter/pkg/lending"
	"github.com/loanlab/underwriter/pkg/underwriting"
)

var (
	reviewIncome        float64
	reviewDebts         []float64
	reviewLoanAmount    float64
	reviewPropertyValue float64
	reviewFICO          int
	reviewDocs          []string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review an application offline with the deterministic rules",
	Long: `Review a loan application offline. This runs the same calculations and
policy thresholds the agents use, without any model calls, and prints the
underwriter review package. With no flags it reviews the sample application.`,
	RunE: runReview,
}

func init() {
	sample := underwriting.SampleApplication()
	reviewCmd.Flags().Float64Var(&reviewIncome, "income", sample.Income, "monthly income")
	reviewCmd.Flags().Float64SliceVar(&reviewDebts, "debts", sample.Debts, "monthly debt payments")
	reviewCmd.Flags().Float64Var(&reviewLoanAmount, "loan-amount", sample.LoanAmount, "requested loan amount")
	reviewCmd.Flags().Float64Var(&reviewPropertyValue, "property-value", sample.PropertyValue, "property value")
	reviewCmd.Flags().IntVar(&reviewFICO, "fico", sample.FICO, "FICO credit score")
	reviewCmd.Flags().StringSliceVar(&reviewDocs, "docs", sample.UploadedDocs, "uploaded document types")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	dtiResult, err := lending.ComputeDTI(reviewIncome, reviewDebts)
	if err != nil {
		return fmt.Errorf("dti calculation failed: %w", err)
	}
	ltvResult, err := lending.ComputeLTV(reviewLoanAmount, reviewPropertyValue)
	if err != nil {
		return fmt.Errorf("ltv calculation failed: %w", err)
	}
	docResult := lending.CheckDocCompleteness(reviewDocs)

	verification := underwriting.VerificationResult{
		DTIPercent:  dtiResult["dti_percent"].(float64),
		LTVPercent:  ltvResult["ltv_percent"].(float64),
		MissingDocs: docResult["missing_docs"].([]string),
	}
	policy := underwriting.EvaluatePolicy(verification.DTIPercent, verification.LTVPercent, reviewFICO)

	summary := underwriting.SummarizeForUnderwriter(verification, policy, reviewFICO)
	fmt.Fprintln(cmd.OutOrStdout(), underwriting.FormatSummary(summary))

	return nil
}
