package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qmskit/internal/compliance"
	"qmskit/internal/gh"
)

var complianceOpts struct {
	repo   string
	token  string
	pr     int
	report string
}

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Run the design control merge gate for a pull request",
	Long: `Validates a pull request against design control requirements: mandatory
document subtrees, CODEOWNERS approvals, document relationship pairing, and
template compliance.

Flags fall back to the GITHUB_TOKEN, PR_NUMBER, and REPOSITORY environment
variables so the command runs unmodified inside CI. Errors are written to a
markdown report for posting back to the pull request, and the command exits
nonzero when any check fails.`,
	RunE: runCompliance,
}

func init() {
	f := complianceCmd.Flags()
	f.StringVar(&complianceOpts.repo, "repo", "", "repository in owner/name form (defaults to REPOSITORY)")
	f.StringVar(&complianceOpts.token, "token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	f.IntVar(&complianceOpts.pr, "pr", 0, "pull request number (defaults to PR_NUMBER)")
	f.StringVar(&complianceOpts.report, "report", "compliance-errors.txt", "markdown report path for gate failures")
}

func runCompliance(cmd *cobra.Command, args []string) error {
	repo := complianceOpts.repo
	if repo == "" {
		repo = os.Getenv("REPOSITORY")
	}
	token := complianceOpts.token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	pr := complianceOpts.pr
	if pr == 0 {
		if n, err := strconv.Atoi(os.Getenv("PR_NUMBER")); err == nil {
			pr = n
		}
	}
	if repo == "" || pr == 0 {
		return fmt.Errorf("repository and PR number are required (--repo/--pr or REPOSITORY/PR_NUMBER)")
	}

	v := compliance.New(gh.NewClient(token, repo), pr, logger)
	results, err := v.Run(cmd.Context())
	if err != nil {
		return err
	}

	failed := false
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed = true
		}
		fmt.Printf("%s: %s\n", status, r.Name)
	}
	logger.Info("compliance gate complete",
		zap.Bool("passed", !failed),
		zap.Int("errors", len(v.Errors)),
		zap.Int("warnings", len(v.Warnings)))

	if summary := v.Summary(); summary != "" {
		if err := os.WriteFile(complianceOpts.report, []byte(summary), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("wrote gate report", zap.String("path", complianceOpts.report))
	}

	if failed {
		os.Exit(1)
	}
	return nil
}
