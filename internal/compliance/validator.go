// Package compliance implements the pre-merge gate for design control
// changes: document presence, approval status against CODEOWNERS, document
// relationship pairing, and template compliance.
package compliance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"qmskit/internal/gh"
)

// requiredDocs maps mandatory document subtrees to their descriptions.
// Checked only when a PR touches design controls.
var requiredDocs = []struct {
	Prefix      string
	Description string
}{
	{"docs/design-controls/requirements/", "Design input requirements"},
	{"docs/design-controls/specifications/", "Design output specifications"},
	{"docs/design-controls/verification/", "Design verification protocols"},
	{"docs/design-controls/validation/", "Design validation protocols"},
	{"docs/design-controls/risk-management/", "Risk management files"},
	{"docs/quality-system/document-control/", "Document control procedures"},
	{"docs/device-master-record/", "Device master record files"},
}

// requirementSections are the template sections a requirement document must
// cover (at least two of three).
var requirementSections = []string{"user need", "intended use", "acceptance criteria"}

// metadataFields are the headers a design control document must declare,
// either as YAML front matter or as **field** lines near the top.
var metadataFields = []string{"title", "version", "author", "date"}

// CheckResult is the outcome of one named gate check.
type CheckResult struct {
	Name   string
	Passed bool
}

// Validator runs the merge gate for a single pull request.
type Validator struct {
	client *gh.Client
	pr     int
	log    *zap.Logger

	Errors   []string
	Warnings []string
}

// New creates a gate validator for PR number pr.
func New(client *gh.Client, pr int, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{client: client, pr: pr, log: log}
}

// Run executes every gate check and returns the per-check results. It
// returns an error only for infrastructure failures (the changed-files
// listing is a hard prerequisite); check failures land in Errors/Warnings.
func (v *Validator) Run(ctx context.Context) ([]CheckResult, error) {
	changed, err := v.client.ListPullFiles(ctx, v.pr)
	if err != nil {
		return nil, fmt.Errorf("fetch changed files: %w", err)
	}
	v.log.Info("checking changed files", zap.Int("count", len(changed)))

	results := []CheckResult{
		{"Document Presence", v.checkDocumentPresence(ctx, changed)},
		{"Approval Status", v.checkApprovals(ctx)},
		{"Document Relationships", v.checkRelationships(ctx, changed)},
		{"Template Compliance", v.checkTemplates(ctx, changed)},
	}
	return results, nil
}

// checkDocumentPresence verifies the mandatory document subtrees exist when
// design control files are being modified.
func (v *Validator) checkDocumentPresence(ctx context.Context, changed []string) bool {
	touchesDesign := false
	for _, f := range changed {
		if strings.HasPrefix(f, "docs/design-controls/") {
			touchesDesign = true
			break
		}
	}
	if !touchesDesign {
		return true
	}

	tree, err := v.client.RepoTree(ctx, "")
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("failed to fetch repository tree: %v", err))
		return false
	}
	ok := true
	for _, req := range requiredDocs {
		found := false
		for _, path := range tree {
			if strings.HasPrefix(path, req.Prefix) {
				found = true
				break
			}
		}
		if !found {
			v.Errors = append(v.Errors, fmt.Sprintf("missing required %s in %s", req.Description, req.Prefix))
			ok = false
		}
	}
	return ok
}

// checkApprovals verifies every CODEOWNERS reviewer has an APPROVED review.
func (v *Validator) checkApprovals(ctx context.Context) bool {
	reviews, err := v.client.ListReviews(ctx, v.pr)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("failed to fetch PR reviews: %v", err))
		return false
	}
	approved := make(map[string]struct{})
	for _, r := range reviews {
		if r.State == "APPROVED" {
			approved[r.User.Login] = struct{}{}
		}
	}

	required, err := v.requiredReviewers(ctx)
	if err != nil || len(required) == 0 {
		v.Warnings = append(v.Warnings, "no CODEOWNERS file found or no reviewers required")
		return true
	}

	ok := true
	for _, reviewer := range required {
		name := strings.TrimPrefix(reviewer, "@")
		if _, has := approved[name]; !has {
			v.Errors = append(v.Errors, fmt.Sprintf("missing approval from required reviewer: %s", name))
			ok = false
		}
	}
	return ok
}

// requiredReviewers extracts reviewer handles from .github/CODEOWNERS:
// every token after the path pattern on each non-comment line.
func (v *Validator) requiredReviewers(ctx context.Context) ([]string, error) {
	content, err := v.client.FileContents(ctx, ".github/CODEOWNERS")
	if err != nil {
		return nil, err
	}
	var reviewers []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) > 1 {
			reviewers = append(reviewers, parts[1:]...)
		}
	}
	return reviewers, nil
}

// checkRelationships warns on missing counterpart documents: requirements
// without specifications, specifications without verification protocols,
// and risk files without mitigation documentation. Warnings only.
func (v *Validator) checkRelationships(ctx context.Context, changed []string) bool {
	for _, f := range changed {
		if !strings.HasPrefix(f, "docs/design-controls/") {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		switch {
		case strings.Contains(f, "requirements/"):
			spec := "docs/design-controls/specifications/" + name + ".md"
			if !v.exists(ctx, spec) {
				v.Warnings = append(v.Warnings, fmt.Sprintf("requirement %s missing corresponding specification", name))
			}
		case strings.Contains(f, "specifications/"):
			verif := "docs/design-controls/verification/" + name + ".md"
			if !v.exists(ctx, verif) {
				v.Warnings = append(v.Warnings, fmt.Sprintf("specification %s missing verification protocol", name))
			}
		}
	}

	for _, f := range changed {
		if !strings.Contains(f, "risk-management/") {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		mitigations := []string{
			"docs/design-controls/specifications/" + name + "_mitigation.md",
			"docs/design-controls/verification/" + name + "_test.md",
		}
		found := false
		for _, m := range mitigations {
			if v.exists(ctx, m) {
				found = true
				break
			}
		}
		if !found {
			v.Warnings = append(v.Warnings, fmt.Sprintf("risk %s may be missing mitigation documentation", name))
		}
	}
	return true
}

// checkTemplates verifies changed design control documents carry required
// metadata and requirement documents follow the section template.
func (v *Validator) checkTemplates(ctx context.Context, changed []string) bool {
	ok := true
	for _, f := range changed {
		if !strings.HasSuffix(f, ".md") {
			continue
		}
		content, err := v.client.FileContents(ctx, f)
		if err != nil {
			continue // deleted in this PR, or unreadable; not a gate failure
		}
		if strings.Contains(f, "docs/design-controls/") && !hasRequiredMetadata(content) {
			v.Errors = append(v.Errors, fmt.Sprintf("document %s missing required metadata headers", f))
			ok = false
		}
		if strings.Contains(f, "requirements/") && !followsRequirementTemplate(content) {
			v.Errors = append(v.Errors, fmt.Sprintf("requirement document %s doesn't follow template", f))
			ok = false
		}
	}
	return ok
}

func (v *Validator) exists(ctx context.Context, path string) bool {
	ok, err := v.client.FileExists(ctx, path)
	if err != nil {
		v.log.Warn("existence check failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return ok
}

// Summary renders the markdown error report CI posts back to the PR.
// Empty when there is nothing to report.
func (v *Validator) Summary() string {
	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		return ""
	}
	var b strings.Builder
	if len(v.Errors) > 0 {
		b.WriteString("### Errors (Must Fix):\n")
		for _, e := range v.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(v.Warnings) > 0 {
		b.WriteString("### Warnings (Recommended):\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
