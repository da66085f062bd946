// Package trace builds the regulatory traceability matrix: it normalizes
// GitHub issues and pull requests into typed items, extracts cross-references
// from free text, builds the directed reference graph, and computes coverage
// over it.
package trace

import "strings"

// ItemType classifies a traceable item by its design-control role.
type ItemType string

const (
	TypeRequirement  ItemType = "requirement"
	TypeDesign       ItemType = "design"
	TypeVerification ItemType = "verification"
	TypeValidation   ItemType = "validation"
	TypeRisk         ItemType = "risk"
	TypeOther        ItemType = "other"
)

// Item is a single traceable record (requirement, design, test, risk).
// JSON field names match the matrix artifact consumed by downstream CI.
type Item struct {
	ID          string   `json:"id"` // "#N" for issues, "PR#N" for pull requests
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_date"`
	UpdatedAt   string   `json:"updated_date"`
	Author      string   `json:"author"`
	Assignee    string   `json:"assignee,omitempty"`
	URL         string   `json:"url"`
	LinkedItems []string `json:"linked_items"`
}

// labelTypes maps lowercase label names to item types, in precedence order.
var labelTypes = []struct {
	typ    ItemType
	labels []string
}{
	{TypeRequirement, []string{"requirement", "design-input", "user-need"}},
	{TypeDesign, []string{"design", "specification", "design-output"}},
	{TypeVerification, []string{"verification", "test", "testing"}},
	{TypeValidation, []string{"validation", "clinical", "user-validation"}},
	{TypeRisk, []string{"risk", "iso-14971", "hazard"}},
}

// TypeFromLabels determines the item type from issue labels.
// The first matching category in precedence order wins; unlabeled or
// unrecognized items are TypeOther.
func TypeFromLabels(labels []string) ItemType {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		seen[strings.ToLower(l)] = struct{}{}
	}
	for _, lt := range labelTypes {
		for _, name := range lt.labels {
			if _, ok := seen[name]; ok {
				return lt.typ
			}
		}
	}
	return TypeOther
}

const maxDescriptionRunes = 500

// truncateDescription caps long bodies so the matrix stays readable.
func truncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= maxDescriptionRunes {
		return s
	}
	return string(r[:maxDescriptionRunes]) + "..."
}
