package trace

import (
	"fmt"

	"qmskit/internal/gh"
)

// ParseIssues normalizes GitHub issues into traceability items. The item
// type comes from labels, references from the body.
func ParseIssues(issues []gh.Issue) []Item {
	items := make([]Item, 0, len(issues))
	for _, is := range issues {
		labels := make([]string, 0, len(is.Labels))
		for _, l := range is.Labels {
			labels = append(labels, l.Name)
		}
		item := Item{
			ID:          fmt.Sprintf("#%d", is.Number),
			Type:        TypeFromLabels(labels),
			Title:       is.Title,
			Description: truncateDescription(is.Body),
			Labels:      labels,
			Status:      is.State,
			CreatedAt:   is.CreatedAt,
			UpdatedAt:   is.UpdatedAt,
			Author:      is.User.Login,
			URL:         is.HTMLURL,
			LinkedItems: ExtractReferences(is.Body),
		}
		if is.Assignee != nil {
			item.Assignee = is.Assignee.Login
		}
		items = append(items, item)
	}
	return items
}

// ParsePullRequests normalizes pull requests. PRs are design outputs by
// convention, regardless of any labels, and reference both title and body.
func ParsePullRequests(prs []gh.PullRequest) []Item {
	items := make([]Item, 0, len(prs))
	for _, pr := range prs {
		item := Item{
			ID:          fmt.Sprintf("PR#%d", pr.Number),
			Type:        TypeDesign,
			Title:       pr.Title,
			Description: truncateDescription(pr.Body),
			Labels:      []string{},
			Status:      pr.State,
			CreatedAt:   pr.CreatedAt,
			UpdatedAt:   pr.UpdatedAt,
			Author:      pr.User.Login,
			URL:         pr.HTMLURL,
			LinkedItems: mergeRefs(ExtractReferences(pr.Title), ExtractReferences(pr.Body)),
		}
		if pr.Assignee != nil {
			item.Assignee = pr.Assignee.Login
		}
		items = append(items, item)
	}
	return items
}
