package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"qmskit/internal/gh"
)

// FetchItems pulls issues and pull requests concurrently and normalizes
// them into a single item slice, issues first. Item order within each kind
// follows the API's ascending creation order.
func FetchItems(ctx context.Context, client *gh.Client, state string) ([]Item, error) {
	var (
		issues []gh.Issue
		prs    []gh.PullRequest
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		issues, err = client.ListIssues(ctx, state)
		return err
	})
	eg.Go(func() error {
		var err error
		prs, err = client.ListPullRequests(ctx, state)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("fetch repository items: %w", err)
	}

	items := ParseIssues(issues)
	items = append(items, ParsePullRequests(prs)...)
	return items, nil
}

// LoadItemsFromFiles reads issue and PR dumps (as produced by `gh api` or a
// recorded fetch) and normalizes them exactly like a live fetch. Either
// path may be empty.
func LoadItemsFromFiles(issuesPath, pullsPath string) ([]Item, error) {
	var items []Item
	if issuesPath != "" {
		var issues []gh.Issue
		if err := readJSONFile(issuesPath, &issues); err != nil {
			return nil, err
		}
		// Honor the same PR filtering as the live issues listing.
		filtered := issues[:0]
		for _, is := range issues {
			if is.PullRequest == nil {
				filtered = append(filtered, is)
			}
		}
		items = append(items, ParseIssues(filtered)...)
	}
	if pullsPath != "" {
		var prs []gh.PullRequest
		if err := readJSONFile(pullsPath, &prs); err != nil {
			return nil, err
		}
		items = append(items, ParsePullRequests(prs)...)
	}
	return items, nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
