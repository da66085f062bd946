// Package gh is a minimal GitHub REST v3 client covering what the
// traceability and compliance tools need: paginated issue/PR listings, PR
// files and reviews, the repository tree, and file contents.
package gh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
)

// ErrNotFound is returned when the API answers 404 for a resource lookup.
var ErrNotFound = errors.New("gh: not found")

// Client talks to the GitHub API for a single owner/repo.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	repo       string // "owner/name"
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, GHE).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a client for the given repository. The token may be
// empty for public repositories, at the cost of a much lower rate limit.
func NewClient(token, repo string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		repo:       repo,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one API GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// listQuery builds the shared pagination query for issue/PR listings.
// Ascending creation order keeps item ordering stable across runs.
func listQuery(state string, page int) url.Values {
	return url.Values{
		"state":     {state},
		"per_page":  {strconv.Itoa(perPage)},
		"page":      {strconv.Itoa(page)},
		"sort":      {"created"},
		"direction": {"asc"},
	}
}

// ListIssues fetches all issues in the repository, walking pagination until
// an empty page. Pull requests surfaced by the issues endpoint are dropped.
func (c *Client) ListIssues(ctx context.Context, state string) ([]Issue, error) {
	if state == "" {
		state = "all"
	}
	var issues []Issue
	for page := 1; ; page++ {
		var batch []Issue
		if err := c.get(ctx, "/repos/"+c.repo+"/issues", listQuery(state, page), &batch); err != nil {
			return nil, fmt.Errorf("list issues page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, is := range batch {
			if is.PullRequest != nil {
				continue
			}
			issues = append(issues, is)
		}
	}
	return issues, nil
}

// ListPullRequests fetches all pull requests in the repository.
func (c *Client) ListPullRequests(ctx context.Context, state string) ([]PullRequest, error) {
	if state == "" {
		state = "all"
	}
	var prs []PullRequest
	for page := 1; ; page++ {
		var batch []PullRequest
		if err := c.get(ctx, "/repos/"+c.repo+"/pulls", listQuery(state, page), &batch); err != nil {
			return nil, fmt.Errorf("list pulls page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		prs = append(prs, batch...)
	}
	return prs, nil
}

// ListPullFiles returns the paths changed by a pull request.
func (c *Client) ListPullFiles(ctx context.Context, number int) ([]string, error) {
	var files []string
	for page := 1; ; page++ {
		q := url.Values{"per_page": {strconv.Itoa(perPage)}, "page": {strconv.Itoa(page)}}
		var batch []prFile
		path := fmt.Sprintf("/repos/%s/pulls/%d/files", c.repo, number)
		if err := c.get(ctx, path, q, &batch); err != nil {
			return nil, fmt.Errorf("list PR %d files: %w", number, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, f := range batch {
			files = append(files, f.Filename)
		}
	}
	return files, nil
}

// ListReviews returns all reviews on a pull request.
func (c *Client) ListReviews(ctx context.Context, number int) ([]Review, error) {
	var reviews []Review
	path := fmt.Sprintf("/repos/%s/pulls/%d/reviews", c.repo, number)
	if err := c.get(ctx, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("list PR %d reviews: %w", number, err)
	}
	return reviews, nil
}

// RepoTree returns all blob paths in the repository at the given ref.
func (c *Client) RepoTree(ctx context.Context, ref string) ([]string, error) {
	if ref == "" {
		ref = "main"
	}
	var tr treeResponse
	q := url.Values{"recursive": {"1"}}
	if err := c.get(ctx, "/repos/"+c.repo+"/git/trees/"+ref, q, &tr); err != nil {
		return nil, fmt.Errorf("repo tree %s: %w", ref, err)
	}
	var paths []string
	for _, e := range tr.Tree {
		if e.Type == "blob" {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

// FileContents fetches a file through the contents API and decodes it.
func (c *Client) FileContents(ctx context.Context, path string) (string, error) {
	var cr contentsResponse
	if err := c.get(ctx, "/repos/"+c.repo+"/contents/"+path, nil, &cr); err != nil {
		return "", err
	}
	if cr.Encoding == "base64" {
		// The contents API wraps base64 at 60 columns.
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode contents of %s: %w", path, err)
		}
		return string(raw), nil
	}
	return cr.Content, nil
}

// FileExists reports whether a path exists in the repository.
func (c *Client) FileExists(ctx context.Context, path string) (bool, error) {
	var cr contentsResponse
	err := c.get(ctx, "/repos/"+c.repo+"/contents/"+path, nil, &cr)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
