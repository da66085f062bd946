package gh

// Wire types for the subset of the GitHub REST v3 API the toolkit consumes.

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// User identifies a GitHub account.
type User struct {
	Login string `json:"login"`
}

// Issue is a repository issue. The issues listing also returns pull
// requests; those carry a non-nil PullRequest stub and are filtered out.
type Issue struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Labels      []Label  `json:"labels"`
	State       string   `json:"state"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	User        User     `json:"user"`
	Assignee    *User    `json:"assignee"`
	HTMLURL     string   `json:"html_url"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

// PullRequest is a repository pull request.
type PullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	User      User   `json:"user"`
	Assignee  *User  `json:"assignee"`
	HTMLURL   string `json:"html_url"`
}

// Review is a pull request review.
type Review struct {
	State string `json:"state"` // APPROVED, CHANGES_REQUESTED, COMMENTED, ...
	User  User   `json:"user"`
}

// prFile is one entry of the PR files listing.
type prFile struct {
	Filename string `json:"filename"`
}

// treeEntry is one entry of a recursive git tree.
type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob or tree
}

// treeResponse is the git trees API envelope.
type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// contentsResponse is the repository contents API envelope for a file.
type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
