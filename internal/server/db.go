package server

import (
	"database/sql"
	"encoding/json"
)

// nullStringJSON marshals as string or null, keeping the API contract
// explicit for optional columns.
type nullStringJSON struct{ sql.NullString }

func (n nullStringJSON) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *nullStringJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.String, n.Valid = s, true
	return nil
}

// DB wraps *sql.DB and provides trace query helpers.
type DB struct {
	*sql.DB
}

// NewDB returns a DB wrapper.
func NewDB(db *sql.DB) *DB {
	return &DB{DB: db}
}

// Item is a traceability item for API responses.
type Item struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description nullStringJSON `json:"description"`
	Labels      nullStringJSON `json:"labels"`
	Status      nullStringJSON `json:"status"`
	CreatedAt   nullStringJSON `json:"created_date"`
	UpdatedAt   nullStringJSON `json:"updated_date"`
	Author      nullStringJSON `json:"author"`
	Assignee    nullStringJSON `json:"assignee,omitempty"`
	URL         nullStringJSON `json:"url"`
	Direction   string         `json:"direction,omitempty"` // incoming/outgoing from subgraph
}

// Relationship is a reference edge for API responses.
type Relationship struct {
	FromID   string `json:"from_id"`
	FromType string `json:"from_type"`
	ToID     string `json:"to_id"`
	ToType   string `json:"to_type"`
	Kind     string `json:"relationship_type"`
}

// Subgraph is the neighborhood response format: items plus the edges
// between them.
type Subgraph struct {
	Items []Item         `json:"items"`
	Edges []Relationship `json:"edges"`
}

// CoverageReport is the coverage endpoint response: metrics from the
// coverage table plus the orphaned item list.
type CoverageReport struct {
	Metrics  map[string]float64 `json:"metrics"`
	Orphans  []string           `json:"orphaned_items"`
	ByType   map[string]int     `json:"items_by_type"`
	Metadata map[string]string  `json:"metadata"`
}

const maxListLimit = 500
