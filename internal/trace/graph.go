package trace

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is a directed edge in the reference graph, derived solely
// from LinkedItems of normalized records.
type Relationship struct {
	FromID   string   `json:"from_id"`
	FromType ItemType `json:"from_type"`
	ToID     string   `json:"to_id"`
	ToType   ItemType `json:"to_type"`
	Kind     string   `json:"relationship_type"`
}

// Metadata describes one matrix generation run.
type Metadata struct {
	GeneratedAt string         `json:"generated_date"`
	RunID       string         `json:"run_id"`
	Repository  string         `json:"repository,omitempty"`
	TotalItems  int            `json:"total_items"`
	ItemsByType map[string]int `json:"items_by_type"`
}

// Matrix is the complete traceability artifact.
type Matrix struct {
	Metadata      Metadata       `json:"metadata"`
	Items         []Item         `json:"items"`
	Relationships []Relationship `json:"relationships"`
	Coverage      Coverage       `json:"coverage_analysis"`
}

// edgeKey is the deduplication key for relationships.
type edgeKey struct {
	From, To, Kind string
}

// Graph accumulates items and reference edges before analysis. Items
// deduplicate by ID (first wins); edges by (from, to, kind).
type Graph struct {
	Items    []Item
	Edges    []Relationship
	byID     map[string]int
	edgeSeen map[edgeKey]struct{}
}

// NewGraph creates an empty graph ready for population.
func NewGraph() *Graph {
	return &Graph{
		byID:     make(map[string]int),
		edgeSeen: make(map[edgeKey]struct{}),
	}
}

// AddItem appends an item, deduplicating by ID.
func (g *Graph) AddItem(it Item) {
	if _, dup := g.byID[it.ID]; dup {
		return
	}
	g.byID[it.ID] = len(g.Items)
	g.Items = append(g.Items, it)
}

// Lookup returns the item with the given ID, if present.
func (g *Graph) Lookup(id string) (Item, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Item{}, false
	}
	return g.Items[idx], true
}

// addEdge appends a relationship if no identical edge exists yet.
func (g *Graph) addEdge(r Relationship) {
	k := edgeKey{r.FromID, r.ToID, r.Kind}
	if _, dup := g.edgeSeen[k]; dup {
		return
	}
	g.edgeSeen[k] = struct{}{}
	g.Edges = append(g.Edges, r)
}

// BuildEdges derives reference edges from every item's LinkedItems.
// References to IDs outside the item set produce no edge; they surface
// later as unknown-reference findings in the database artifact.
func (g *Graph) BuildEdges() {
	for _, it := range g.Items {
		for _, ref := range it.LinkedItems {
			if ref == it.ID {
				continue
			}
			target, ok := g.Lookup(ref)
			if !ok {
				continue
			}
			g.addEdge(Relationship{
				FromID:   it.ID,
				FromType: it.Type,
				ToID:     ref,
				ToType:   target.Type,
				Kind:     "references",
			})
		}
	}
}

// UnknownReferences returns (itemID, ref) pairs whose target is not in the
// item set, in item order.
func (g *Graph) UnknownReferences() [][2]string {
	var out [][2]string
	for _, it := range g.Items {
		for _, ref := range it.LinkedItems {
			if _, ok := g.byID[ref]; !ok {
				out = append(out, [2]string{it.ID, ref})
			}
		}
	}
	return out
}

// BuildMatrix assembles the full matrix from normalized items: metadata,
// reference edges, and coverage analysis. Pure aggregation; item order is
// preserved from the input.
func BuildMatrix(items []Item, repo string) Matrix {
	g := NewGraph()
	for _, it := range items {
		g.AddItem(it)
	}
	g.BuildEdges()

	byType := make(map[string]int)
	for _, it := range g.Items {
		byType[string(it.Type)]++
	}

	return Matrix{
		Metadata: Metadata{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			RunID:       uuid.NewString(),
			Repository:  repo,
			TotalItems:  len(g.Items),
			ItemsByType: byType,
		},
		Items:         g.Items,
		Relationships: g.Edges,
		Coverage:      AnalyzeCoverage(g.Items),
	}
}
