package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeItemFixture() []Item {
	return []Item{
		{ID: "#1", Type: TypeRequirement, Title: "User authentication"},
		{ID: "PR#2", Type: TypeDesign, Title: "Login implementation", LinkedItems: []string{"#1"}},
		{ID: "#3", Type: TypeVerification, Title: "Login test protocol", LinkedItems: []string{"#1"}},
	}
}

func TestGraph_BuildEdges(t *testing.T) {
	g := NewGraph()
	for _, it := range threeItemFixture() {
		g.AddItem(it)
	}
	g.BuildEdges()

	want := []Relationship{
		{FromID: "PR#2", FromType: TypeDesign, ToID: "#1", ToType: TypeRequirement, Kind: "references"},
		{FromID: "#3", FromType: TypeVerification, ToID: "#1", ToType: TypeRequirement, Kind: "references"},
	}
	if diff := cmp.Diff(want, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_SkipsUnknownTargets(t *testing.T) {
	g := NewGraph()
	g.AddItem(Item{ID: "#1", Type: TypeDesign, LinkedItems: []string{"#99"}})
	g.BuildEdges()

	assert.Empty(t, g.Edges)
	unknown := g.UnknownReferences()
	require.Len(t, unknown, 1)
	assert.Equal(t, [2]string{"#1", "#99"}, unknown[0])
}

func TestGraph_DeduplicatesItemsAndEdges(t *testing.T) {
	g := NewGraph()
	g.AddItem(Item{ID: "#1", Type: TypeRequirement, Title: "first"})
	g.AddItem(Item{ID: "#1", Type: TypeDesign, Title: "duplicate"})
	g.AddItem(Item{ID: "#2", Type: TypeDesign, LinkedItems: []string{"#1", "#1"}})
	g.BuildEdges()

	require.Len(t, g.Items, 2)
	assert.Equal(t, "first", g.Items[0].Title)
	assert.Len(t, g.Edges, 1)
}

func TestGraph_SelfReferenceIgnored(t *testing.T) {
	g := NewGraph()
	g.AddItem(Item{ID: "#1", Type: TypeRequirement, LinkedItems: []string{"#1"}})
	g.BuildEdges()
	assert.Empty(t, g.Edges)
}

func TestBuildMatrix(t *testing.T) {
	m := BuildMatrix(threeItemFixture(), "acme/device")

	assert.Equal(t, 3, m.Metadata.TotalItems)
	assert.Equal(t, "acme/device", m.Metadata.Repository)
	assert.NotEmpty(t, m.Metadata.RunID)
	assert.NotEmpty(t, m.Metadata.GeneratedAt)
	assert.Equal(t, map[string]int{
		"requirement":  1,
		"design":       1,
		"verification": 1,
	}, m.Metadata.ItemsByType)

	assert.Len(t, m.Relationships, 2)
	assert.Equal(t, 100.0, m.Coverage.CoveragePercentage)
}
