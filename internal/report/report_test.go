package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qmskit/internal/trace"
)

func testMatrix() trace.Matrix {
	items := []trace.Item{
		{ID: "#1", Type: trace.TypeRequirement, Title: "Login requirement",
			Labels: []string{"requirement", "priority-high"}, Status: "open", Author: "alice"},
		{ID: "PR#2", Type: trace.TypeDesign, Title: "Login implementation",
			Status: "open", Author: "bob", LinkedItems: []string{"#1"}},
	}
	return trace.BuildMatrix(items, "acme/device")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	m := testMatrix()
	require.NoError(t, WriteJSON(path, &m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "metadata")
	assert.Contains(t, decoded, "items")
	assert.Contains(t, decoded, "relationships")
	assert.Contains(t, decoded, "coverage_analysis")

	// The artifact round-trips into the same matrix shape.
	var back trace.Matrix
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.Items, back.Items)
	assert.Equal(t, m.Relationships, back.Relationships)
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	m := testMatrix()
	require.NoError(t, WriteCSV(dir, &m))

	items := readCSV(t, filepath.Join(dir, "items.csv"))
	require.Len(t, items, 3)
	assert.Equal(t, "id", items[0][0])
	assert.Equal(t, "#1", items[1][0])
	assert.Equal(t, "requirement;priority-high", items[1][8])
	assert.Equal(t, "#1", items[2][9], "linked_items column")

	rels := readCSV(t, filepath.Join(dir, "relationships.csv"))
	require.Len(t, rels, 2)
	assert.Equal(t, []string{"PR#2", "design", "#1", "requirement", "references"}, rels[1])

	cov := readCSV(t, filepath.Join(dir, "coverage.csv"))
	require.Len(t, cov, 7)
	assert.Equal(t, []string{"coverage_percentage", "100.0"}, cov[6])
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.html")
	items := append(testMatrix().Items, trace.Item{
		ID: "#9", Type: trace.TypeRequirement,
		Title: strings.Repeat("long title ", 20),
	})
	m := trace.BuildMatrix(items, "acme/device")
	require.NoError(t, WriteHTML(path, &m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Login requirement")
	assert.Contains(t, html, "50.0%")
	assert.Contains(t, html, "#9", "orphaned requirement listed")
	assert.Contains(t, html, "...", "long titles truncated")
	assert.NotContains(t, html, strings.Repeat("long title ", 20))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
