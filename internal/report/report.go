// Package report renders the traceability matrix into its export formats:
// the canonical JSON artifact, CSV tables, and a standalone HTML report.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"qmskit/internal/trace"
)

// WriteJSON writes the canonical matrix artifact.
func WriteJSON(path string, m *trace.Matrix) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal matrix: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes items.csv, relationships.csv, and coverage.csv into dir.
func WriteCSV(dir string, m *trace.Matrix) error {
	if err := writeCSVFile(filepath.Join(dir, "items.csv"), itemRows(m.Items)); err != nil {
		return err
	}
	if err := writeCSVFile(filepath.Join(dir, "relationships.csv"), relationshipRows(m.Relationships)); err != nil {
		return err
	}
	return writeCSVFile(filepath.Join(dir, "coverage.csv"), coverageRows(m.Coverage))
}

func itemRows(items []trace.Item) [][]string {
	rows := [][]string{{"id", "type", "title", "status", "author", "assignee", "created_date", "updated_date", "labels", "linked_items", "url"}}
	for _, it := range items {
		rows = append(rows, []string{
			it.ID, string(it.Type), it.Title, it.Status, it.Author, it.Assignee,
			it.CreatedAt, it.UpdatedAt,
			strings.Join(it.Labels, ";"), strings.Join(it.LinkedItems, ";"), it.URL,
		})
	}
	return rows
}

func relationshipRows(rels []trace.Relationship) [][]string {
	rows := [][]string{{"from_id", "from_type", "to_id", "to_type", "relationship_type"}}
	for _, r := range rels {
		rows = append(rows, []string{r.FromID, string(r.FromType), r.ToID, string(r.ToType), r.Kind})
	}
	return rows
}

// coverageRows renders metric/value pairs; orphans are a list, not a
// metric, so they stay out of this table (they have their own section in
// the HTML report and their own table in the database).
func coverageRows(cov trace.Coverage) [][]string {
	return [][]string{
		{"metric", "value"},
		{"requirements_with_design", strconv.Itoa(cov.RequirementsWithDesign)},
		{"requirements_with_verification", strconv.Itoa(cov.RequirementsWithVerification)},
		{"requirements_with_validation", strconv.Itoa(cov.RequirementsWithValidation)},
		{"designs_with_verification", strconv.Itoa(cov.DesignsWithVerification)},
		{"risks_with_mitigation", strconv.Itoa(cov.RisksWithMitigation)},
		{"coverage_percentage", strconv.FormatFloat(cov.CoveragePercentage, 'f', 1, 64)},
	}
}

func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
