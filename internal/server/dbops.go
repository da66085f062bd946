package server

import (
	"database/sql"
	"fmt"
	"strings"
)

func scanItem(rows *sql.Rows, it *Item) error {
	return rows.Scan(&it.ID, &it.Type, &it.Title, &it.Description, &it.Labels,
		&it.Status, &it.CreatedAt, &it.UpdatedAt, &it.Author, &it.Assignee, &it.URL)
}

// Items lists items, optionally filtered by type.
func (db *DB) Items(itemType string, limit int) ([]Item, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var rows *sql.Rows
	var err error
	if itemType == "" {
		rows, err = db.Query(queryItems, limit)
	} else {
		rows, err = db.Query(queryItemsByType, itemType, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Item fetches a single item by ID. Returns sql.ErrNoRows when absent.
func (db *DB) Item(id string) (*Item, error) {
	var it Item
	err := db.QueryRow(queryItemByID, id).Scan(&it.ID, &it.Type, &it.Title, &it.Description,
		&it.Labels, &it.Status, &it.CreatedAt, &it.UpdatedAt, &it.Author, &it.Assignee, &it.URL)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Relationships returns every reference edge.
func (db *DB) Relationships() ([]Relationship, error) {
	rows, err := db.Query(queryRelationships)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Relationship{}
	for rows.Next() {
		var rel Relationship
		if err := rows.Scan(&rel.FromID, &rel.FromType, &rel.ToID, &rel.ToType, &rel.Kind); err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// Search matches items by ID, title, or description substring.
func (db *DB) Search(pattern string, limit int) ([]Item, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = 50
	}
	like := "%" + pattern + "%"
	rows, err := db.Query(querySearch, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Subgraph returns the item plus its direct neighborhood: items that link to
// it, items it links to, and the edges between everything in the set.
// Returns sql.ErrNoRows when the central item does not exist.
func (db *DB) Subgraph(id string, limit int) (*Subgraph, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	center, err := db.Item(id)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(queryNeighborhood, id, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{*center}
	idSet := map[string]struct{}{id: {}}
	for rows.Next() {
		var it Item
		var dir string
		if err := rows.Scan(&dir, &it.ID, &it.Type, &it.Title, &it.Description, &it.Labels,
			&it.Status, &it.CreatedAt, &it.UpdatedAt, &it.Author, &it.Assignee, &it.URL); err != nil {
			return nil, err
		}
		it.Direction = dir
		if _, seen := idSet[it.ID]; !seen {
			idSet[it.ID] = struct{}{}
			items = append(items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(idSet))
	for nid := range idSet {
		ids = append(ids, nid)
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := fmt.Sprintf("SELECT from_id, from_type, to_id, to_type, kind FROM relationships WHERE from_id IN (%s) AND to_id IN (%s) LIMIT 500", ph, ph)
	args := make([]interface{}, 0, len(ids)*2)
	for _, nid := range ids {
		args = append(args, nid)
	}
	for _, nid := range ids {
		args = append(args, nid)
	}
	rows, err = db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	edges := []Relationship{}
	for rows.Next() {
		var rel Relationship
		if err := rows.Scan(&rel.FromID, &rel.FromType, &rel.ToID, &rel.ToType, &rel.Kind); err != nil {
			return nil, err
		}
		edges = append(edges, rel)
	}
	return &Subgraph{Items: items, Edges: edges}, rows.Err()
}

// Coverage assembles the coverage report: metric table, orphan list,
// per-type counts, and generation metadata.
func (db *DB) Coverage() (*CoverageReport, error) {
	report := &CoverageReport{
		Metrics:  map[string]float64{},
		Orphans:  []string{},
		ByType:   map[string]int{},
		Metadata: map[string]string{},
	}

	rows, err := db.Query(queryCoverageMetrics)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var metric string
		var value float64
		if err := rows.Scan(&metric, &value); err != nil {
			return nil, err
		}
		report.Metrics[metric] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(queryOrphans)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		report.Orphans = append(report.Orphans, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(queryTypeCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		report.ByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.Query(queryMeta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		report.Metadata[k] = v
	}
	return report, rows.Err()
}
