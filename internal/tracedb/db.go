// Package tracedb persists a traceability matrix to a SQLite database so
// dashboards and the report server can query it without reparsing GitHub.
package tracedb

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"qmskit/internal/trace"
)

// Write writes the matrix to a SQLite database file, replacing any existing
// file at path. Tables are created without indexes, rows bulk-inserted in a
// single transaction, and indexes plus derived views added afterwards.
func Write(path string, m *trace.Matrix, validate bool, log *zap.Logger) error {
	log.Info("writing matrix database", zap.String("path", path))

	_ = os.Remove(path) // ignore if doesn't exist

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for _, pragma := range []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA journal_mode = WAL",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return err
		}
	}

	if err := createTables(conn); err != nil {
		return err
	}

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := insertItems(conn, m.Items); err != nil {
		endFn(&err)
		return err
	}
	if err := insertRelationships(conn, m.Relationships); err != nil {
		endFn(&err)
		return err
	}
	if err := insertCoverage(conn, m.Coverage); err != nil {
		endFn(&err)
		return err
	}
	if err := insertMeta(conn, m); err != nil {
		endFn(&err)
		return err
	}

	endFn(&err)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := createIndexes(conn); err != nil {
		return err
	}
	if err := createViews(conn); err != nil {
		return err
	}
	if err := createFindings(conn, m); err != nil {
		return err
	}

	if validate {
		if err := runValidation(conn, log); err != nil {
			return err
		}
	}

	log.Info("matrix database written",
		zap.Int("items", len(m.Items)),
		zap.Int("relationships", len(m.Relationships)))
	return nil
}

func createTables(conn *sqlite.Conn) error {
	ddl := `
CREATE TABLE items (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    labels TEXT,
    status TEXT,
    created_at TEXT,
    updated_at TEXT,
    author TEXT,
    assignee TEXT,
    url TEXT
);

CREATE TABLE relationships (
    from_id TEXT NOT NULL,
    from_type TEXT NOT NULL,
    to_id TEXT NOT NULL,
    to_type TEXT NOT NULL,
    kind TEXT NOT NULL
);

CREATE TABLE coverage (
    metric TEXT PRIMARY KEY,
    value REAL NOT NULL
);

CREATE TABLE orphans (
    item_id TEXT PRIMARY KEY
);

CREATE TABLE meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
	return sqlitex.ExecuteScript(conn, ddl, nil)
}

func createIndexes(conn *sqlite.Conn) error {
	indexes := `
CREATE INDEX idx_items_type ON items(type);
CREATE INDEX idx_rel_from ON relationships(from_id, kind);
CREATE INDEX idx_rel_to ON relationships(to_id, kind);
`
	return sqlitex.ExecuteScript(conn, indexes, nil)
}

func createViews(conn *sqlite.Conn) error {
	ddl := `
-- Requirement trace: every item linking back to a requirement
CREATE VIEW v_requirement_trace AS
  SELECT
    req.id AS requirement_id,
    req.title AS requirement_title,
    r.from_id AS linked_id,
    r.from_type AS linked_type,
    li.title AS linked_title,
    li.status AS linked_status
  FROM items req
  JOIN relationships r ON r.to_id = req.id
  JOIN items li ON li.id = r.from_id
  WHERE req.type = 'requirement';

-- Pre-computed per-type counts for dashboards
CREATE TABLE stats_type_counts AS
  SELECT type, COUNT(*) AS count FROM items GROUP BY type ORDER BY count DESC;
`
	return sqlitex.ExecuteScript(conn, ddl, nil)
}

// createFindings materializes reviewer-facing gaps: orphaned requirements
// and references pointing at IDs absent from the item set.
func createFindings(conn *sqlite.Conn, m *trace.Matrix) error {
	ddl := `
CREATE TABLE findings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category TEXT NOT NULL,
    severity TEXT NOT NULL,
    item_id TEXT,
    message TEXT NOT NULL
);

INSERT INTO findings (category, severity, item_id, message)
  SELECT 'orphaned_requirement', 'warning', o.item_id,
    o.item_id || ' has no design, verification, or validation link'
  FROM orphans o;
`
	if err := sqlitex.ExecuteScript(conn, ddl, nil); err != nil {
		return err
	}

	g := trace.NewGraph()
	for _, it := range m.Items {
		g.AddItem(it)
	}
	stmt, err := conn.Prepare(`INSERT INTO findings (category, severity, item_id, message) VALUES ('unknown_reference', 'info', ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare finding insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()
	for _, pair := range g.UnknownReferences() {
		stmt.BindText(1, pair[0])
		stmt.BindText(2, fmt.Sprintf("%s references %s, which is not a known item", pair[0], pair[1]))
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert finding for %s: %w", pair[0], err)
		}
		_ = stmt.Reset()
	}
	return nil
}

func insertItems(conn *sqlite.Conn, items []trace.Item) error {
	stmt, err := conn.Prepare(`INSERT OR IGNORE INTO items (id, type, title, description, labels, status, created_at, updated_at, author, assignee, url) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	for _, it := range items {
		stmt.BindText(1, it.ID)
		stmt.BindText(2, string(it.Type))
		stmt.BindText(3, it.Title)
		bindTextOrNull(stmt, 4, it.Description)
		bindTextOrNull(stmt, 5, strings.Join(it.Labels, ","))
		bindTextOrNull(stmt, 6, it.Status)
		bindTextOrNull(stmt, 7, it.CreatedAt)
		bindTextOrNull(stmt, 8, it.UpdatedAt)
		bindTextOrNull(stmt, 9, it.Author)
		bindTextOrNull(stmt, 10, it.Assignee)
		bindTextOrNull(stmt, 11, it.URL)

		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
		_ = stmt.Reset()
	}
	return nil
}

func insertRelationships(conn *sqlite.Conn, rels []trace.Relationship) error {
	stmt, err := conn.Prepare(`INSERT INTO relationships (from_id, from_type, to_id, to_type, kind) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare relationship insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	for _, r := range rels {
		stmt.BindText(1, r.FromID)
		stmt.BindText(2, string(r.FromType))
		stmt.BindText(3, r.ToID)
		stmt.BindText(4, string(r.ToType))
		stmt.BindText(5, r.Kind)

		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert relationship %s→%s: %w", r.FromID, r.ToID, err)
		}
		_ = stmt.Reset()
	}
	return nil
}

func insertCoverage(conn *sqlite.Conn, cov trace.Coverage) error {
	stmt, err := conn.Prepare(`INSERT INTO coverage (metric, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare coverage insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	metrics := []struct {
		name  string
		value float64
	}{
		{"requirements_with_design", float64(cov.RequirementsWithDesign)},
		{"requirements_with_verification", float64(cov.RequirementsWithVerification)},
		{"requirements_with_validation", float64(cov.RequirementsWithValidation)},
		{"designs_with_verification", float64(cov.DesignsWithVerification)},
		{"risks_with_mitigation", float64(cov.RisksWithMitigation)},
		{"coverage_percentage", cov.CoveragePercentage},
	}
	for _, m := range metrics {
		stmt.BindText(1, m.name)
		stmt.BindFloat(2, m.value)
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert coverage metric %s: %w", m.name, err)
		}
		_ = stmt.Reset()
	}

	orphan, err := conn.Prepare(`INSERT OR IGNORE INTO orphans (item_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare orphan insert: %w", err)
	}
	defer func() { _ = orphan.Finalize() }()
	for _, id := range cov.OrphanedItems {
		orphan.BindText(1, id)
		if _, err := orphan.Step(); err != nil {
			return fmt.Errorf("insert orphan %s: %w", id, err)
		}
		_ = orphan.Reset()
	}
	return nil
}

func insertMeta(conn *sqlite.Conn, m *trace.Matrix) error {
	stmt, err := conn.Prepare(`INSERT INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare meta insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	pairs := [][2]string{
		{"generator", "qmskit"},
		{"generated_date", m.Metadata.GeneratedAt},
		{"run_id", m.Metadata.RunID},
		{"repository", m.Metadata.Repository},
		{"total_items", fmt.Sprintf("%d", m.Metadata.TotalItems)},
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		stmt.BindText(1, p[0])
		stmt.BindText(2, p[1])
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert meta %s: %w", p[0], err)
		}
		_ = stmt.Reset()
	}
	return nil
}

// runValidation runs post-write sanity queries and logs the results.
func runValidation(conn *sqlite.Conn, log *zap.Logger) error {
	var danglingCount int64
	if err := sqlitex.ExecuteTransient(conn,
		`SELECT COUNT(*) FROM relationships WHERE from_id NOT IN (SELECT id FROM items) OR to_id NOT IN (SELECT id FROM items)`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				danglingCount = stmt.ColumnInt64(0)
				return nil
			},
		}); err != nil {
		return err
	}
	if danglingCount > 0 {
		log.Warn("dangling relationships reference unknown items", zap.Int64("count", danglingCount))
	} else {
		log.Info("validation: zero dangling relationships")
	}

	if err := sqlitex.ExecuteTransient(conn,
		`SELECT type, count FROM stats_type_counts`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				log.Info("validation: item count",
					zap.String("type", stmt.ColumnText(0)),
					zap.Int64("count", stmt.ColumnInt64(1)))
				return nil
			},
		}); err != nil {
		return err
	}
	return nil
}

func bindTextOrNull(stmt *sqlite.Stmt, param int, val string) {
	if val == "" {
		stmt.BindNull(param)
	} else {
		stmt.BindText(param, val)
	}
}
