package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite DB with the trace schema and a
// small three-item matrix: a covered requirement, its design PR, and an
// orphaned requirement.
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
	CREATE TABLE items (id TEXT PRIMARY KEY, type TEXT, title TEXT, description TEXT, labels TEXT, status TEXT, created_at TEXT, updated_at TEXT, author TEXT, assignee TEXT, url TEXT);
	CREATE TABLE relationships (from_id TEXT, from_type TEXT, to_id TEXT, to_type TEXT, kind TEXT);
	CREATE TABLE coverage (metric TEXT PRIMARY KEY, value REAL);
	CREATE TABLE orphans (item_id TEXT PRIMARY KEY);
	CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT);
	CREATE TABLE stats_type_counts (type TEXT, count INTEGER);
	`)
	if err != nil {
		t.Fatalf("create schema: %v", err)
	}

	_, _ = db.Exec(`INSERT INTO items VALUES ('#1', 'requirement', 'Login requirement', 'User shall log in', 'requirement', 'open', '2026-01-01T00:00:00Z', '2026-01-02T00:00:00Z', 'alice', NULL, 'https://github.com/acme/device/issues/1');`)
	_, _ = db.Exec(`INSERT INTO items VALUES ('#2', 'requirement', 'Orphan requirement', NULL, 'requirement', 'open', NULL, NULL, 'alice', NULL, NULL);`)
	_, _ = db.Exec(`INSERT INTO items VALUES ('PR#3', 'design', 'Login implementation', 'closes #1', NULL, 'open', NULL, NULL, 'bob', NULL, NULL);`)
	_, _ = db.Exec(`INSERT INTO relationships VALUES ('PR#3', 'design', '#1', 'requirement', 'references');`)
	_, _ = db.Exec(`INSERT INTO coverage VALUES ('coverage_percentage', 50.0);`)
	_, _ = db.Exec(`INSERT INTO coverage VALUES ('requirements_with_design', 1);`)
	_, _ = db.Exec(`INSERT INTO orphans VALUES ('#2');`)
	_, _ = db.Exec(`INSERT INTO meta VALUES ('repository', 'acme/device');`)
	_, _ = db.Exec(`INSERT INTO stats_type_counts VALUES ('requirement', 2);`)
	_, _ = db.Exec(`INSERT INTO stats_type_counts VALUES ('design', 1);`)

	return db
}

func newTestApp(t *testing.T) *App {
	return NewApp(setupTestDB(t), "", zaptest.NewLogger(t))
}

func get(t *testing.T, app *App, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPI_Items(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/items")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/items: want 200, got %d", rec.Code)
	}
	var items []Item
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("want 3 items, got %d", len(items))
	}
}

func TestAPI_Items_TypeFilter(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/items?type=design")
	var items []Item
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 1 || items[0].ID != "PR#3" {
		t.Errorf("want only PR#3, got %+v", items)
	}
}

func TestAPI_Item(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/item?id=%231")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/item?id=#1: want 200, got %d", rec.Code)
	}
	var item Item
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Title != "Login requirement" || item.Type != "requirement" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestAPI_Item_NotFound(t *testing.T) {
	app := newTestApp(t)
	if rec := get(t, app, "/api/item?id=%2399"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/item?id=#99: want 404, got %d", rec.Code)
	}
	if rec := get(t, app, "/api/item"); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/item without id: want 400, got %d", rec.Code)
	}
}

func TestAPI_Relationships(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/relationships")
	var rels []Relationship
	if err := json.NewDecoder(rec.Body).Decode(&rels); err != nil {
		t.Fatalf("decode relationships: %v", err)
	}
	if len(rels) != 1 || rels[0].FromID != "PR#3" || rels[0].ToID != "#1" {
		t.Errorf("unexpected relationships: %+v", rels)
	}
	if rels[0].Kind != "references" {
		t.Errorf("want kind references, got %q", rels[0].Kind)
	}
}

func TestAPI_Coverage(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/coverage")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/coverage: want 200, got %d", rec.Code)
	}
	var report CoverageReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode coverage: %v", err)
	}
	if report.Metrics["coverage_percentage"] != 50.0 {
		t.Errorf("want 50.0 coverage, got %v", report.Metrics["coverage_percentage"])
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != "#2" {
		t.Errorf("unexpected orphans: %v", report.Orphans)
	}
	if report.ByType["requirement"] != 2 {
		t.Errorf("unexpected type counts: %v", report.ByType)
	}
	if report.Metadata["repository"] != "acme/device" {
		t.Errorf("unexpected metadata: %v", report.Metadata)
	}
}

func TestAPI_Search(t *testing.T) {
	app := newTestApp(t)
	if rec := get(t, app, "/api/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/search without q: want 400, got %d", rec.Code)
	}

	rec := get(t, app, "/api/search?q=Login")
	var items []Item
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("want 2 matches for Login, got %d: %+v", len(items), items)
	}
}

func TestAPI_Subgraph(t *testing.T) {
	app := newTestApp(t)
	rec := get(t, app, "/api/subgraph?id=%231")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/subgraph?id=#1: want 200, got %d", rec.Code)
	}
	var sg Subgraph
	if err := json.NewDecoder(rec.Body).Decode(&sg); err != nil {
		t.Fatalf("decode subgraph: %v", err)
	}
	if len(sg.Items) != 2 {
		t.Fatalf("want center + 1 neighbor, got %d items", len(sg.Items))
	}
	if sg.Items[0].ID != "#1" {
		t.Errorf("center must come first, got %s", sg.Items[0].ID)
	}
	if sg.Items[1].Direction != "incoming" {
		t.Errorf("PR#3 links to #1, want incoming, got %q", sg.Items[1].Direction)
	}
	if len(sg.Edges) != 1 {
		t.Errorf("want 1 edge, got %d", len(sg.Edges))
	}
}

func TestAPI_Subgraph_NotFound(t *testing.T) {
	app := newTestApp(t)
	if rec := get(t, app, "/api/subgraph?id=%2399"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/subgraph?id=#99: want 404, got %d", rec.Code)
	}
}

func TestAPI_CORS(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS preflight: want 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("want wildcard CORS origin, got %q", got)
	}
}
