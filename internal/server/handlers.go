package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func (a *App) handleItems(w http.ResponseWriter, r *http.Request) {
	itemType := r.URL.Query().Get("type")
	limit := a.parseLimit(r, "items")
	items, err := a.db.Items(itemType, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, items)
}

func (a *App) handleItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing query parameter id", http.StatusBadRequest)
		return
	}
	item, err := a.db.Item(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, item)
}

func (a *App) handleRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := a.db.Relationships()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rels)
}

func (a *App) handleCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := a.db.Coverage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	items, err := a.db.Search(q, a.parseLimit(r, "search"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, items)
}

func (a *App) handleSubgraph(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing query parameter id", http.StatusBadRequest)
		return
	}
	sg, err := a.db.Subgraph(id, a.parseLimit(r, "subgraph"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, sg)
}

func (a *App) parseLimit(r *http.Request, endpoint string) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		a.log.Warn("invalid limit, using default",
			zap.String("endpoint", endpoint), zap.String("limit", limitStr))
		return 0
	}
	return limit
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
