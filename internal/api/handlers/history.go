package handlers

import (
	"net/http"

	"arc-go/internal/arc"
)

// History handles GET /history?filter=. Unknown filters return the last 10 entries.
func (h *APIHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListHistory(r.Context(), arc.HistoryFilter(r.URL.Query().Get("filter")))
	if err != nil {
		h.fail(w, r, "listing history failed", err)
		return
	}
	if entries == nil {
		entries = []*arc.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ClearHistory handles POST /clear-history.
func (h *APIHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ClearHistory(r.Context())
	if err != nil {
		h.fail(w, r, "clearing history failed", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
