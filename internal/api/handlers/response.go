package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondList writes items with their count. A nil slice is written as [].
func respondList[T any](w http.ResponseWriter, runID string, items []T) {
	if items == nil {
		items = []T{}
	}
	respondData(w, map[string]interface{}{
		"runId": runID,
		"count": len(items),
		"items": items,
	})
}

// filter keeps the items matching keep, in order
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// parseLimit reads ?limit=, falling back to def. Non-positive values are rejected.
func parseLimit(r *http.Request, def int) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
