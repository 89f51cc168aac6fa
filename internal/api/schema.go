package api

import (
	"net/http"
)

func handleGetSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "schema introspection is not configured", false, nil)
		return
	}
	snapshot, err := deps.Schema.Snapshot(r.Context(), false)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "SCHEMA_INTROSPECTION_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func handleRefreshSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "schema introspection is not configured", false, nil)
		return
	}
	snapshot, err := deps.Schema.Snapshot(r.Context(), true)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "SCHEMA_REFRESH_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
