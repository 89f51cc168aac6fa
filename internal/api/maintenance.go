package api

import (
	"net/http"
)

func handleRetentionRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Retention == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "RETENTION_UNAVAILABLE", "retention sweeper is not configured", false, nil)
		return
	}
	summary, err := deps.Retention.SweepOnce(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RETENTION_RUN_FAILED", err.Error(), true, map[string]any{"summary": summary})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "summary": summary})
}
