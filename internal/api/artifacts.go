package api

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/dbchat/dbchat/internal/artifacts"
)

func handleGetArtifact(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Artifacts == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ARTIFACTS_UNAVAILABLE", "artifact store is not configured", false, nil)
		return
	}
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "ARTIFACT_KEY_REQUIRED", "artifact key is required", false, nil)
		return
	}

	info, err := deps.Artifacts.Stat(r.Context(), key)
	if err != nil {
		if errors.Is(err, artifacts.ErrArtifactNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "ARTIFACT_NOT_FOUND", "artifact does not exist", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "ARTIFACT_KEY_INVALID", err.Error(), false, nil)
		return
	}

	reader, err := deps.Artifacts.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, artifacts.ErrArtifactNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "ARTIFACT_NOT_FOUND", "artifact does not exist", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "ARTIFACT_READ_FAILED", err.Error(), true, nil)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", contentTypeForKey(key))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func contentTypeForKey(key string) string {
	switch path.Ext(key) {
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
