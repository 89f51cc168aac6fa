package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/session"
)

type sessionTurnPayload struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Intent   pipeline.Intent `json:"intent"`
	SQL      string          `json:"sql,omitempty"`
	AskedAt  time.Time       `json:"asked_at"`
}

type sessionPayload struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Turns     []sessionTurnPayload `json:"turns"`
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_UNAVAILABLE", "session store is not configured", false, nil)
		return
	}
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_ID_REQUIRED", "session id is required", false, nil)
		return
	}

	stored, err := deps.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", err.Error(), true, nil)
		return
	}

	payload := sessionPayload{
		ID:        stored.ID,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Turns:     make([]sessionTurnPayload, 0, len(stored.Turns)),
	}
	for _, turn := range stored.Turns {
		payload.Turns = append(payload.Turns, sessionTurnPayload{
			Question: turn.Question,
			Answer:   turn.Answer,
			Intent:   turn.Intent,
			SQL:      turn.SQL,
			AskedAt:  turn.AskedAt,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}
