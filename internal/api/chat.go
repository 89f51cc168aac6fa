package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/session"
)

type chatRequest struct {
	Question  string          `json:"question"`
	SessionID string          `json:"session_id,omitempty"`
	History   []pipeline.Turn `json:"history,omitempty"`
}

type chatResponse struct {
	Explanation string              `json:"explanation"`
	Intent      pipeline.Intent     `json:"intent"`
	SQL         string              `json:"sql,omitempty"`
	Attempt     int                 `json:"attempt"`
	Columns     []string            `json:"columns,omitempty"`
	Rows        [][]any             `json:"rows,omitempty"`
	Executed    bool                `json:"executed"`
	Failure     *pipeline.Failure   `json:"failure,omitempty"`
	Chart       *pipeline.ChartSpec `json:"chart,omitempty"`
	Report      string              `json:"report,omitempty"`
	Artifacts   []string            `json:"artifacts,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	TraceID     string              `json:"trace_id,omitempty"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", "chat pipeline is not configured", false, nil)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", false, nil)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	question := pipeline.Question{
		Text:      req.Question,
		AskedAt:   time.Now(),
		SessionID: strings.TrimSpace(req.SessionID),
		History:   req.History,
	}
	if question.SessionID != "" && len(question.History) == 0 && deps.Sessions != nil {
		history, err := deps.Sessions.History(r.Context(), question.SessionID, deps.HistoryLimit)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.WarnContext(r.Context(), "session history lookup failed", slog.Any("error", err))
			}
		} else {
			question.History = history
		}
	}

	response, err := deps.Chat.Handle(r.Context(), question)
	if err != nil {
		if r.Context().Err() != nil {
			writeError(r.Context(), w, http.StatusGatewayTimeout, "REQUEST_CANCELLED", "request was cancelled", true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_QUESTION", err.Error(), false, nil)
		return
	}

	if question.SessionID != "" && deps.Sessions != nil {
		turn := session.TurnRecord{
			Question: question.Text,
			Answer:   response.Explanation,
			Intent:   response.Intent,
			SQL:      response.Plan.SQL,
			AskedAt:  question.AskedAt,
		}
		if err := deps.Sessions.AppendTurn(r.Context(), question.SessionID, turn); err != nil && deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "session append failed", slog.Any("error", err))
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Explanation: response.Explanation,
		Intent:      response.Intent,
		SQL:         response.Plan.SQL,
		Attempt:     response.Plan.Attempt,
		Columns:     response.Outcome.Columns,
		Rows:        response.Outcome.Rows,
		Executed:    response.Outcome.Executed,
		Failure:     response.Outcome.Failure,
		Chart:       response.Chart,
		Report:      response.Report,
		Artifacts:   response.Artifacts,
		Warnings:    response.Warnings,
		SessionID:   question.SessionID,
		TraceID:     observability.TraceIDFromContext(r.Context()),
	})
}
