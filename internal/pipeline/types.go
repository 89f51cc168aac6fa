package pipeline

import (
	"strings"
	"time"
)

// Turn is one completed exchange, most recent last in a history slice.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Question is the immutable input to one pipeline run. The pipeline reads
// it and never mutates it; history stays owned by the caller.
type Question struct {
	Text      string    `json:"text"`
	AskedAt   time.Time `json:"asked_at"`
	SessionID string    `json:"session_id,omitempty"`
	History   []Turn    `json:"history,omitempty"`
}

type Intent string

const (
	IntentSchemaExploration Intent = "schema_exploration"
	IntentStructuredQuery   Intent = "structured_query"
	IntentAnalyticalReport  Intent = "analytical_report"
	IntentVisualization     Intent = "visualization"
	IntentChat              Intent = "chat"
)

func Intents() []Intent {
	return []Intent{
		IntentSchemaExploration,
		IntentStructuredQuery,
		IntentAnalyticalReport,
		IntentVisualization,
		IntentChat,
	}
}

func (i Intent) Valid() bool {
	switch i {
	case IntentSchemaExploration, IntentStructuredQuery, IntentAnalyticalReport, IntentVisualization, IntentChat:
		return true
	default:
		return false
	}
}

// NeedsQuery reports whether the intent executes SQL against the database.
func (i Intent) NeedsQuery() bool {
	switch i {
	case IntentStructuredQuery, IntentAnalyticalReport, IntentVisualization:
		return true
	default:
		return false
	}
}

// ParseIntent maps raw model output onto the intent enumeration: exact
// match first, then a case-insensitive substring match against the label
// names. The second return is false when the fallback to chat was used.
func ParseIntent(raw string) (Intent, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, "\"'`.:")
	cleaned = strings.ReplaceAll(cleaned, "-", "_")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")

	if intent := Intent(cleaned); intent.Valid() {
		return intent, true
	}
	for _, intent := range Intents() {
		if strings.Contains(cleaned, string(intent)) {
			return intent, true
		}
	}
	return IntentChat, false
}

// QueryPlan is the synthesized artifact for one attempt. Attempt is the
// zero-based retry count that produced it.
type QueryPlan struct {
	Intent   Intent `json:"intent"`
	SQL      string `json:"sql,omitempty"`
	Attempt  int    `json:"attempt"`
	Provider string `json:"provider,omitempty"`
}

type FailureKind string

const (
	FailureConnection    FailureKind = "connection"
	FailureIntrospection FailureKind = "introspection"
	FailureSynthesis     FailureKind = "synthesis"
	FailureSyntax        FailureKind = "syntax"
	FailurePermission    FailureKind = "permission"
	FailureTimeout       FailureKind = "timeout"
)

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Repairable reports whether re-synthesizing with the failure message as
// context is likely to produce a working query.
func (f *Failure) Repairable() bool {
	return f != nil && f.Kind == FailureSyntax
}

// Outcome carries either result rows or a classified failure, never both.
// Executed distinguishes a passthrough (chat, schema exploration) from an
// executed query with zero rows.
type Outcome struct {
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	Executed bool     `json:"executed"`
	Failure  *Failure `json:"failure,omitempty"`
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

type ChartSpec struct {
	Type        string `json:"type"`
	X           string `json:"x"`
	Y           string `json:"y"`
	GroupBy     string `json:"group_by,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

const (
	ChartBar     = "bar"
	ChartLine    = "line"
	ChartScatter = "scatter"
	ChartPie     = "pie"
)

// Response is the terminal artifact of a request. Every request ends in
// one; failures surface here as plain-language explanations, never as
// raw faults to the caller.
type Response struct {
	Explanation string     `json:"explanation"`
	Intent      Intent     `json:"intent"`
	Plan        QueryPlan  `json:"plan"`
	Outcome     Outcome    `json:"outcome"`
	Chart       *ChartSpec `json:"chart,omitempty"`
	Report      string     `json:"report,omitempty"`
	Artifacts   []string   `json:"artifacts,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

type State string

const (
	StateSynthesizing State = "synthesizing"
	StateExecuting    State = "executing"
	StateSuccess      State = "success"
	StateRepairing    State = "repairing"
	StateExhausted    State = "exhausted"
)
