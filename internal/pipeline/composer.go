package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/schema"
)

// Composer turns a plan and its outcome into the final Response. Successful
// outcomes are explained with one model call; exhausted outcomes get a
// deterministic plain-language explanation so a failing request never
// triggers further fallible calls.
type Composer struct {
	provider   llm.Provider
	timeout    time.Duration
	previewCap int
}

func NewComposer(provider llm.Provider, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Composer{provider: provider, timeout: timeout, previewCap: 50}
}

func (c *Composer) Compose(ctx context.Context, question Question, plan QueryPlan, outcome Outcome, snapshot *schema.Snapshot) (Response, error) {
	response := Response{
		Intent:  plan.Intent,
		Plan:    plan,
		Outcome: outcome,
	}

	if !outcome.OK() {
		response.Explanation = FailureExplanation(outcome.Failure, plan.Attempt+1)
		return response, nil
	}

	explanation, err := c.explain(ctx, question, plan, outcome, snapshot)
	if err != nil {
		return response, err
	}
	response.Explanation = explanation

	if plan.Intent == IntentVisualization {
		if spec, ok := DeriveChart(question, outcome); ok {
			response.Chart = spec
		}
	}
	return response, nil
}

func (c *Composer) explain(ctx context.Context, question Question, plan QueryPlan, outcome Outcome, snapshot *schema.Snapshot) (string, error) {
	var req llm.Request
	switch plan.Intent {
	case IntentSchemaExploration:
		req = llm.Request{
			System:   composeSchemaSystemPrompt,
			Messages: []llm.Message{{Role: "user", Content: composeSchemaUserPrompt(question, snapshot.PromptSummary())}},
		}
	case IntentChat:
		req = llm.Request{
			System:   composeChatSystemPrompt,
			Messages: []llm.Message{{Role: "user", Content: composeChatUserPrompt(question, snapshot.PromptSummary())}},
		}
	default:
		req = llm.Request{
			System: composeResultSystemPrompt,
			Messages: []llm.Message{{Role: "user", Content: composeResultUserPrompt(
				question, plan, RenderRows(outcome.Columns, outcome.Rows, c.previewCap), len(outcome.Rows),
			)}},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	explanation, err := c.provider.Complete(ctx, req)
	observability.ObserveModelCall(c.provider.Name(), "compose", time.Since(start), err)
	if err != nil {
		return "", &SynthesisError{Op: "compose explanation", Err: fmt.Errorf("model call: %w", err)}
	}
	return strings.TrimSpace(explanation), nil
}

// FailureExplanation renders a failure in plain terms. No model call is
// involved, so the exhausted path cannot compound one failure with another.
func FailureExplanation(failure *Failure, attempts int) string {
	if failure == nil {
		return "The request could not be completed."
	}
	switch failure.Kind {
	case FailureSyntax:
		return fmt.Sprintf("The generated query was still invalid after %d attempt(s). Last database error: %s", attempts, failure.Message)
	case FailurePermission:
		return "The requested query could not be completed due to a permission restriction. The connected database role is not allowed to read this data."
	case FailureTimeout:
		return "The query took too long and was cancelled. Try narrowing the question, for example by filtering to a smaller date range."
	case FailureConnection:
		return "The database could not be reached. Check that it is running and that the connection settings are correct."
	case FailureIntrospection:
		return "The database metadata could not be read, so no query could be generated against its schema."
	case FailureSynthesis:
		return fmt.Sprintf("The language model provider failed, so no query could be generated: %s", failure.Message)
	default:
		return fmt.Sprintf("The request failed: %s", failure.Message)
	}
}

// RenderRows renders a bounded plain-text preview of a result for model
// prompts and reports.
func RenderRows(columns []string, rows [][]any, limit int) string {
	if len(rows) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))
	b.WriteString("\n")
	for i, row := range rows {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "... (%d more row(s))\n", len(rows)-limit)
			break
		}
		parts := make([]string, len(row))
		for j, value := range row {
			if value == nil {
				parts[j] = "NULL"
				continue
			}
			parts[j] = fmt.Sprintf("%v", value)
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
