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

// SynthesisError marks a model-provider failure (network, auth, HTTP status).
// It is distinct from a syntactically invalid generated query, which the
// executor detects downstream.
type SynthesisError struct {
	Op  string
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Synthesizer turns a question plus schema context into an executable query
// via one model call, using the template for the chosen intent. A prior
// execution error is appended as a correction instruction on retries.
type Synthesizer struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewSynthesizer(provider llm.Provider, timeout time.Duration) *Synthesizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{provider: provider, timeout: timeout}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question Question, intent Intent, snapshot *schema.Snapshot, priorError string, attempt int) (QueryPlan, error) {
	plan := QueryPlan{Intent: intent, Attempt: attempt, Provider: s.provider.Name()}
	systemPrompt, ok := synthesisSystemPrompts[intent]
	if !ok {
		// Chat and schema exploration need no query text.
		return plan, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.provider.Complete(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: synthesisUserPrompt(question, snapshot.PromptSummary(), priorError)},
		},
		Temperature: 0,
	})
	observability.ObserveModelCall(s.provider.Name(), "synthesize", time.Since(start), err)
	if err != nil {
		return QueryPlan{}, &SynthesisError{Op: "synthesize query", Err: fmt.Errorf("model call: %w", err)}
	}

	sql := stripMarkdownSQL(raw)
	if strings.TrimSpace(sql) == "" {
		return QueryPlan{}, &SynthesisError{Op: "synthesize query", Err: fmt.Errorf("model returned empty SQL")}
	}
	plan.SQL = sql
	return plan, nil
}

// Models occasionally wrap the statement in a markdown fence despite the
// prompt rules.
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
