package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/schema"
)

// Router classifies a question into one of the handling modes with a single
// model call. Raw model output is normalized through ParseIntent; anything
// that still does not resolve falls back to chat with an ambiguity warning.
type Router struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewRouter(provider llm.Provider, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Router{provider: provider, timeout: timeout}
}

// Classify returns the intent and whether the model output resolved cleanly.
// A false second return means the chat fallback was used.
func (r *Router) Classify(ctx context.Context, question Question, snapshot *schema.Snapshot) (Intent, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.provider.Complete(ctx, llm.Request{
		System: classifySystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: classifyUserPrompt(question, snapshot.PromptSummary())},
		},
		Temperature: 0,
	})
	observability.ObserveModelCall(r.provider.Name(), "classify", time.Since(start), err)
	if err != nil {
		return IntentChat, false, &SynthesisError{Op: "classify intent", Err: fmt.Errorf("model call: %w", err)}
	}

	intent, resolved := ParseIntent(raw)
	return intent, resolved, nil
}
