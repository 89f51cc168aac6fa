package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/schema"
)

type fakeProvider struct {
	replies []func(req llm.Request) (string, error)
	calls   int
}

func (f *fakeProvider) Name() string {
	return "fake"
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	if f.calls >= len(f.replies) {
		return "", errors.New("unexpected model call")
	}
	reply := f.replies[f.calls]
	f.calls++
	return reply(req)
}

func (f *fakeProvider) Stream(ctx context.Context, req llm.Request, handler func(chunk string)) (string, error) {
	full, err := f.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if handler != nil {
		handler(full)
	}
	return full, nil
}

func reply(text string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return text, nil }
}

func replyError(err error) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return "", err }
}

func testSnapshot() *schema.Snapshot {
	return &schema.Snapshot{Tables: []schema.Table{
		{Name: "users"},
		{Name: "orders"},
	}}
}

func TestParseIntentAlwaysReturnsEnumValue(t *testing.T) {
	inputs := []string{
		"structured_query",
		"Structured_Query",
		" visualization.",
		"the intent is analytical_report",
		"schema-exploration",
		"CHAT",
		"no idea",
		"",
		"请生成图表",
	}
	for _, input := range inputs {
		intent, _ := ParseIntent(input)
		if !intent.Valid() {
			t.Fatalf("ParseIntent(%q) = %q, not in enumeration", input, intent)
		}
	}
}

func TestParseIntentNormalizesSubstrings(t *testing.T) {
	tests := []struct {
		raw      string
		want     Intent
		resolved bool
	}{
		{"structured_query", IntentStructuredQuery, true},
		{"\"visualization\"", IntentVisualization, true},
		{"I would pick analytical_report here", IntentAnalyticalReport, true},
		{"Schema Exploration", IntentSchemaExploration, true},
		{"something unrelated", IntentChat, false},
	}
	for _, tt := range tests {
		got, resolved := ParseIntent(tt.raw)
		if got != tt.want || resolved != tt.resolved {
			t.Fatalf("ParseIntent(%q) = (%q, %v), want (%q, %v)", tt.raw, got, resolved, tt.want, tt.resolved)
		}
	}
}

func TestClassifyResolvesModelLabel(t *testing.T) {
	provider := &fakeProvider{replies: []func(llm.Request) (string, error){reply("visualization")}}
	router := NewRouter(provider, 0)

	intent, resolved, err := router.Classify(context.Background(), Question{Text: "画个图"}, testSnapshot())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intent != IntentVisualization || !resolved {
		t.Fatalf("Classify() = (%q, %v)", intent, resolved)
	}
}

func TestClassifyFallsBackToChatOnAmbiguousOutput(t *testing.T) {
	provider := &fakeProvider{replies: []func(llm.Request) (string, error){reply("I cannot decide")}}
	router := NewRouter(provider, 0)

	intent, resolved, err := router.Classify(context.Background(), Question{Text: "hello"}, testSnapshot())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intent != IntentChat {
		t.Fatalf("intent = %q, want chat", intent)
	}
	if resolved {
		t.Fatal("expected ambiguity signal")
	}
}

func TestClassifyWrapsProviderFailure(t *testing.T) {
	provider := &fakeProvider{replies: []func(llm.Request) (string, error){replyError(errors.New("status=500"))}}
	router := NewRouter(provider, 0)

	_, _, err := router.Classify(context.Background(), Question{Text: "hello"}, testSnapshot())
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("error = %v, want SynthesisError", err)
	}
}

func TestClassifyPromptEmbedsSchemaAndQuestion(t *testing.T) {
	var seen llm.Request
	provider := &fakeProvider{replies: []func(llm.Request) (string, error){
		func(req llm.Request) (string, error) {
			seen = req
			return "chat", nil
		},
	}}
	router := NewRouter(provider, 0)

	if _, _, err := router.Classify(context.Background(), Question{Text: "列出所有表"}, testSnapshot()); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(seen.Messages) != 1 {
		t.Fatalf("messages = %d", len(seen.Messages))
	}
	content := seen.Messages[0].Content
	for _, want := range []string{"users", "orders", "列出所有表"} {
		if !strings.Contains(content, want) {
			t.Fatalf("classify prompt missing %q:\n%s", want, content)
		}
	}
}
