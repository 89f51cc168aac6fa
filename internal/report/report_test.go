package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/pipeline"
)

type fakeProvider struct {
	replies  []string
	requests []llm.Request
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req llm.Request, handler func(string)) (string, error) {
	reply, err := f.Complete(ctx, req)
	if err == nil {
		handler(reply)
	}
	return reply, err
}

func successOutcome() pipeline.Outcome {
	return pipeline.Outcome{
		Columns:  []string{"category", "amount"},
		Rows:     [][]any{{"books", int64(120)}, {"games", int64(340)}, {"tools", int64(90)}},
		Executed: true,
	}
}

func TestGenerateBuildsMarkdownSections(t *testing.T) {
	provider := &fakeProvider{replies: []string{"Sales concentrate in games.", "Games lead; consider restocking."}}
	generator := NewGenerator(provider, time.Second)
	generator.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	question := pipeline.Question{Text: "How do sales break down by category?"}
	plan := pipeline.QueryPlan{Intent: pipeline.IntentAnalyticalReport, SQL: "SELECT category, amount FROM sales"}

	report, err := generator.Generate(context.Background(), question, plan, successOutcome())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		"# Analytical Report",
		"2026-03-14 12:00:00 UTC",
		"## Summary",
		"Sales concentrate in games.",
		"## Data Overview",
		"| amount | 3 | 0 | 3 |",
		"## Suggested Visualization",
		"bar chart",
		"## Conclusions",
		"Games lead; consider restocking.",
		"SELECT category, amount FROM sales",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q\n%s", want, report)
		}
	}
	if len(provider.requests) != 2 {
		t.Fatalf("model calls = %d, want 2", len(provider.requests))
	}
	if !strings.Contains(provider.requests[0].Messages[0].Content, "mean=") {
		t.Fatalf("summary prompt missing statistics:\n%s", provider.requests[0].Messages[0].Content)
	}
}

func TestGenerateRejectsFailedOutcome(t *testing.T) {
	generator := NewGenerator(&fakeProvider{}, time.Second)
	outcome := pipeline.Outcome{Failure: &pipeline.Failure{Kind: pipeline.FailureSyntax, Message: "boom"}}
	if _, err := generator.Generate(context.Background(), pipeline.Question{Text: "q"}, pipeline.QueryPlan{}, outcome); err == nil {
		t.Fatal("expected error for failed outcome")
	}
}

func TestGeneratePropagatesProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model down")}
	generator := NewGenerator(provider, time.Second)
	if _, err := generator.Generate(context.Background(), pipeline.Question{Text: "q"}, pipeline.QueryPlan{}, successOutcome()); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
