package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dbchat/dbchat/internal/schema"
)

type scriptedSynthesizer struct {
	plans      []func(priorError string, attempt int) (QueryPlan, error)
	calls      int
	lastErrors []string
}

func (s *scriptedSynthesizer) Synthesize(_ context.Context, _ Question, intent Intent, _ *schema.Snapshot, priorError string, attempt int) (QueryPlan, error) {
	s.lastErrors = append(s.lastErrors, priorError)
	var next func(string, int) (QueryPlan, error)
	if s.calls < len(s.plans) {
		next = s.plans[s.calls]
	} else {
		next = func(_ string, attempt int) (QueryPlan, error) {
			return QueryPlan{Intent: intent, SQL: "SELECT 1", Attempt: attempt}, nil
		}
	}
	s.calls++
	return next(priorError, attempt)
}

type scriptedExecutor struct {
	outcomes []Outcome
	calls    int
}

func (e *scriptedExecutor) Execute(_ context.Context, _ QueryPlan) Outcome {
	if e.calls >= len(e.outcomes) {
		return failureOutcome(FailureSyntax, "unexpected execution")
	}
	outcome := e.outcomes[e.calls]
	e.calls++
	return outcome
}

func planReply(sql string) func(string, int) (QueryPlan, error) {
	return func(_ string, attempt int) (QueryPlan, error) {
		return QueryPlan{Intent: IntentStructuredQuery, SQL: sql, Attempt: attempt}, nil
	}
}

func successOutcome(rows int) Outcome {
	outRows := make([][]any, rows)
	for i := range outRows {
		outRows[i] = []any{i}
	}
	return Outcome{Columns: []string{"id"}, Rows: outRows, Executed: true}
}

func TestControllerSucceedsFirstAttempt(t *testing.T) {
	synth := &scriptedSynthesizer{plans: []func(string, int) (QueryPlan, error){planReply("SELECT 1")}}
	exec := &scriptedExecutor{outcomes: []Outcome{successOutcome(1)}}
	controller := NewController(synth, exec, 3, nil)

	plan, outcome, state, err := controller.Run(context.Background(), Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state != StateSuccess {
		t.Fatalf("state = %q", state)
	}
	if plan.Attempt != 0 {
		t.Fatalf("attempt = %d", plan.Attempt)
	}
	if !outcome.OK() {
		t.Fatalf("outcome failure = %v", outcome.Failure)
	}
}

func TestControllerRepairsSyntaxFailure(t *testing.T) {
	// Attempt 0 produces a broken query, attempt 1 a valid one.
	synth := &scriptedSynthesizer{plans: []func(string, int) (QueryPlan, error){
		planReply("SELECT bad"),
		planReply("SELECT 1"),
	}}
	exec := &scriptedExecutor{outcomes: []Outcome{
		failureOutcome(FailureSyntax, `column "bad" does not exist`),
		successOutcome(1),
	}}
	controller := NewController(synth, exec, 3, nil)

	plan, outcome, state, err := controller.Run(context.Background(), Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state != StateSuccess {
		t.Fatalf("state = %q", state)
	}
	if plan.Attempt != 1 {
		t.Fatalf("attempt = %d, want 1", plan.Attempt)
	}
	if !outcome.OK() {
		t.Fatalf("outcome failure = %v", outcome.Failure)
	}
	if synth.lastErrors[1] != `column "bad" does not exist` {
		t.Fatalf("priorError = %q", synth.lastErrors[1])
	}
}

func TestControllerExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	const maxAttempts = 3
	synth := &scriptedSynthesizer{}
	exec := &scriptedExecutor{outcomes: []Outcome{
		failureOutcome(FailureSyntax, "bad"),
		failureOutcome(FailureSyntax, "bad"),
		failureOutcome(FailureSyntax, "bad"),
	}}
	controller := NewController(synth, exec, maxAttempts, nil)

	plan, outcome, state, err := controller.Run(context.Background(), Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state != StateExhausted {
		t.Fatalf("state = %q", state)
	}
	if synth.calls != maxAttempts {
		t.Fatalf("synthesis calls = %d, want %d", synth.calls, maxAttempts)
	}
	if exec.calls != maxAttempts {
		t.Fatalf("executions = %d, want %d", exec.calls, maxAttempts)
	}
	if plan.Attempt != maxAttempts-1 {
		t.Fatalf("final attempt = %d, want %d", plan.Attempt, maxAttempts-1)
	}
	if outcome.OK() {
		t.Fatal("expected failing outcome")
	}
}

func TestControllerStopsOnNonRepairableFailure(t *testing.T) {
	synth := &scriptedSynthesizer{}
	exec := &scriptedExecutor{outcomes: []Outcome{
		failureOutcome(FailurePermission, "permission denied for table users"),
	}}
	controller := NewController(synth, exec, 3, nil)

	_, outcome, state, err := controller.Run(context.Background(), Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state != StateExhausted {
		t.Fatalf("state = %q", state)
	}
	if synth.calls != 1 {
		t.Fatalf("synthesis calls = %d, want 1 (no repair of permission failures)", synth.calls)
	}
	if outcome.Failure.Kind != FailurePermission {
		t.Fatalf("kind = %q", outcome.Failure.Kind)
	}
}

func TestControllerAbortsOnSynthesisError(t *testing.T) {
	synthErr := &SynthesisError{Op: "synthesize query", Err: errors.New("status=401")}
	synth := &scriptedSynthesizer{plans: []func(string, int) (QueryPlan, error){
		func(string, int) (QueryPlan, error) { return QueryPlan{}, synthErr },
	}}
	exec := &scriptedExecutor{}
	controller := NewController(synth, exec, 3, nil)

	_, _, _, err := controller.Run(context.Background(), Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if !errors.Is(err, synthErr) {
		t.Fatalf("error = %v, want synthesis error", err)
	}
	if exec.calls != 0 {
		t.Fatal("execution must not run after a synthesis failure")
	}
	if synth.calls != 1 {
		t.Fatalf("synthesis calls = %d, want 1 (no retry of provider failures)", synth.calls)
	}
}

func TestControllerHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	controller := NewController(&scriptedSynthesizer{}, &scriptedExecutor{}, 3, nil)
	_, _, _, err := controller.Run(ctx, Question{Text: "q"}, IntentStructuredQuery, testSnapshot())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
}
