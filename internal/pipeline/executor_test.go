package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type fakeRunner struct {
	results []func(sqlText string) (sqldb.Result, error)
	queries []string
}

func (f *fakeRunner) Query(_ context.Context, sqlText string, _ int, _ time.Duration) (sqldb.Result, error) {
	f.queries = append(f.queries, sqlText)
	if len(f.results) == 0 {
		return sqldb.Result{}, errors.New("unexpected query")
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next(sqlText)
}

func resultRows(columns []string, rows [][]any) func(string) (sqldb.Result, error) {
	return func(string) (sqldb.Result, error) {
		return sqldb.Result{Columns: columns, Rows: rows}, nil
	}
}

func resultError(code sqldb.Code, message string) func(string) (sqldb.Result, error) {
	return func(string) (sqldb.Result, error) {
		return sqldb.Result{}, &sqldb.Error{Code: code, Message: message}
	}
}

func newTestExecutor(db Runner) *Executor {
	e := NewExecutor(db, ExecutorConfig{RowLimit: 100, StatementTimeout: time.Second, ConnectRetryDelay: time.Millisecond})
	e.sleep = func(context.Context, time.Duration) {}
	return e
}

func TestExecutePassthroughForNonQueryIntents(t *testing.T) {
	runner := &fakeRunner{}
	executor := newTestExecutor(runner)

	for _, intent := range []Intent{IntentChat, IntentSchemaExploration} {
		outcome := executor.Execute(context.Background(), QueryPlan{Intent: intent})
		if !outcome.OK() {
			t.Fatalf("intent %q: outcome failure = %v", intent, outcome.Failure)
		}
		if outcome.Executed {
			t.Fatalf("intent %q: expected passthrough", intent)
		}
	}
	if len(runner.queries) != 0 {
		t.Fatalf("queries = %d, want none", len(runner.queries))
	}
}

func TestExecuteRejectsWriteStatements(t *testing.T) {
	runner := &fakeRunner{}
	executor := newTestExecutor(runner)

	outcome := executor.Execute(context.Background(), QueryPlan{
		Intent: IntentStructuredQuery,
		SQL:    "DELETE FROM users",
	})
	if outcome.OK() {
		t.Fatal("expected failure")
	}
	if outcome.Failure.Kind != FailureSyntax {
		t.Fatalf("kind = %q, want syntax", outcome.Failure.Kind)
	}
	if len(runner.queries) != 0 {
		t.Fatal("write statement reached the database")
	}
}

func TestExecuteReturnsRows(t *testing.T) {
	runner := &fakeRunner{results: []func(string) (sqldb.Result, error){
		resultRows([]string{"id", "name"}, [][]any{{1, "alice"}, {2, "bob"}}),
	}}
	executor := newTestExecutor(runner)

	outcome := executor.Execute(context.Background(), QueryPlan{
		Intent: IntentStructuredQuery,
		SQL:    "SELECT id, name FROM users",
	})
	if !outcome.OK() {
		t.Fatalf("failure = %v", outcome.Failure)
	}
	if !outcome.Executed || len(outcome.Rows) != 2 {
		t.Fatalf("executed = %v rows = %d", outcome.Executed, len(outcome.Rows))
	}
}

func TestExecuteClassifiesFailures(t *testing.T) {
	tests := []struct {
		code sqldb.Code
		want FailureKind
	}{
		{sqldb.CodeSyntax, FailureSyntax},
		{sqldb.CodePermission, FailurePermission},
		{sqldb.CodeTimeout, FailureTimeout},
		{sqldb.CodeUnknown, FailureSyntax},
	}
	for _, tt := range tests {
		runner := &fakeRunner{results: []func(string) (sqldb.Result, error){
			resultError(tt.code, "boom"),
		}}
		executor := newTestExecutor(runner)

		outcome := executor.Execute(context.Background(), QueryPlan{Intent: IntentStructuredQuery, SQL: "SELECT 1"})
		if outcome.OK() {
			t.Fatalf("code %q: expected failure", tt.code)
		}
		if outcome.Failure.Kind != tt.want {
			t.Fatalf("code %q: kind = %q, want %q", tt.code, outcome.Failure.Kind, tt.want)
		}
	}
}

func TestExecuteRetriesTransientConnectionFailureOnce(t *testing.T) {
	runner := &fakeRunner{results: []func(string) (sqldb.Result, error){
		resultError(sqldb.CodeConnection, "connection reset"),
		resultRows([]string{"id"}, [][]any{{1}}),
	}}
	executor := newTestExecutor(runner)

	outcome := executor.Execute(context.Background(), QueryPlan{Intent: IntentStructuredQuery, SQL: "SELECT 1"})
	if !outcome.OK() {
		t.Fatalf("failure = %v", outcome.Failure)
	}
	if len(runner.queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(runner.queries))
	}
}

func TestExecutePersistentConnectionFailureIsNotRepairable(t *testing.T) {
	runner := &fakeRunner{results: []func(string) (sqldb.Result, error){
		resultError(sqldb.CodeConnection, "connection refused"),
		resultError(sqldb.CodeConnection, "connection refused"),
	}}
	executor := newTestExecutor(runner)

	outcome := executor.Execute(context.Background(), QueryPlan{Intent: IntentStructuredQuery, SQL: "SELECT 1"})
	if outcome.OK() {
		t.Fatal("expected failure")
	}
	if outcome.Failure.Kind != FailureConnection {
		t.Fatalf("kind = %q", outcome.Failure.Kind)
	}
	if outcome.Failure.Repairable() {
		t.Fatal("connection failure must not be repairable")
	}
	if len(runner.queries) != 2 {
		t.Fatalf("queries = %d, want exactly one retry", len(runner.queries))
	}
}
