package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/sqldb"
)

// Runner is the slice of the database collaborator the executor needs.
// *sqldb.DB satisfies it.
type Runner interface {
	Query(ctx context.Context, sqlText string, rowLimit int, timeout time.Duration) (sqldb.Result, error)
}

type ExecutorConfig struct {
	RowLimit          int
	StatementTimeout  time.Duration
	ConnectRetryDelay time.Duration
}

// Executor runs a query plan with a row cap and statement timeout. Intents
// that need no query pass straight through with an empty outcome. A
// connection failure is retried once after a short delay before it is
// reported; everything else is classified and returned for the controller
// to decide on.
type Executor struct {
	db                Runner
	rowLimit          int
	statementTimeout  time.Duration
	connectRetryDelay time.Duration
	sleep             func(ctx context.Context, d time.Duration)
}

func NewExecutor(db Runner, cfg ExecutorConfig) *Executor {
	rowLimit := cfg.RowLimit
	if rowLimit <= 0 {
		rowLimit = 200
	}
	statementTimeout := cfg.StatementTimeout
	if statementTimeout <= 0 {
		statementTimeout = 10 * time.Second
	}
	connectRetryDelay := cfg.ConnectRetryDelay
	if connectRetryDelay <= 0 {
		connectRetryDelay = 500 * time.Millisecond
	}
	return &Executor{
		db:                db,
		rowLimit:          rowLimit,
		statementTimeout:  statementTimeout,
		connectRetryDelay: connectRetryDelay,
		sleep:             sleepContext,
	}
}

func (e *Executor) Execute(ctx context.Context, plan QueryPlan) Outcome {
	if !plan.Intent.NeedsQuery() {
		return Outcome{Executed: false}
	}
	if !isReadOnlySQL(plan.SQL) {
		outcome := failureOutcome(FailureSyntax, "only read-only SELECT/WITH statements are allowed")
		observability.ObserveExecutionFailure(string(FailureSyntax))
		return outcome
	}

	result, err := e.db.Query(ctx, plan.SQL, e.rowLimit, e.statementTimeout)
	if err != nil && sqldb.Classify(err) == sqldb.CodeConnection && ctx.Err() == nil {
		e.sleep(ctx, e.connectRetryDelay)
		result, err = e.db.Query(ctx, plan.SQL, e.rowLimit, e.statementTimeout)
	}
	if err != nil {
		kind := failureKindForCode(sqldb.Classify(err))
		observability.ObserveExecutionFailure(string(kind))
		return failureOutcome(kind, err.Error())
	}

	return Outcome{
		Columns:  result.Columns,
		Rows:     result.Rows,
		Executed: true,
	}
}

func failureOutcome(kind FailureKind, message string) Outcome {
	return Outcome{Executed: true, Failure: &Failure{Kind: kind, Message: message}}
}

func failureKindForCode(code sqldb.Code) FailureKind {
	switch code {
	case sqldb.CodePermission:
		return FailurePermission
	case sqldb.CodeTimeout:
		return FailureTimeout
	case sqldb.CodeConnection:
		return FailureConnection
	default:
		// Unknown driver errors are treated like syntax problems: the
		// message goes back to the synthesizer, which may still repair.
		return FailureSyntax
	}
}

func isReadOnlySQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
