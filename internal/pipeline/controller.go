package pipeline

import (
	"context"
	"log/slog"

	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/schema"
)

type synthesizer interface {
	Synthesize(ctx context.Context, question Question, intent Intent, snapshot *schema.Snapshot, priorError string, attempt int) (QueryPlan, error)
}

type executor interface {
	Execute(ctx context.Context, plan QueryPlan) Outcome
}

// Controller drives the synthesize/execute loop as an explicit state
// machine:
//
//	Synthesizing -> Executing      on a produced plan
//	Executing    -> Success        on a non-error outcome (terminal)
//	Executing    -> Repairing      on a repairable failure below the attempt cap
//	Repairing    -> Synthesizing   with the error fed back as priorError
//	Executing    -> Exhausted      on a non-repairable failure or the cap (terminal)
//
// A SynthesisError aborts immediately: repeated calls to a failing provider
// are unlikely to help.
type Controller struct {
	synthesizer synthesizer
	executor    executor
	maxAttempts int
	logger      *slog.Logger
}

func NewController(s synthesizer, e executor, maxAttempts int, logger *slog.Logger) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Controller{synthesizer: s, executor: e, maxAttempts: maxAttempts, logger: logger}
}

// Run returns the final plan, its outcome, and the terminal state. The error
// is non-nil only for a SynthesisError or a cancelled context; execution
// failures are carried inside the outcome.
func (c *Controller) Run(ctx context.Context, question Question, intent Intent, snapshot *schema.Snapshot) (QueryPlan, Outcome, State, error) {
	priorError := ""
	var plan QueryPlan
	var outcome Outcome

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return plan, outcome, StateSynthesizing, err
		}

		var err error
		plan, err = c.synthesizer.Synthesize(ctx, question, intent, snapshot, priorError, attempt)
		if err != nil {
			return plan, outcome, StateSynthesizing, err
		}

		outcome = c.executor.Execute(ctx, plan)
		if outcome.OK() {
			return plan, outcome, StateSuccess, nil
		}

		if !outcome.Failure.Repairable() || attempt == c.maxAttempts-1 {
			return plan, outcome, StateExhausted, nil
		}

		// Repairing: feed the failure back into the next synthesis.
		priorError = outcome.Failure.Message
		observability.IncrementRepair()
		if c.logger != nil {
			c.logger.DebugContext(ctx, "repairing failed query",
				slog.Int("attempt", attempt),
				slog.String("failure_kind", string(outcome.Failure.Kind)),
			)
		}
	}

	return plan, outcome, StateExhausted, nil
}
