package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/schema"
	"github.com/dbchat/dbchat/internal/sqldb"
)

// SchemaSource yields the cached schema snapshot. *schema.Introspector
// satisfies it.
type SchemaSource interface {
	Snapshot(ctx context.Context, force bool) (*schema.Snapshot, error)
}

// Reporter renders an analytical report for a successful outcome.
type Reporter interface {
	Generate(ctx context.Context, question Question, plan QueryPlan, outcome Outcome) (string, error)
}

// Exporter persists report artifacts and returns their keys.
type Exporter interface {
	Export(ctx context.Context, question Question, report string, outcome Outcome) ([]string, error)
}

type Config struct {
	MaxAttempts       int
	RowLimit          int
	StatementTimeout  time.Duration
	ModelTimeout      time.Duration
	ConnectRetryDelay time.Duration
}

// Pipeline is the full question-handling path: classify the intent, run the
// synthesize/execute loop under the retry controller, then compose the
// response. Every request terminates in a Response; pipeline faults surface
// inside it as plain-language explanations, never as raw errors.
type Pipeline struct {
	router     *Router
	controller *Controller
	composer   *Composer
	schemas    SchemaSource
	reporter   Reporter
	exporter   Exporter
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Pipeline)

func WithReporter(reporter Reporter) Option {
	return func(p *Pipeline) { p.reporter = reporter }
}

func WithExporter(exporter Exporter) Option {
	return func(p *Pipeline) { p.exporter = exporter }
}

func New(cfg Config, provider llm.Provider, db Runner, schemas SchemaSource, logger *slog.Logger, opts ...Option) *Pipeline {
	synthesizer := NewSynthesizer(provider, cfg.ModelTimeout)
	executor := NewExecutor(db, ExecutorConfig{
		RowLimit:          cfg.RowLimit,
		StatementTimeout:  cfg.StatementTimeout,
		ConnectRetryDelay: cfg.ConnectRetryDelay,
	})

	p := &Pipeline{
		router:     NewRouter(provider, cfg.ModelTimeout),
		controller: NewController(synthesizer, executor, cfg.MaxAttempts, logger),
		composer:   NewComposer(provider, cfg.ModelTimeout),
		schemas:    schemas,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle runs one question through the pipeline. The error return is
// reserved for an invalid request or a cancelled context; every other
// failure is reported inside the Response.
func (p *Pipeline) Handle(ctx context.Context, question Question) (Response, error) {
	if strings.TrimSpace(question.Text) == "" {
		return Response{}, fmt.Errorf("question text is required")
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	start := p.now()

	snapshot, err := p.schemas.Snapshot(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return p.finish(start, p.schemaFailureResponse(err)), nil
	}

	intent, resolved, err := p.router.Classify(ctx, question, snapshot)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return p.finish(start, p.synthesisFailureResponse(IntentChat, err)), nil
	}
	observability.ObservePipelineRequest(string(intent))

	response := Response{Intent: intent}
	if !resolved {
		response.Warnings = append(response.Warnings, "intent classification was ambiguous; defaulting to chat")
	}

	plan, outcome, state, err := p.controller.Run(ctx, question, intent, snapshot)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		failed := p.synthesisFailureResponse(intent, err)
		failed.Warnings = response.Warnings
		return p.finish(start, failed), nil
	}

	composed, err := p.composer.Compose(ctx, question, plan, outcome, snapshot)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		// The result is already in hand; losing the explanation call
		// should not discard it.
		composed = Response{
			Intent:      intent,
			Plan:        plan,
			Outcome:     outcome,
			Explanation: "The result was retrieved, but the explanation could not be generated: " + err.Error(),
		}
	}
	composed.Warnings = append(response.Warnings, composed.Warnings...)

	if intent == IntentAnalyticalReport && outcome.OK() && p.reporter != nil {
		p.attachReport(ctx, question, plan, outcome, &composed)
	}

	observability.ObservePipelineOutcome(string(state), plan.Attempt+1, p.now().Sub(start))
	return composed, nil
}

// RefreshSchema drops and re-reads the schema cache.
func (p *Pipeline) RefreshSchema(ctx context.Context) (*schema.Snapshot, error) {
	return p.schemas.Snapshot(ctx, true)
}

func (p *Pipeline) attachReport(ctx context.Context, question Question, plan QueryPlan, outcome Outcome, response *Response) {
	report, err := p.reporter.Generate(ctx, question, plan, outcome)
	if err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "report generation failed", slog.Any("error", err))
		}
		response.Warnings = append(response.Warnings, "the analytical report could not be generated")
		return
	}
	response.Report = report

	if p.exporter == nil {
		return
	}
	keys, err := p.exporter.Export(ctx, question, report, outcome)
	if err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "artifact export failed", slog.Any("error", err))
		}
		response.Warnings = append(response.Warnings, "report artifacts could not be exported")
		return
	}
	response.Artifacts = keys
	observability.AddArtifactsWritten(len(keys))
}

func (p *Pipeline) schemaFailureResponse(err error) Response {
	kind := FailureIntrospection
	if sqldb.Classify(err) == sqldb.CodeConnection {
		kind = FailureConnection
	}
	failure := &Failure{Kind: kind, Message: err.Error()}
	return Response{
		Intent:      IntentChat,
		Outcome:     Outcome{Failure: failure},
		Explanation: FailureExplanation(failure, 1),
	}
}

func (p *Pipeline) synthesisFailureResponse(intent Intent, err error) Response {
	var synthErr *SynthesisError
	message := err.Error()
	if errors.As(err, &synthErr) {
		message = synthErr.Error()
	}
	failure := &Failure{Kind: FailureSynthesis, Message: message}
	return Response{
		Intent:      intent,
		Outcome:     Outcome{Failure: failure},
		Explanation: FailureExplanation(failure, 1),
	}
}

func (p *Pipeline) finish(start time.Time, response Response) Response {
	observability.ObservePipelineOutcome(string(StateExhausted), 0, p.now().Sub(start))
	return response
}
