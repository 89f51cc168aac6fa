package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/pipeline"
)

const summarySystemPrompt = "You are a data analyst. Summarize the query result for the user's question " +
	"in a short paragraph. Answer in the same language as the question. Be factual; " +
	"mention concrete values from the statistics."

const conclusionsSystemPrompt = "You are a data analyst. Based on the statistics of a query result, " +
	"write two or three short conclusions and one actionable suggestion. Answer in " +
	"the same language as the question."

// Generator renders a markdown analytical report for a successful query
// outcome. It satisfies pipeline.Reporter.
type Generator struct {
	provider llm.Provider
	timeout  time.Duration
	now      func() time.Time
}

func NewGenerator(provider llm.Provider, timeout time.Duration) *Generator {
	return &Generator{provider: provider, timeout: timeout, now: time.Now}
}

func (g *Generator) Generate(ctx context.Context, question pipeline.Question, plan pipeline.QueryPlan, outcome pipeline.Outcome) (string, error) {
	if !outcome.OK() {
		return "", fmt.Errorf("cannot report on a failed outcome")
	}
	analysis := Analyze(outcome.Columns, outcome.Rows)

	summary, err := g.complete(ctx, summarySystemPrompt, summaryUserPrompt(question, plan, analysis))
	if err != nil {
		return "", fmt.Errorf("generate report summary: %w", err)
	}
	conclusions, err := g.complete(ctx, conclusionsSystemPrompt, conclusionsUserPrompt(question, analysis))
	if err != nil {
		return "", fmt.Errorf("generate report conclusions: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Analytical Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", g.now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Question: %s\n\n", question.Text)
	if plan.SQL != "" {
		fmt.Fprintf(&b, "```sql\n%s\n```\n\n", plan.SQL)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("\n\n## Data Overview\n\n")
	writeOverview(&b, analysis)

	if chart, ok := pipeline.DeriveChart(question, outcome); ok {
		fmt.Fprintf(&b, "\n## Suggested Visualization\n\nA %s chart of %q over %q would suit this result.\n", chart.Type, chart.Y, chart.X)
	}

	b.WriteString("\n## Conclusions\n\n")
	b.WriteString(strings.TrimSpace(conclusions))
	b.WriteString("\n")
	return b.String(), nil
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	reply, err := g.provider.Complete(ctx, llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: "user", Content: user}},
	})
	observability.ObserveModelCall(g.provider.Name(), "report", time.Since(start), err)
	return reply, err
}

func summaryUserPrompt(question pipeline.Question, plan pipeline.QueryPlan, analysis Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question.Text)
	if plan.SQL != "" {
		fmt.Fprintf(&b, "SQL: %s\n", plan.SQL)
	}
	fmt.Fprintf(&b, "Rows: %d\n", analysis.RowCount)
	b.WriteString(renderStats(analysis))
	return b.String()
}

func conclusionsUserPrompt(question pipeline.Question, analysis Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question.Text)
	b.WriteString(renderStats(analysis))
	return b.String()
}

func renderStats(analysis Analysis) string {
	var b strings.Builder
	b.WriteString("Column statistics:\n")
	for _, col := range analysis.Columns {
		if col.Numeric {
			fmt.Fprintf(&b, "- %s: count=%d missing=%d distinct=%d mean=%.4g std=%.4g min=%.4g max=%.4g\n",
				col.Name, col.Count, col.Missing, col.Distinct, col.Mean, col.StdDev, col.Min, col.Max)
			continue
		}
		fmt.Fprintf(&b, "- %s: count=%d missing=%d distinct=%d\n", col.Name, col.Count, col.Missing, col.Distinct)
	}
	for _, corr := range analysis.Correlations {
		fmt.Fprintf(&b, "- correlation(%s, %s) = %.3f\n", corr.ColumnA, corr.ColumnB, corr.Coefficient)
	}
	return b.String()
}

func writeOverview(b *strings.Builder, analysis Analysis) {
	fmt.Fprintf(b, "Rows: %d\n\n", analysis.RowCount)
	b.WriteString("| Column | Count | Missing | Distinct | Mean | Std | Min | Max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, col := range analysis.Columns {
		if col.Numeric {
			fmt.Fprintf(b, "| %s | %d | %d | %d | %.4g | %.4g | %.4g | %.4g |\n",
				col.Name, col.Count, col.Missing, col.Distinct, col.Mean, col.StdDev, col.Min, col.Max)
			continue
		}
		fmt.Fprintf(b, "| %s | %d | %d | %d | - | - | - | - |\n", col.Name, col.Count, col.Missing, col.Distinct)
	}
	if len(analysis.Correlations) > 0 {
		b.WriteString("\nCorrelations:\n\n")
		for _, corr := range analysis.Correlations {
			fmt.Fprintf(b, "- %s and %s: %.3f\n", corr.ColumnA, corr.ColumnB, corr.Coefficient)
		}
	}
}
