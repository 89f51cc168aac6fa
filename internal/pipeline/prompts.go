package pipeline

import (
	"fmt"
	"strings"
)

const classifySystemPrompt = `You route questions about a relational database to a handling mode.
The modes are:
- schema_exploration: the user asks what tables or columns exist, or how the database is organized
- structured_query: the user wants concrete rows or aggregates retrieved with a SQL query
- analytical_report: the user wants a written analysis with statistics over the data
- visualization: the user asks for a chart, plot, or other visual of the data
- chat: anything else, including greetings and questions unrelated to the data
Reply with exactly one mode name and nothing else.`

func classifyUserPrompt(question Question, schemaSummary string) string {
	var b strings.Builder
	b.WriteString("Database tables:\n")
	b.WriteString(schemaSummary)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question.Text))
	b.WriteString("\n\nMode:")
	return b.String()
}

// One synthesis template per intent. The rules mirror each other so a
// repaired attempt stays comparable with the original one.
var synthesisSystemPrompts = map[Intent]string{
	IntentStructuredQuery: `You are a SQL expert. Generate the SQL query that answers the user's question.
Rules:
1. Return exactly one valid SQL statement.
2. Return no comments, no explanation, no markdown formatting.
3. Use only the tables and columns listed in the schema.
4. Only read data: the statement must be a SELECT (or WITH ... SELECT).`,
	IntentAnalyticalReport: `You are a SQL expert preparing data for an analytical report.
Generate one SQL query that retrieves the rows or aggregates the report needs.
Rules:
1. Return exactly one valid SQL statement.
2. Return no comments, no explanation, no markdown formatting.
3. Use only the tables and columns listed in the schema.
4. Only read data: the statement must be a SELECT (or WITH ... SELECT).
5. Prefer including the numeric columns relevant to the question so statistics can be computed.`,
	IntentVisualization: `You are a SQL expert preparing data for a chart.
Generate one SQL query whose result is chartable: a small number of columns, typically one label or time column and one or two numeric columns.
Rules:
1. Return exactly one valid SQL statement.
2. Return no comments, no explanation, no markdown formatting.
3. Use only the tables and columns listed in the schema.
4. Only read data: the statement must be a SELECT (or WITH ... SELECT).
5. Aggregate or order the result so it reads naturally on an axis.`,
}

func synthesisUserPrompt(question Question, schemaSummary, priorError string) string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	b.WriteString(schemaSummary)
	if history := renderHistory(question.History); history != "" {
		b.WriteString("\nRecent conversation:\n")
		b.WriteString(history)
	}
	b.WriteString("\nGenerate a SQL query to answer this question: ")
	b.WriteString(strings.TrimSpace(question.Text))
	if strings.TrimSpace(priorError) != "" {
		fmt.Fprintf(&b, "\n\nThe previous attempt failed with this database error:\n%s\nReturn a corrected SQL statement.", strings.TrimSpace(priorError))
	}
	return b.String()
}

const composeResultSystemPrompt = `You are a data analyst explaining the result of a SQL query.
Rules:
1. Answer in the same language as the user's question.
2. Explain the result in plain terms and reference concrete values and the row count.
3. If the result is empty, explain likely reasons.
4. Do not invent values that are not in the result.`

func composeResultUserPrompt(question Question, plan QueryPlan, preview string, rowCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question.Text))
	fmt.Fprintf(&b, "Executed SQL: %s\n", plan.SQL)
	fmt.Fprintf(&b, "Result (%d row(s)):\n%s\n", rowCount, preview)
	b.WriteString("\nExplain this result:")
	return b.String()
}

const composeSchemaSystemPrompt = `You are a data analyst describing a database to a user.
Rules:
1. Answer in the same language as the user's question.
2. List each table by name and describe what it likely holds, based on its columns and sample rows.
3. Keep the description concrete and grounded in the schema shown.`

func composeSchemaUserPrompt(question Question, schemaSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question.Text))
	b.WriteString("Database schema:\n")
	b.WriteString(schemaSummary)
	b.WriteString("\nDescribe the database for the user:")
	return b.String()
}

const composeChatSystemPrompt = `You are a helpful assistant for a database chat tool.
Answer in the same language as the user's question. When the question touches the connected
database, ground your answer in the schema provided; otherwise answer normally and briefly.`

func composeChatUserPrompt(question Question, schemaSummary string) string {
	var b strings.Builder
	if history := renderHistory(question.History); history != "" {
		b.WriteString("Recent conversation:\n")
		b.WriteString(history)
		b.WriteString("\n")
	}
	b.WriteString("Database tables for context:\n")
	b.WriteString(schemaSummary)
	fmt.Fprintf(&b, "\nQuestion: %s", strings.TrimSpace(question.Text))
	return b.String()
}

func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "user: %s\nassistant: %s\n", turn.Question, turn.Answer)
	}
	return b.String()
}
