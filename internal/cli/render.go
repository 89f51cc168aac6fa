package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/dbchat/dbchat/internal/schema"
)

const maxRenderedRows = 50

func renderResult(w io.Writer, result ChatResult) {
	if result.SQL != "" {
		fmt.Fprintln(w, pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("SQL")).
			WithPadding(1).
			Sprint(result.SQL))
	}

	if result.Executed && len(result.Columns) > 0 {
		renderRows(w, result.Columns, result.Rows)
	}

	if result.Failure != nil {
		pterm.Error.WithWriter(w).Printfln("query failed (%s): %s", result.Failure.Kind, result.Failure.Message)
	}

	if result.Explanation != "" {
		fmt.Fprintln(w, result.Explanation)
	}

	if result.Chart != nil {
		pterm.Info.WithWriter(w).Printfln("suggested chart: %s (%s over %s)", result.Chart.Type, result.Chart.Y, result.Chart.X)
	}

	for _, key := range result.Artifacts {
		pterm.Info.WithWriter(w).Printfln("artifact: %s", key)
	}

	for _, warning := range result.Warnings {
		pterm.Warning.WithWriter(w).Println(warning)
	}
}

func renderRows(w io.Writer, columns []string, rows [][]any) {
	data := pterm.TableData{columns}
	rendered := rows
	truncated := false
	if len(rendered) > maxRenderedRows {
		rendered = rendered[:maxRenderedRows]
		truncated = true
	}
	for _, row := range rendered {
		cells := make([]string, len(columns))
		for i := range columns {
			if i < len(row) {
				cells[i] = formatCell(row[i])
			}
		}
		data = append(data, cells)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		fmt.Fprintln(w, strings.Join(columns, " | "))
		return
	}
	fmt.Fprintln(w, table)
	if truncated {
		pterm.Info.WithWriter(w).Printfln("showing first %d of %d rows", maxRenderedRows, len(rows))
	}
}

func renderSnapshot(w io.Writer, snapshot *schema.Snapshot) {
	data := pterm.TableData{{"Table", "Columns"}}
	for _, table := range snapshot.Tables {
		names := make([]string, 0, len(table.Columns))
		for _, column := range table.Columns {
			names = append(names, column.Name+" "+column.Type)
		}
		data = append(data, []string{table.Name, strings.Join(names, ", ")})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		fmt.Fprintln(w, snapshot.PromptSummary())
		return
	}
	fmt.Fprintln(w, rendered)
	pterm.Info.WithWriter(w).Printfln("%d tables, captured %s", len(snapshot.Tables), snapshot.CapturedAt.Format(time.RFC3339))
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
