package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type Table struct {
	Name          string         `json:"name"`
	Columns       []sqldb.Column `json:"columns"`
	SampleColumns []string       `json:"sample_columns,omitempty"`
	SampleRows    [][]any        `json:"sample_rows,omitempty"`
}

// Snapshot is one consistent point-in-time read of the database metadata.
// It is immutable once published and safe to share across sessions.
type Snapshot struct {
	Tables     []Table   `json:"tables"`
	CapturedAt time.Time `json:"captured_at"`
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Tables) == 0
}

func (s *Snapshot) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.Name)
	}
	return names
}

func (s *Snapshot) Table(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	for _, table := range s.Tables {
		if strings.EqualFold(table.Name, name) {
			return table, true
		}
	}
	return Table{}, false
}

// PromptSummary renders the snapshot as a compact text block for model
// prompts: table, columns with type and nullability, then sample rows.
func (s *Snapshot) PromptSummary() string {
	if s.Empty() {
		return "(no tables found)"
	}
	var b strings.Builder
	for _, table := range s.Tables {
		fmt.Fprintf(&b, "Table %s:\n", table.Name)
		for _, column := range table.Columns {
			nullability := "NULL"
			if !column.Nullable {
				nullability = "NOT NULL"
			}
			fmt.Fprintf(&b, "  - %s %s %s\n", column.Name, column.Type, nullability)
		}
		if len(table.SampleRows) > 0 {
			fmt.Fprintf(&b, "  sample rows (%s):\n", strings.Join(table.SampleColumns, ", "))
			for _, row := range table.SampleRows {
				fmt.Fprintf(&b, "    %s\n", formatSampleRow(row))
			}
		}
	}
	return b.String()
}

func formatSampleRow(row []any) string {
	parts := make([]string, 0, len(row))
	for _, value := range row {
		if value == nil {
			parts = append(parts, "NULL")
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", value))
	}
	return strings.Join(parts, ", ")
}
