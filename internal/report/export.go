package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/dbchat/dbchat/internal/artifacts"
	"github.com/dbchat/dbchat/internal/pipeline"
)

// Exporter writes one report run to the artifact store: the markdown
// report, the result rows as CSV, and the same rows as parquet. It
// satisfies pipeline.Exporter.
type Exporter struct {
	store    artifacts.Store
	now      func() time.Time
	newRunID func() string
}

func NewExporter(store artifacts.Store) *Exporter {
	return &Exporter{
		store:    store,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
}

func (e *Exporter) Export(ctx context.Context, _ pipeline.Question, report string, outcome pipeline.Outcome) ([]string, error) {
	if e.store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	generatedAt := e.now()
	runID := e.newRunID()

	csvData, err := encodeCSV(outcome.Columns, outcome.Rows)
	if err != nil {
		return nil, fmt.Errorf("encode csv rows: %w", err)
	}
	parquetData, err := encodeParquet(outcome.Columns, outcome.Rows)
	if err != nil {
		return nil, fmt.Errorf("encode parquet rows: %w", err)
	}

	files := []struct {
		name        string
		contentType string
		data        []byte
	}{
		{"report.md", "text/markdown", []byte(report)},
		{"rows.csv", "text/csv", csvData},
		{"rows.parquet", "application/octet-stream", parquetData},
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		key, err := artifacts.BuildReportKey(generatedAt, runID, file.name)
		if err != nil {
			return nil, err
		}
		if _, err := e.store.Put(ctx, key, bytes.NewReader(file.data), int64(len(file.data)), artifacts.PutOptions{ContentType: file.contentType}); err != nil {
			return nil, fmt.Errorf("store %s: %w", file.name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func encodeCSV(columns []string, rows [][]any) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buf)
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range columns {
			record[i] = cellString(row, i)
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parquetCell is the long-format row shape: one record per result cell.
// Queries are user-authored, so the column set cannot be known ahead of
// time; the cell format keeps the parquet schema fixed.
type parquetCell struct {
	RowIndex int64  `parquet:"row_index"`
	Column   string `parquet:"column"`
	Value    string `parquet:"value"`
	IsNull   bool   `parquet:"is_null"`
}

func encodeParquet(columns []string, rows [][]any) ([]byte, error) {
	cells := make([]parquetCell, 0, len(rows)*len(columns))
	for rowIndex, row := range rows {
		for colIndex, column := range columns {
			cell := parquetCell{RowIndex: int64(rowIndex), Column: column}
			if colIndex >= len(row) || row[colIndex] == nil {
				cell.IsNull = true
			} else {
				cell.Value = cellString(row, colIndex)
			}
			cells = append(cells, cell)
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetCell](buf)
	if len(cells) > 0 {
		if _, err := writer.Write(cells); err != nil {
			return nil, fmt.Errorf("write parquet cells: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func cellString(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
