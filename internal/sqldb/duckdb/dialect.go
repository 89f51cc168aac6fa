package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type Dialect struct{}

func (Dialect) Name() string {
	return "duckdb"
}

func (Dialect) DriverName() string {
	return "duckdb"
}

// An empty DSN opens an in-memory database.
func (Dialect) DSN(conn sqldb.ConnConfig) (string, error) {
	if strings.TrimSpace(conn.DSN) != "" {
		return conn.DSN, nil
	}
	return conn.Name, nil
}

func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (Dialect) DescribeTable(ctx context.Context, db *sql.DB, table string) ([]sqldb.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]sqldb.Column, 0)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, sqldb.Column{
			Name:     name,
			Type:     dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// go-duckdb does not export stable error types, so classification matches
// the error text prefixes DuckDB emits.
func (Dialect) Classify(err error) sqldb.Code {
	if err == nil {
		return sqldb.CodeUnknown
	}
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "parser error"),
		strings.Contains(message, "syntax error"),
		strings.Contains(message, "binder error"),
		strings.Contains(message, "catalog error"):
		return sqldb.CodeSyntax
	case strings.Contains(message, "permission"):
		return sqldb.CodePermission
	case strings.Contains(message, "interrupt"):
		return sqldb.CodeTimeout
	case strings.Contains(message, "could not open"),
		strings.Contains(message, "database is locked"):
		return sqldb.CodeConnection
	default:
		return sqldb.CodeUnknown
	}
}
