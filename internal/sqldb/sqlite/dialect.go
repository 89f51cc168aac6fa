package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type Dialect struct{}

func (Dialect) Name() string {
	return "sqlite"
}

func (Dialect) DriverName() string {
	return "sqlite3"
}

func (Dialect) DSN(conn sqldb.ConnConfig) (string, error) {
	if strings.TrimSpace(conn.DSN) != "" {
		return conn.DSN, nil
	}
	if strings.TrimSpace(conn.Name) == "" {
		return "", fmt.Errorf("sqlite database path is required")
	}
	return conn.Name, nil
}

func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
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

func (d Dialect) DescribeTable(ctx context.Context, db *sql.DB, table string) ([]sqldb.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]sqldb.Column, 0)
	for rows.Next() {
		var (
			cid          int
			name         string
			dataType     string
			notNull      int
			defaultValue sql.NullString
			primaryKey   int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, sqldb.Column{
			Name:     name,
			Type:     dataType,
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (Dialect) Classify(err error) sqldb.Code {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return sqldb.CodeUnknown
	}
	switch sqliteErr.Code {
	case sqlite3.ErrError:
		return sqldb.CodeSyntax
	case sqlite3.ErrAuth, sqlite3.ErrPerm, sqlite3.ErrReadonly:
		return sqldb.CodePermission
	case sqlite3.ErrInterrupt:
		return sqldb.CodeTimeout
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return sqldb.CodeConnection
	default:
		return sqldb.CodeUnknown
	}
}
