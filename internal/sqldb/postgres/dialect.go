package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type Dialect struct{}

func (Dialect) Name() string {
	return "postgres"
}

func (Dialect) DriverName() string {
	return "pgx"
}

func (Dialect) DSN(conn sqldb.ConnConfig) (string, error) {
	if strings.TrimSpace(conn.DSN) != "" {
		return conn.DSN, nil
	}
	if conn.Host == "" || conn.Name == "" {
		return "", fmt.Errorf("postgres host and database name are required")
	}
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", conn.Host, port),
		Path:   "/" + conn.Name,
	}
	if conn.User != "" {
		if conn.Password != "" {
			u.User = url.UserPassword(conn.User, conn.Password)
		} else {
			u.User = url.User(conn.User)
		}
	}
	return u.String(), nil
}

func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
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
		WHERE table_schema = 'public' AND table_name = $1
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

func (Dialect) Classify(err error) sqldb.Code {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return sqldb.CodeUnknown
	}
	code := pgErr.Code
	switch {
	case code == "42501":
		return sqldb.CodePermission
	case strings.HasPrefix(code, "42"):
		return sqldb.CodeSyntax
	case code == "57014":
		return sqldb.CodeTimeout
	case strings.HasPrefix(code, "08"):
		return sqldb.CodeConnection
	case strings.HasPrefix(code, "28"):
		return sqldb.CodePermission
	case code == "53300" || code == "3D000":
		return sqldb.CodeConnection
	default:
		return sqldb.CodeUnknown
	}
}
