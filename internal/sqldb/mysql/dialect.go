package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/dbchat/dbchat/internal/sqldb"
)

type Dialect struct{}

func (Dialect) Name() string {
	return "mysql"
}

func (Dialect) DriverName() string {
	return "mysql"
}

func (Dialect) DSN(conn sqldb.ConnConfig) (string, error) {
	if strings.TrimSpace(conn.DSN) != "" {
		return conn.DSN, nil
	}
	if conn.Host == "" || conn.Name == "" {
		return "", fmt.Errorf("mysql host and database name are required")
	}
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, port)
	cfg.DBName = conn.Name
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (Dialect) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
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
		WHERE table_schema = DATABASE() AND table_name = ?
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
	if errors.Is(err, mysql.ErrInvalidConn) {
		return sqldb.CodeConnection
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return sqldb.CodeUnknown
	}
	switch myErr.Number {
	case 1064, 1052, 1054, 1146, 1305:
		return sqldb.CodeSyntax
	case 1044, 1045, 1142, 1143, 1227, 1370:
		return sqldb.CodePermission
	case 1317, 3024:
		return sqldb.CodeTimeout
	case 1040, 1053:
		return sqldb.CodeConnection
	default:
		return sqldb.CodeUnknown
	}
}
