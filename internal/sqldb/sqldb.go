package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Code classifies a database failure so callers can decide whether a retry
// or a query rewrite is plausible.
type Code string

const (
	CodeSyntax     Code = "syntax"
	CodePermission Code = "permission"
	CodeTimeout    Code = "timeout"
	CodeConnection Code = "connection"
	CodeUnknown    Code = "unknown"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Classify(err error) Code {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}
	return CodeUnknown
}

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type Result struct {
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	Duration time.Duration `json:"-"`
}

type ConnConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Dialect covers the per-engine differences: DSN shape, identifier quoting,
// metadata queries, and error classification.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(conn ConnConfig) (string, error)
	QuoteIdent(name string) string
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)
	DescribeTable(ctx context.Context, db *sql.DB, table string) ([]Column, error)
	Classify(err error) Code
}

type DB struct {
	db      *sql.DB
	dialect Dialect
}

func Open(ctx context.Context, dialect Dialect, conn ConnConfig, opts Options) (*DB, error) {
	if dialect == nil {
		return nil, fmt.Errorf("dialect is required")
	}
	dsn, err := dialect.DSN(conn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect.Name(), err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, wrap(dialect, fmt.Errorf("ping %s db: %w", dialect.Name(), err))
	}

	return &DB{db: db, dialect: dialect}, nil
}

// Wrap adopts an already opened *sql.DB. Used by tests with sqlmock.
func Wrap(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

func (d *DB) Dialect() Dialect {
	return d.dialect
}

func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return wrap(d.dialect, fmt.Errorf("ping %s db: %w", d.dialect.Name(), err))
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs a read statement with a row cap and statement timeout. The
// passed limit is applied by wrapping the statement in a LIMIT subquery.
func (d *DB) Query(ctx context.Context, sqlText string, rowLimit int, timeout time.Duration) (Result, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return Result{}, fmt.Errorf("sql is required")
	}
	if rowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, rowLimit)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, wrap(d.dialect, fmt.Errorf("execute query: %w", err))
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, wrap(d.dialect, fmt.Errorf("query columns: %w", err))
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, wrap(d.dialect, fmt.Errorf("scan row: %w", err))
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, wrap(d.dialect, fmt.Errorf("iterate rows: %w", err))
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// Exec runs a write statement. Only used by tooling (seeding, migrations),
// never by the question pipeline.
func (d *DB) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	result, err := d.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, wrap(d.dialect, fmt.Errorf("execute statement: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func (d *DB) ListTables(ctx context.Context) ([]string, error) {
	tables, err := d.dialect.ListTables(ctx, d.db)
	if err != nil {
		return nil, wrap(d.dialect, err)
	}
	return tables, nil
}

func (d *DB) DescribeTable(ctx context.Context, table string) ([]Column, error) {
	columns, err := d.dialect.DescribeTable(ctx, d.db, table)
	if err != nil {
		return nil, wrap(d.dialect, err)
	}
	return columns, nil
}

func (d *DB) SampleRows(ctx context.Context, table string, limit int) (Result, error) {
	if limit <= 0 {
		limit = 3
	}
	sqlText := fmt.Sprintf("SELECT * FROM %s LIMIT %d", d.dialect.QuoteIdent(table), limit)
	return d.Query(ctx, sqlText, 0, 0)
}

func wrap(dialect Dialect, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	code := classifyCommon(err)
	if code == CodeUnknown {
		code = dialect.Classify(err)
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

func classifyCommon(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return CodeConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout
		}
		return CodeConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CodeConnection
	}
	return CodeUnknown
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
