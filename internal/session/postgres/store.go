package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/session"
)

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("session dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	return db, nil
}

// Store persists sessions in Postgres. It satisfies session.Store.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping session db: %w", err)
	}
	return nil
}

func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn session.TurnRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append turn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (session_id)
VALUES ($1)
ON CONFLICT (session_id) DO UPDATE SET updated_at = now()`, sessionID); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	askedAt := turn.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO session_turns (session_id, question, answer, intent, sql_text, asked_at)
VALUES ($1, $2, $3, $4, $5, $6)`, sessionID, turn.Question, turn.Answer, string(turn.Intent), turn.SQL, askedAt); err != nil {
		return fmt.Errorf("insert session turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append turn: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (session.Session, error) {
	query := `
SELECT session_id, created_at, updated_at
FROM sessions
WHERE session_id = $1`

	var result session.Session
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&result.ID,
		&result.CreatedAt,
		&result.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT question, answer, intent, sql_text, asked_at
FROM session_turns
WHERE session_id = $1
ORDER BY turn_id ASC`, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("list session turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var turn session.TurnRecord
		var intent string
		if err := rows.Scan(&turn.Question, &turn.Answer, &intent, &turn.SQL, &turn.AskedAt); err != nil {
			return session.Session{}, fmt.Errorf("scan session turn: %w", err)
		}
		turn.Intent = pipeline.Intent(intent)
		result.Turns = append(result.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return session.Session{}, fmt.Errorf("iterate session turns: %w", err)
	}
	return result, nil
}

func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]pipeline.Turn, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT question, answer
FROM (
	SELECT turn_id, question, answer
	FROM session_turns
	WHERE session_id = $1
	ORDER BY turn_id DESC
	LIMIT $2
) latest
ORDER BY turn_id ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	history := make([]pipeline.Turn, 0, limit)
	for rows.Next() {
		var turn pipeline.Turn
		if err := rows.Scan(&turn.Question, &turn.Answer); err != nil {
			return nil, fmt.Errorf("scan session history: %w", err)
		}
		history = append(history, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return history, nil
}
