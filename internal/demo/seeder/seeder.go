// Package seeder fills the target database with a small retail dataset so
// the chat pipeline has something to answer questions about out of the box.
package seeder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/sqldb"
)

// Execer is the slice of *sqldb.DB the seeder needs.
type Execer interface {
	Exec(ctx context.Context, sqlText string, args ...any) (int64, error)
	Dialect() sqldb.Dialect
}

type Service struct {
	cfg       Config
	log       *slog.Logger
	db        Execer
	generator *Generator
	batchSize int
}

func NewService(cfg Config, logger *slog.Logger, db Execer) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if cfg.Users <= 0 || cfg.Orders <= 0 {
		return nil, fmt.Errorf("users and orders must be > 0")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cfg:       cfg,
		log:       logger,
		db:        db,
		generator: NewGenerator(cfg.Seed, cfg.Users),
		batchSize: 100,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	start := time.Now()

	if s.cfg.DropFirst {
		if err := s.dropTables(ctx); err != nil {
			return err
		}
	}
	if err := s.createTables(ctx); err != nil {
		return err
	}
	if err := s.seedUsers(ctx); err != nil {
		return err
	}
	if err := s.seedOrders(ctx); err != nil {
		return err
	}

	s.log.Info("demo data seeded",
		slog.Int("users", s.cfg.Users),
		slog.Int("orders", s.cfg.Orders),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Service) dropTables(ctx context.Context) error {
	for _, table := range []string{"orders", "users"} {
		stmt := "DROP TABLE IF EXISTS " + s.db.Dialect().QuoteIdent(table)
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

func (s *Service) createTables(ctx context.Context) error {
	quote := s.db.Dialect().QuoteIdent
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	country TEXT NOT NULL,
	signed_up_at TIMESTAMP NOT NULL
)`, quote("users")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	status TEXT NOT NULL,
	category TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	currency TEXT NOT NULL,
	ordered_at TIMESTAMP NOT NULL
)`, quote("orders")),
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create demo table: %w", err)
		}
	}
	return nil
}

func (s *Service) seedUsers(ctx context.Context) error {
	values := make([]string, 0, s.batchSize)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		stmt := fmt.Sprintf("INSERT INTO %s (id, name, email, country, signed_up_at) VALUES %s",
			s.db.Dialect().QuoteIdent("users"), strings.Join(values, ", "))
		values = values[:0]
		_, err := s.db.Exec(ctx, stmt)
		return err
	}

	for id := int64(1); id <= int64(s.cfg.Users); id++ {
		user := s.generator.User(id)
		values = append(values, fmt.Sprintf("(%d, %s, %s, %s, %s)",
			user.ID, quoteString(user.Name), quoteString(user.Email),
			quoteString(user.Country), quoteTime(user.SignedUpAt)))
		if len(values) >= s.batchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("insert demo users: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return fmt.Errorf("insert demo users: %w", err)
	}
	return nil
}

func (s *Service) seedOrders(ctx context.Context) error {
	values := make([]string, 0, s.batchSize)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		stmt := fmt.Sprintf("INSERT INTO %s (id, user_id, status, category, amount, currency, ordered_at) VALUES %s",
			s.db.Dialect().QuoteIdent("orders"), strings.Join(values, ", "))
		values = values[:0]
		_, err := s.db.Exec(ctx, stmt)
		return err
	}

	for id := int64(1); id <= int64(s.cfg.Orders); id++ {
		order := s.generator.Order(id)
		values = append(values, fmt.Sprintf("(%d, %d, %s, %s, %.2f, %s, %s)",
			order.ID, order.UserID, quoteString(order.Status), quoteString(order.Category),
			order.Amount, quoteString(order.Currency), quoteTime(order.OrderedAt)))
		if len(values) >= s.batchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("insert demo orders: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return fmt.Errorf("insert demo orders: %w", err)
	}
	return nil
}

// quoteString renders a SQL string literal. The generated data never
// contains control characters, so doubling single quotes is enough.
func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func quoteTime(value time.Time) string {
	return "'" + value.UTC().Format("2006-01-02 15:04:05") + "'"
}
