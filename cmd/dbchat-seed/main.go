package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbchat/dbchat/internal/config"
	"github.com/dbchat/dbchat/internal/demo/seeder"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/sqldb"
	"github.com/dbchat/dbchat/internal/sqldb/dialects"
)

func main() {
	cfg, err := config.LoadFromEnv("dbchat-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	seedCfg, err := seeder.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seeder config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := dialects.ByName(cfg.Database.Driver)
	if err != nil {
		logger.Error("failed to resolve database dialect", slog.Any("error", err))
		os.Exit(1)
	}
	db, err := sqldb.Open(ctx, dialect, sqldb.ConnConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	}, sqldb.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Error("failed to open target database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	service, err := seeder.NewService(seedCfg, logger, db)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}
	if err := service.Run(ctx); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
}
