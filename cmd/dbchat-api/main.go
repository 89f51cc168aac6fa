package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dbchat/dbchat/internal/api"
	"github.com/dbchat/dbchat/internal/artifacts"
	"github.com/dbchat/dbchat/internal/auth"
	"github.com/dbchat/dbchat/internal/config"
	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/report"
	"github.com/dbchat/dbchat/internal/schema"
	"github.com/dbchat/dbchat/internal/session"
	sessionpostgres "github.com/dbchat/dbchat/internal/session/postgres"
	"github.com/dbchat/dbchat/internal/sqldb"
	"github.com/dbchat/dbchat/internal/sqldb/dialects"
)

func main() {
	cfg, err := config.LoadFromEnv("dbchat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
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
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open target database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	provider, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize model provider", slog.Any("error", err))
		os.Exit(1)
	}

	artifactStore, err := openArtifactStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize artifact store", slog.Any("error", err))
		os.Exit(1)
	}

	sessionStore, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSessions()

	introspector := schema.NewIntrospector(db, schema.IntrospectorConfig{
		SampleRows: cfg.Schema.SampleRows,
		CacheTTL:   cfg.Schema.CacheTTL,
	})

	pipe := pipeline.New(pipeline.Config{
		MaxAttempts:       cfg.Pipeline.MaxAttempts,
		RowLimit:          cfg.Pipeline.RowLimit,
		StatementTimeout:  cfg.Pipeline.StatementTimeout,
		ModelTimeout:      cfg.LLM.Timeout,
		ConnectRetryDelay: cfg.Pipeline.ConnectRetryDelay,
	}, provider, db, introspector, logger,
		pipeline.WithReporter(report.NewGenerator(provider, cfg.LLM.Timeout)),
		pipeline.WithExporter(report.NewExporter(artifactStore)),
	)

	sweeper := &artifacts.Sweeper{
		Store: artifactStore,
		Config: artifacts.RetentionConfig{
			Interval: cfg.Artifacts.RetentionInterval,
			MaxAge:   cfg.Artifacts.RetentionMaxAge,
		},
		Logger: logger,
	}
	go sweeper.Run(ctx)

	deps := api.Dependencies{
		Logger:            logger,
		Chat:              pipe,
		Schema:            introspector,
		Sessions:          sessionStore,
		Artifacts:         artifactStore,
		Retention:         sweeper,
		HistoryLimit:      cfg.Pipeline.HistoryLimit,
		DependencyTimeout: time.Second,
		Readiness: api.CombineReadinessChecks(
			api.CheckDatabaseConfig(cfg),
			api.CheckProviderConfig(cfg),
			db.Ping,
		),
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openArtifactStore(ctx context.Context, cfg config.Config) (artifacts.Store, error) {
	switch cfg.Artifacts.Backend {
	case "s3":
		return artifacts.NewS3Store(ctx, artifacts.S3Config{
			Endpoint:         cfg.Artifacts.Endpoint,
			Region:           cfg.Artifacts.Region,
			Bucket:           cfg.Artifacts.Bucket,
			AccessKeyID:      cfg.Artifacts.AccessKeyID,
			SecretAccessKey:  cfg.Artifacts.SecretAccessKey,
			UseSSL:           cfg.Artifacts.UseSSL,
			Prefix:           cfg.Artifacts.Prefix,
			AutoCreateBucket: cfg.Artifacts.AutoCreateBucket,
		})
	default:
		return artifacts.NewLocalStore(cfg.Artifacts.LocalDir)
	}
}

func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.Session.Store != "postgres" {
		return session.NewMemoryStore(), func() {}, nil
	}
	db, err := sessionpostgres.Open(ctx, sessionpostgres.DBConfig{
		DSN:             cfg.Session.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	return sessionpostgres.NewStore(db), func() { _ = db.Close() }, nil
}
