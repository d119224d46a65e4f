package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/daveai/backend/internal/artifact"
	"github.com/daveai/backend/internal/auth"
	"github.com/daveai/backend/internal/config"
	"github.com/daveai/backend/internal/dashboard"
	"github.com/daveai/backend/internal/generation"
	"github.com/daveai/backend/internal/ledger"
	"github.com/daveai/backend/internal/middleware"
	"github.com/daveai/backend/internal/projects"
	"github.com/daveai/backend/internal/publish"
	"github.com/daveai/backend/internal/repository"
	"github.com/daveai/backend/internal/router"
	"github.com/daveai/backend/internal/services"
	"github.com/daveai/backend/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	if err := migrations.Apply(ctx, pool); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema migrations applied")

	// Repositories
	accountRepo := repository.NewAccountRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	versionRepo := repository.NewVersionRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)

	// Core services
	ledgerSvc := ledger.NewService(pool, accountRepo, creditRepo)
	artifactStore := artifact.NewStore(pool, projectRepo, versionRepo)

	provider, err := generation.NewGeminiProvider(ctx, cfg.GeminiModel, cfg.ImageModel)
	if err != nil {
		slog.Error("Failed to create generation provider. Set GEMINI_API_KEY", "error", err)
		os.Exit(1)
	}

	// Publish worker
	workers := river.NewWorkers()
	river.AddWorker(workers, publish.NewPublishSiteWorker(projectRepo))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	validator, err := services.NewValidator(ctx, cfg.SchemaDir)
	if err != nil {
		slog.Error("Schema validator init failed", "error", err, "dir", cfg.SchemaDir)
		os.Exit(1)
	}

	orch := &generation.Orchestrator{
		DB:       pool,
		Projects: projectRepo,
		Ledger:   ledgerSvc,
		Store:    artifactStore,
		Messages: messageRepo,
		Provider: provider,
	}
	generationHandler := generation.NewHandler(orch, validator, logger)

	projectsSvc := projects.NewService(projectRepo, artifactStore, messageRepo, provider, riverClient, logger)
	projectsHandler := projects.NewHandler(projectsSvc, logger)

	// Auth & dashboard
	authSvc := auth.NewService(accountRepo, ledgerSvc)
	authHandler := auth.NewHandler(authSvc, logger)
	dashHandler := dashboard.NewHandler(accountRepo, creditRepo, ledgerSvc, logger)

	authed := middleware.BearerAuth(authSvc, accountRepo)

	mux := http.NewServeMux()
	mux.Handle("/api/", router.New(authHandler, dashHandler, authed))
	RegisterV1Routes(mux, projectsHandler, generationHandler, authed)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes publish jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
