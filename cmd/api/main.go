// Command api serves the feedback HTTP API and runs the embedding and notification workers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/formbricks/feedback-pulse/internal/config"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/pkg/database"
)

const (
	exitSuccess     = 0
	exitFailure     = 1
	shutdownTimeout = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	slog.SetDefault(observability.NewLogger(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrapSchema(ctx, cfg); err != nil {
		slog.Error("Failed to prepare database schema", "error", err)

		return exitFailure
	}

	poolOpts := []database.PoolOption{database.WithApplicationName("feedback-pulse-api")}
	if cfg.VectorIndexProvider == config.VectorIndexPgvector {
		poolOpts = append(poolOpts, database.WithAfterConnect(pgxvec.RegisterTypes))
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, poolOpts...)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	app, err := NewApp(ctx, cfg, db)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)

		return exitFailure
	}

	code := exitSuccess

	if err := app.Run(ctx); err != nil {
		slog.Error("Application stopped with error", "error", err)

		code = exitFailure
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)

		code = exitFailure
	}

	slog.Info("Server exited")

	return code
}

// bootstrapSchema applies the relational schema, River's migrations and (for pgvector) the vector
// table. It uses its own short-lived pool because pgvector type registration on connect needs the
// extension to exist first.
func bootstrapSchema(ctx context.Context, cfg *config.Config) error {
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithMaxConns(1), database.WithApplicationName("feedback-pulse-migrate"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err //nolint:wrapcheck // already wrapped by database
	}

	if cfg.VectorIndexProvider == config.VectorIndexPgvector {
		if err := database.EnsureVectorSchema(ctx, pool, cfg.EmbeddingDimensions); err != nil {
			return err //nolint:wrapcheck // already wrapped by database
		}
	}

	if err := database.MigrateRiver(ctx, pool); err != nil {
		return err //nolint:wrapcheck // already wrapped by database
	}

	return nil
}
