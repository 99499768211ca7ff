package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/formbricks/feedback-pulse/internal/config"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/internal/providers"
	"github.com/formbricks/feedback-pulse/internal/repository"
	"github.com/formbricks/feedback-pulse/internal/service"
	"github.com/formbricks/feedback-pulse/pkg/database"
)

type options struct {
	batchSize int
	progress  bool
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "backfill-embeddings",
		Short: "Embed every feedback record and upsert it into the vector index",
		Long: `backfill-embeddings walks all feedback records in id order, embeds each message and upserts
the vector into the index selected by VECTOR_INDEX_PROVIDER. Individual failures are counted, not
fatal; re-run the command to retry them.

Configuration is read from the environment (and .env), the same as the API server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "records embedded concurrently (default BACKFILL_BATCH_SIZE)")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")

	return cmd
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slog.SetDefault(observability.NewLogger(stderr, cfg.LogLevel))

	if opts.batchSize > 0 {
		cfg.BackfillBatchSize = opts.batchSize
	}

	poolOpts := []database.PoolOption{database.WithApplicationName("feedback-pulse-backfill")}
	if cfg.VectorIndexProvider == config.VectorIndexPgvector {
		poolOpts = append(poolOpts, database.WithAfterConnect(pgxvec.RegisterTypes))
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, poolOpts...)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ai, err := providers.NewAIClients(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("create AI clients: %w", err)
	}

	index, err := providers.NewVectorIndex(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	repo := repository.NewFeedbackRepository(db)

	var indexer service.RecordIndexer = service.NewFeedbackIndexer(ai.Embedder, index)

	if opts.progress {
		total, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count feedback: %w", err)
		}

		bar := progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("Embedding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(stderr) }),
		)
		defer func() { _ = bar.Finish() }()

		indexer = &progressIndexer{inner: indexer, bar: bar}
	}

	result, err := service.NewBackfillService(repo, indexer, cfg.BackfillBatchSize, nil, slog.Default()).BackfillAll(ctx)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	return printResult(stdout, result, opts.jsonOut)
}

func printResult(w io.Writer, result *models.BackfillResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}

		return nil
	}

	_, err := fmt.Fprintf(w, "Processed %d of %d record(s), %d error(s).\n", result.Processed, result.Total, result.Errors)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}

// progressIndexer advances the bar after every record, successful or not.
type progressIndexer struct {
	inner service.RecordIndexer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (p *progressIndexer) Index(ctx context.Context, record *models.FeedbackRecord) error {
	err := p.inner.Index(ctx, record)

	p.mu.Lock()
	_ = p.bar.Add(1)
	p.mu.Unlock()

	return err //nolint:wrapcheck // decorator
}
