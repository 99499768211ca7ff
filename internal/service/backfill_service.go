package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
)

// DefaultBackfillBatchSize is the number of records embedded concurrently per batch.
const DefaultBackfillBatchSize = 5

// RecordIndexer embeds and upserts one record.
type RecordIndexer interface {
	Index(ctx context.Context, record *models.FeedbackRecord) error
}

// BackfillService re-embeds every stored record into the vector index.
type BackfillService struct {
	repo      FeedbackRepository
	indexer   RecordIndexer
	batchSize int
	metrics   observability.BackfillMetrics
	logger    *slog.Logger
}

// NewBackfillService creates a BackfillService. batchSize <= 0 uses DefaultBackfillBatchSize;
// metrics and logger may be nil.
func NewBackfillService(
	repo FeedbackRepository, indexer RecordIndexer, batchSize int,
	metrics observability.BackfillMetrics, logger *slog.Logger,
) *BackfillService {
	if batchSize <= 0 {
		batchSize = DefaultBackfillBatchSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &BackfillService{repo: repo, indexer: indexer, batchSize: batchSize, metrics: metrics, logger: logger}
}

// BackfillAll indexes every record in id order, batchSize at a time. Item failures are counted and
// logged but never abort the run; Processed+Errors always equals Total. Only a failure to load the
// records returns an error. Once ctx is done no further batches start and the remaining records count
// as errors.
func (s *BackfillService) BackfillAll(ctx context.Context) (*models.BackfillResult, error) {
	ctx, span := observability.StartSpan(ctx, "backfill.run", attribute.Int("backfill.batch_size", s.batchSize))
	defer span.End()

	start := time.Now()

	records, err := s.repo.ListAllByID(ctx)
	if err != nil {
		err = fmt.Errorf("load feedback for backfill: %w", err)
		span.RecordError(err)

		return nil, err
	}

	total := len(records)

	var processed, failed atomic.Int64

	for offset := 0; offset < total; offset += s.batchSize {
		end := min(offset+s.batchSize, total)

		if ctx.Err() != nil {
			skipped := total - offset
			failed.Add(int64(skipped))
			s.logger.WarnContext(ctx, "backfill: cancelled, remaining records counted as errors",
				"remaining", skipped, "error", ctx.Err())

			break
		}

		var g errgroup.Group

		for i := offset; i < end; i++ {
			record := &records[i]

			g.Go(func() error {
				if err := s.indexer.Index(ctx, record); err != nil {
					failed.Add(1)
					s.logger.ErrorContext(ctx, "backfill: record failed", "feedback_id", record.ID, "error", err)

					return nil
				}

				processed.Add(1)

				return nil
			})
		}

		_ = g.Wait()

		s.logger.DebugContext(ctx, "backfill: batch done", "batch", offset/s.batchSize, "size", end-offset)
	}

	result := &models.BackfillResult{
		Success:   true,
		Processed: int(processed.Load()),
		Errors:    int(failed.Load()),
		Total:     total,
	}

	if s.metrics != nil {
		s.metrics.RecordItems(ctx, "processed", result.Processed)
		s.metrics.RecordItems(ctx, "error", result.Errors)
		s.metrics.RecordRunDuration(ctx, time.Since(start))
	}

	span.SetAttributes(
		attribute.Int("backfill.total", result.Total),
		attribute.Int("backfill.processed", result.Processed),
		attribute.Int("backfill.errors", result.Errors),
	)

	s.logger.InfoContext(ctx, "backfill: finished",
		"total", result.Total, "processed", result.Processed, "errors", result.Errors)

	return result, nil
}
