// Package workers provides River job workers for feedback embedding and urgency notifications.
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/internal/service"
)

// feedbackGetter loads the record a job refers to.
type feedbackGetter interface {
	GetByID(ctx context.Context, id int64) (*models.FeedbackRecord, error)
}

// recordIndexer embeds and upserts one record (service.FeedbackIndexer).
type recordIndexer interface {
	Index(ctx context.Context, record *models.FeedbackRecord) error
}

// FeedbackEmbeddingWorker embeds a newly created record and upserts it into the vector index.
// Failures never affect the stored record; the backfill repairs anything still missing.
type FeedbackEmbeddingWorker struct {
	river.WorkerDefaults[service.FeedbackEmbeddingArgs]

	repo    feedbackGetter
	indexer recordIndexer
	metrics observability.EmbeddingMetrics
}

// NewFeedbackEmbeddingWorker creates the worker. metrics may be nil when metrics are disabled.
func NewFeedbackEmbeddingWorker(
	repo feedbackGetter, indexer recordIndexer, metrics observability.EmbeddingMetrics,
) *FeedbackEmbeddingWorker {
	return &FeedbackEmbeddingWorker{repo: repo, indexer: indexer, metrics: metrics}
}

const feedbackEmbeddingTimeout = 30 * time.Second

// Timeout limits how long a single embedding job can run.
func (w *FeedbackEmbeddingWorker) Timeout(*river.Job[service.FeedbackEmbeddingArgs]) time.Duration {
	return feedbackEmbeddingTimeout
}

// Work loads the record and indexes it. A missing record is skipped; a final failed attempt is
// logged and dropped rather than left in the queue.
func (w *FeedbackEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.FeedbackEmbeddingArgs]) error {
	id := job.Args.FeedbackID
	start := time.Now()

	record, err := w.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, huberrors.ErrNotFound) {
			w.outcome(ctx, start, "skipped")
			slog.InfoContext(ctx, "embedding: record gone, skipping", "feedback_id", id)

			return nil
		}

		w.workerError(ctx, "get_feedback_failed")
		w.outcome(ctx, start, "retry")
		slog.ErrorContext(ctx, "embedding: get feedback failed", "feedback_id", id, "error", err)

		return fmt.Errorf("get feedback: %w", err)
	}

	err = w.indexer.Index(ctx, record)
	if err == nil {
		w.outcome(ctx, start, "success")
		slog.InfoContext(ctx, "embedding: stored", "feedback_id", id)

		return nil
	}

	reason := "upsert_failed"
	if errors.Is(err, huberrors.ErrEmbedding) {
		reason = "embedding_failed"
	}

	w.workerError(ctx, reason)

	if job.Attempt >= job.MaxAttempts {
		w.outcome(ctx, start, "failed_final")
		slog.ErrorContext(ctx, "embedding: failed on final attempt", "feedback_id", id, "reason", reason, "error", err)

		return nil
	}

	w.outcome(ctx, start, "retry")
	slog.WarnContext(ctx, "embedding: failed, will retry",
		"feedback_id", id, "attempt", job.Attempt, "reason", reason, "error", err)

	return fmt.Errorf("index feedback: %w", err)
}

func (w *FeedbackEmbeddingWorker) outcome(ctx context.Context, start time.Time, status string) {
	if w.metrics == nil {
		return
	}

	w.metrics.RecordEmbeddingOutcome(ctx, status, time.Since(start))
}

func (w *FeedbackEmbeddingWorker) workerError(ctx context.Context, reason string) {
	if w.metrics != nil {
		w.metrics.RecordWorkerError(ctx, reason)
	}
}
