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

// notificationRunner runs the checkpointed notification workflow (service.NotificationWorkflow).
type notificationRunner interface {
	Run(ctx context.Context, record *models.FeedbackRecord) (*models.NotificationOutcome, error)
}

// FeedbackNotificationWorker runs the urgency notification workflow for one record. Errors are
// returned so River retries; completed steps are not repeated on retry.
type FeedbackNotificationWorker struct {
	river.WorkerDefaults[service.FeedbackNotificationArgs]

	repo     feedbackGetter
	workflow notificationRunner
	metrics  observability.NotificationMetrics
}

// NewFeedbackNotificationWorker creates the worker. metrics may be nil when metrics are disabled.
func NewFeedbackNotificationWorker(
	repo feedbackGetter, workflow notificationRunner, metrics observability.NotificationMetrics,
) *FeedbackNotificationWorker {
	return &FeedbackNotificationWorker{repo: repo, workflow: workflow, metrics: metrics}
}

// FeedbackNotificationTimeout bounds one workflow attempt (classification plus webhook delivery).
const FeedbackNotificationTimeout = 60 * time.Second

// Timeout limits how long a single notification job can run.
func (w *FeedbackNotificationWorker) Timeout(*river.Job[service.FeedbackNotificationArgs]) time.Duration {
	return FeedbackNotificationTimeout
}

// Work loads the record and runs the workflow.
func (w *FeedbackNotificationWorker) Work(ctx context.Context, job *river.Job[service.FeedbackNotificationArgs]) error {
	id := job.Args.FeedbackID

	record, err := w.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, huberrors.ErrNotFound) {
			slog.InfoContext(ctx, "notification: record gone, skipping", "feedback_id", id)

			return nil
		}

		return fmt.Errorf("get feedback: %w", err)
	}

	outcome, err := w.workflow.Run(ctx, record)
	if err != nil {
		if job.Attempt >= job.MaxAttempts {
			w.recordDelivery(ctx, "failed_final")
			slog.ErrorContext(ctx, "notification: failed on final attempt", "feedback_id", id, "error", err)

			return fmt.Errorf("notification workflow (final attempt): %w", err)
		}

		w.recordDelivery(ctx, "retry")
		slog.WarnContext(ctx, "notification: failed, will retry", "feedback_id", id, "attempt", job.Attempt, "error", err)

		return fmt.Errorf("notification workflow: %w", err)
	}

	slog.InfoContext(ctx, "notification: workflow done",
		"feedback_id", id,
		"level", outcome.Urgency.Level,
		"branch", outcome.Branch,
		"notified", outcome.Notified,
	)

	return nil
}

func (w *FeedbackNotificationWorker) recordDelivery(ctx context.Context, status string) {
	if w.metrics != nil {
		w.metrics.RecordDelivery(ctx, status)
	}
}
