package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/riverqueue/river"

	"github.com/formbricks/feedback-pulse/internal/datatypes"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
)

// createdRecord returns the record carried by a FeedbackCreated event with a non-blank message.
func createdRecord(ctx context.Context, event Event) (*models.FeedbackRecord, bool) {
	if event.Type != datatypes.FeedbackCreated {
		return nil, false
	}

	record, ok := event.Data.(*models.FeedbackRecord)
	if !ok || record == nil {
		slog.DebugContext(ctx, "publisher: skip, event data is not *FeedbackRecord", "event_id", event.ID)

		return nil, false
	}

	if strings.TrimSpace(record.Message) == "" {
		return nil, false
	}

	return record, true
}

// EmbeddingProvider enqueues one feedback_embedding job per created record.
type EmbeddingProvider struct {
	inserter    JobInserter
	maxAttempts int
	metrics     observability.EmbeddingMetrics
}

// NewEmbeddingProvider creates the provider. metrics may be nil.
func NewEmbeddingProvider(inserter JobInserter, maxAttempts int, metrics observability.EmbeddingMetrics) *EmbeddingProvider {
	return &EmbeddingProvider{inserter: inserter, maxAttempts: maxAttempts, metrics: metrics}
}

// PublishEvent implements eventPublisher.
func (p *EmbeddingProvider) PublishEvent(ctx context.Context, event Event) {
	record, ok := createdRecord(ctx, event)
	if !ok {
		return
	}

	_, err := p.inserter.Insert(ctx, FeedbackEmbeddingArgs{FeedbackID: record.ID}, &river.InsertOpts{
		Queue:       EmbeddingsQueueName,
		MaxAttempts: p.maxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: uniqueByPeriod},
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordProviderError(ctx, "enqueue_failed")
		}

		slog.ErrorContext(ctx, "embedding: enqueue failed", "event_id", event.ID, "feedback_id", record.ID, "error", err)

		return
	}

	slog.DebugContext(ctx, "embedding: job enqueued", "event_id", event.ID, "feedback_id", record.ID)

	if p.metrics != nil {
		p.metrics.RecordJobsEnqueued(ctx, 1)
	}
}

// NotificationProvider enqueues one feedback_notification job per created record.
type NotificationProvider struct {
	inserter    JobInserter
	maxAttempts int
	metrics     observability.NotificationMetrics
}

// NewNotificationProvider creates the provider. metrics may be nil.
func NewNotificationProvider(
	inserter JobInserter, maxAttempts int, metrics observability.NotificationMetrics,
) *NotificationProvider {
	return &NotificationProvider{inserter: inserter, maxAttempts: maxAttempts, metrics: metrics}
}

// PublishEvent implements eventPublisher.
func (p *NotificationProvider) PublishEvent(ctx context.Context, event Event) {
	record, ok := createdRecord(ctx, event)
	if !ok {
		return
	}

	_, err := p.inserter.Insert(ctx, FeedbackNotificationArgs{FeedbackID: record.ID}, &river.InsertOpts{
		Queue:       NotificationsQueueName,
		MaxAttempts: p.maxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: uniqueByPeriod},
	})
	if err != nil {
		slog.ErrorContext(ctx, "notification: enqueue failed", "event_id", event.ID, "feedback_id", record.ID, "error", err)

		return
	}

	slog.DebugContext(ctx, "notification: job enqueued", "event_id", event.ID, "feedback_id", record.ID)

	if p.metrics != nil {
		p.metrics.RecordJobsEnqueued(ctx, 1)
	}
}
