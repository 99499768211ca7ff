package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/internal/workflow"
)

const (
	notificationWorkflowName = "feedback-notification"

	// StepAnalyzeUrgency is the checkpoint name of the urgency step.
	StepAnalyzeUrgency = "analyze-urgency"
	// StepSendNotification is the checkpoint name of the alert delivery step.
	StepSendNotification = "send-slack-notification"

	reasonNoWebhook = "No webhook configured"
)

// UrgencyClassifier assesses how urgently a record needs attention. It never fails.
type UrgencyClassifier interface {
	ClassifyUrgency(ctx context.Context, text string, sentiment models.Sentiment) models.UrgencyAssessment
}

// NotificationWorkflow triages a new record and alerts the team when it is CRITICAL or HIGH.
// Each step is checkpointed per record, so a retried job skips completed steps.
type NotificationWorkflow struct {
	store      workflow.CheckpointStore
	classifier UrgencyClassifier
	sender     AlertSender
	metrics    observability.NotificationMetrics
	logger     *slog.Logger
}

// NewNotificationWorkflow creates the workflow. sender may be nil (no webhook configured);
// metrics and logger may be nil.
func NewNotificationWorkflow(
	store workflow.CheckpointStore, classifier UrgencyClassifier, sender AlertSender,
	metrics observability.NotificationMetrics, logger *slog.Logger,
) *NotificationWorkflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationWorkflow{
		store:      store,
		classifier: classifier,
		sender:     sender,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run drives START → URGENCY_ANALYZED → (NOTIFY_SENT | SKIPPED) → DONE for record. A delivery
// failure is returned so the caller can retry; the urgency checkpoint is reused on the next attempt.
func (w *NotificationWorkflow) Run(ctx context.Context, record *models.FeedbackRecord) (*models.NotificationOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "notification.run", attribute.Int64("feedback.id", record.ID))

	outcome, err := w.run(ctx, record)
	if outcome != nil {
		span.SetAttributes(
			attribute.String("notification.urgency", string(outcome.Urgency.Level)),
			attribute.String("notification.branch", string(outcome.Branch)),
		)
	}

	observability.EndSpan(span, err)

	return outcome, err
}

func (w *NotificationWorkflow) run(ctx context.Context, record *models.FeedbackRecord) (*models.NotificationOutcome, error) {
	run := workflow.NewRun(w.store, notificationWorkflowName, VectorID(record.ID))

	urgency, replayed, err := workflow.Step(ctx, run, StepAnalyzeUrgency,
		func(ctx context.Context) (models.UrgencyAssessment, error) {
			return w.classifier.ClassifyUrgency(ctx, record.Message, record.Sentiment), nil
		})
	if err != nil {
		return nil, fmt.Errorf("notification workflow: %w", err)
	}

	if !replayed && w.metrics != nil {
		w.metrics.RecordUrgency(ctx, string(urgency.Level))
	}

	w.logger.InfoContext(ctx, "notification: urgency analyzed",
		"feedback_id", record.ID, "level", urgency.Level, "confidence", urgency.Confidence, "replayed", replayed)

	outcome := &models.NotificationOutcome{
		State:   models.NotificationDone,
		Branch:  models.NotificationSkipped,
		Urgency: urgency,
	}

	if !urgency.Level.RequiresNotification() {
		if w.metrics != nil {
			w.metrics.RecordDelivery(ctx, "skipped")
		}

		return outcome, nil
	}

	delivery, _, err := workflow.Step(ctx, run, StepSendNotification,
		func(ctx context.Context) (models.DeliveryResult, error) {
			return w.deliver(ctx, record, urgency)
		})
	if err != nil {
		return nil, fmt.Errorf("notification workflow: %w", err)
	}

	outcome.Branch = models.NotificationSent
	outcome.Delivery = &delivery
	outcome.Notified = delivery.Success

	return outcome, nil
}

func (w *NotificationWorkflow) deliver(
	ctx context.Context, record *models.FeedbackRecord, urgency models.UrgencyAssessment,
) (models.DeliveryResult, error) {
	if w.sender == nil {
		w.logger.InfoContext(ctx, "notification: no webhook configured", "feedback_id", record.ID)

		if w.metrics != nil {
			w.metrics.RecordDelivery(ctx, "not_configured")
		}

		return models.DeliveryResult{Success: false, Reason: reasonNoWebhook}, nil
	}

	start := time.Now()
	err := w.sender.Send(ctx, NewAlertPayload(record, urgency))

	if w.metrics != nil {
		status := "sent"
		if err != nil {
			status = "retry"
		}

		w.metrics.RecordDeliveryDuration(ctx, time.Since(start), status)
	}

	if err != nil {
		return models.DeliveryResult{}, fmt.Errorf("deliver alert: %w", err)
	}

	if w.metrics != nil {
		w.metrics.RecordDelivery(ctx, "sent")
	}

	w.logger.InfoContext(ctx, "notification: alert sent", "feedback_id", record.ID, "level", urgency.Level)

	return models.DeliveryResult{Success: true}, nil
}
