package service

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	feedbackEmbeddingKind    = "feedback_embedding"
	feedbackNotificationKind = "feedback_notification"

	// EmbeddingsQueueName is the River queue used for feedback embedding jobs.
	EmbeddingsQueueName = "embeddings"
	// NotificationsQueueName is the River queue used for urgency notification jobs.
	NotificationsQueueName = "notifications"

	// Duplicate events for the same record within this window collapse into one job.
	uniqueByPeriod = 24 * time.Hour
)

// JobInserter inserts River jobs (implemented by *river.Client[pgx.Tx]).
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// FeedbackEmbeddingArgs is the job payload for embedding one feedback record and upserting it into
// the vector index.
type FeedbackEmbeddingArgs struct {
	FeedbackID int64 `json:"feedback_id" river:"unique"`
}

// Kind returns the River job kind.
func (FeedbackEmbeddingArgs) Kind() string { return feedbackEmbeddingKind }

// FeedbackNotificationArgs is the job payload for the urgency notification workflow of one record.
type FeedbackNotificationArgs struct {
	FeedbackID int64 `json:"feedback_id" river:"unique"`
}

// Kind returns the River job kind.
func (FeedbackNotificationArgs) Kind() string { return feedbackNotificationKind }

var (
	_ river.JobArgs = FeedbackEmbeddingArgs{}
	_ river.JobArgs = FeedbackNotificationArgs{}
)
