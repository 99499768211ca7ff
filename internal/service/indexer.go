package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/formbricks/feedback-pulse/internal/models"
)

// FeedbackIndexer embeds a record's message and upserts the vector under the record id.
// Shared by the embedding worker and the backfill.
type FeedbackIndexer struct {
	embedder EmbeddingClient
	index    VectorIndex
	now      func() time.Time
}

// NewFeedbackIndexer creates an indexer.
func NewFeedbackIndexer(embedder EmbeddingClient, index VectorIndex) *FeedbackIndexer {
	return &FeedbackIndexer{embedder: embedder, index: index, now: time.Now}
}

// VectorID is the vector index key for a feedback id.
func VectorID(feedbackID int64) string {
	return strconv.FormatInt(feedbackID, 10)
}

// Index embeds record.Message and upserts it. Embedding errors keep their huberrors.EmbeddingError
// identity so callers can tell them apart from index errors.
func (i *FeedbackIndexer) Index(ctx context.Context, record *models.FeedbackRecord) error {
	values, err := i.embedder.CreateEmbedding(ctx, record.Message)
	if err != nil {
		return fmt.Errorf("embed feedback %d: %w", record.ID, err)
	}

	md := models.VectorMetadata{
		Source:     record.Source,
		Sentiment:  record.Sentiment,
		EmbeddedAt: i.now().UTC(),
	}

	if err := i.index.Upsert(ctx, VectorID(record.ID), values, md); err != nil {
		return fmt.Errorf("upsert vector %d: %w", record.ID, err)
	}

	return nil
}
