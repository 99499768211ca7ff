package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/feedback-pulse/internal/models"
)

// EmbeddingsRepository is a vector index stored in the feedback_embeddings table (pgvector).
type EmbeddingsRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingsRepository creates a new embeddings repository.
func NewEmbeddingsRepository(db *pgxpool.Pool) *EmbeddingsRepository {
	return &EmbeddingsRepository{db: db}
}

// Upsert inserts or replaces the vector and metadata for id.
func (r *EmbeddingsRepository) Upsert(
	ctx context.Context, id string, values []float32, metadata models.VectorMetadata,
) error {
	embeddedAt := metadata.EmbeddedAt
	if embeddedAt.IsZero() {
		embeddedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO feedback_embeddings (id, embedding, source, sentiment, embedded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET embedding = EXCLUDED.embedding, source = EXCLUDED.source,
			sentiment = EXCLUDED.sentiment, embedded_at = EXCLUDED.embedded_at`,
		id, pgvector.NewVector(values), metadata.Source, string(metadata.Sentiment), embeddedAt,
	)
	if err != nil {
		return fmt.Errorf("embeddings upsert: %w", err)
	}

	return nil
}

// Query returns the opts.TopK nearest vectors by cosine distance (<=>); score = 1 - distance.
func (r *EmbeddingsRepository) Query(
	ctx context.Context, values []float32, opts models.VectorQueryOptions,
) ([]models.VectorMatch, error) {
	if opts.TopK <= 0 {
		return []models.VectorMatch{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, (1 - (embedding <=> $1)) AS score, source, sentiment, embedded_at
		FROM feedback_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2`, pgvector.NewVector(values), opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("nearest embeddings: %w", err)
	}
	defer rows.Close()

	matches := []models.VectorMatch{}

	for rows.Next() {
		var (
			m         models.VectorMatch
			md        models.VectorMetadata
			sentiment string
		)

		if err := rows.Scan(&m.ID, &m.Score, &md.Source, &sentiment, &md.EmbeddedAt); err != nil {
			return nil, fmt.Errorf("scan nearest embedding: %w", err)
		}

		if opts.ReturnMetadata {
			md.Sentiment = models.Sentiment(sentiment)
			m.Metadata = &md
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest: %w", err)
	}

	return matches, nil
}
