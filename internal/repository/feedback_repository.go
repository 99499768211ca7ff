// Package repository provides data access for feedback, embeddings and workflow checkpoints.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

const feedbackColumns = `id, source, message, timestamp, sentiment, category, author`

// FeedbackRepository handles data access for the feedback table.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores a new record. The database assigns id and timestamp.
func (r *FeedbackRepository) Insert(
	ctx context.Context, req *models.CreateFeedbackRequest, sentiment models.Sentiment,
) (*models.FeedbackRecord, error) {
	query := `
		INSERT INTO feedback (source, message, sentiment, category, author)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + feedbackColumns

	record, err := scanFeedback(r.db.QueryRow(ctx, query,
		req.Source, req.Message, string(sentiment), req.Category, req.Author,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}

	return record, nil
}

// GetByID retrieves a single record.
func (r *FeedbackRepository) GetByID(ctx context.Context, id int64) (*models.FeedbackRecord, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

	record, err := scanFeedback(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("feedback", fmt.Sprintf("feedback %d not found", id))
		}

		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return record, nil
}

// ListAll returns every record, newest first.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]models.FeedbackRecord, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback ORDER BY timestamp DESC, id DESC`)
}

// ListAllByID returns every record in insertion (id) order.
func (r *FeedbackRepository) ListAllByID(ctx context.Context) ([]models.FeedbackRecord, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback ORDER BY id ASC`)
}

// GetByIDs returns the records whose id is in ids, in no particular order.
// Missing ids are silently skipped.
func (r *FeedbackRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.FeedbackRecord, error) {
	if len(ids) == 0 {
		return []models.FeedbackRecord{}, nil
	}

	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id = ANY($1)`, ids)
}

// Count returns the number of stored records.
func (r *FeedbackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	return n, nil
}

// Stats returns per-source and per-sentiment counts plus the total.
func (r *FeedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{
		BySource:    []models.SourceCount{},
		BySentiment: []models.SentimentCount{},
	}

	rows, err := r.db.Query(ctx, `
		SELECT source, COUNT(*) FROM feedback
		GROUP BY source
		ORDER BY COUNT(*) DESC, source ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback by source: %w", err)
	}

	for rows.Next() {
		var sc models.SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			rows.Close()

			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}

		stats.BySource = append(stats.BySource, sc)
		stats.Total += sc.Count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source counts: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT sentiment, COUNT(*) FROM feedback
		GROUP BY sentiment
		ORDER BY COUNT(*) DESC, sentiment ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback by sentiment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sc        models.SentimentCount
			sentiment string
		)

		if err := rows.Scan(&sentiment, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}

		if sc.Sentiment, err = models.ParseSentiment(sentiment); err != nil {
			return nil, fmt.Errorf("sentiment count: %w", err)
		}

		stats.BySentiment = append(stats.BySentiment, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sentiment counts: %w", err)
	}

	return stats, nil
}

func (r *FeedbackRepository) list(ctx context.Context, query string, args ...any) ([]models.FeedbackRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	records := []models.FeedbackRecord{}

	for rows.Next() {
		record, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return records, nil
}

func scanFeedback(row pgx.Row) (*models.FeedbackRecord, error) {
	var (
		record    models.FeedbackRecord
		sentiment string
	)

	if err := row.Scan(
		&record.ID, &record.Source, &record.Message, &record.Timestamp,
		&sentiment, &record.Category, &record.Author,
	); err != nil {
		return nil, err
	}

	parsed, err := models.ParseSentiment(sentiment)
	if err != nil {
		return nil, fmt.Errorf("feedback %d: %w", record.ID, err)
	}

	record.Sentiment = parsed

	return &record, nil
}
