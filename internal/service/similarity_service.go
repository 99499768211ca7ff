package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
)

const (
	// DefaultSimilarLimit is the maximum number of similar records returned.
	DefaultSimilarLimit = 5
	// DefaultMinSimilarityScore is the minimum cosine similarity a match must reach.
	DefaultMinSimilarityScore = 0.6
)

// SimilarityService finds feedback semantically close to a given record.
type SimilarityService struct {
	repo     FeedbackRepository
	embedder EmbeddingClient
	index    VectorIndex
	limit    int
	minScore float64
	metrics  observability.SimilarityMetrics
	logger   *slog.Logger
}

// SimilarityServiceParams configures SimilarityService. A zero Limit and a nil MinScore take the
// defaults; any MinScore in [-1, 1], including 0, is used as given. Metrics and Logger may be nil.
type SimilarityServiceParams struct {
	Repo     FeedbackRepository
	Embedder EmbeddingClient
	Index    VectorIndex
	Limit    int
	MinScore *float64
	Metrics  observability.SimilarityMetrics
	Logger   *slog.Logger
}

// NewSimilarityService creates a SimilarityService.
func NewSimilarityService(p SimilarityServiceParams) *SimilarityService {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	minScore := DefaultMinSimilarityScore
	if p.MinScore != nil {
		minScore = *p.MinScore
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SimilarityService{
		repo:     p.Repo,
		embedder: p.Embedder,
		index:    p.Index,
		limit:    limit,
		minScore: minScore,
		metrics:  p.Metrics,
		logger:   logger,
	}
}

// FindSimilar returns up to limit records whose embedding scores at least minScore against the
// record's freshly computed embedding, best first. The record itself is never included.
// Index entries whose row no longer exists are dropped, so Similar and Scores stay parallel.
func (s *SimilarityService) FindSimilar(ctx context.Context, feedbackID int64) (*models.SimilarFeedbackResult, error) {
	ctx, span := observability.StartSpan(ctx, "similarity.find", attribute.Int64("feedback.id", feedbackID))
	start := time.Now()

	result, status, err := s.findSimilar(ctx, feedbackID)

	span.SetAttributes(attribute.String("similarity.status", status))
	observability.EndSpan(span, err)

	if s.metrics != nil {
		s.metrics.RecordLookup(ctx, status, time.Since(start))

		if err == nil {
			s.metrics.RecordResultCount(ctx, len(result.Similar))
		}
	}

	return result, err
}

func (s *SimilarityService) findSimilar(
	ctx context.Context, feedbackID int64,
) (*models.SimilarFeedbackResult, string, error) {
	original, err := s.repo.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, huberrors.ErrNotFound) {
			//nolint:wrapcheck // return as-is so the handler maps it to 404
			return nil, "not_found", err
		}

		return nil, "hydrate_failed", fmt.Errorf("get feedback: %w", err)
	}

	vector, err := s.embedder.CreateEmbedding(ctx, original.Message)
	if err != nil {
		s.logger.ErrorContext(ctx, "similar feedback: embedding failed", "feedback_id", feedbackID, "error", err)

		return nil, "embedding_failed", fmt.Errorf("embed original: %w", err)
	}

	matches, err := s.index.Query(ctx, vector, models.VectorQueryOptions{TopK: s.limit + 1, ReturnMetadata: true})
	if err != nil {
		s.logger.ErrorContext(ctx, "similar feedback: index query failed", "feedback_id", feedbackID, "error", err)

		return nil, "query_failed", fmt.Errorf("query vector index: %w", err)
	}

	matches = FilterMatches(matches, VectorID(feedbackID), s.minScore, s.limit)

	result := &models.SimilarFeedbackResult{
		Original: *original,
		Similar:  []models.FeedbackRecord{},
		Scores:   []models.SimilarityScore{},
	}

	if len(matches) == 0 {
		return result, "empty", nil
	}

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m.ID, 10, 64)
		if err != nil {
			s.logger.WarnContext(ctx, "similar feedback: skipping non-numeric vector id", "vector_id", m.ID)

			continue
		}

		ids = append(ids, id)
	}

	records, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, "hydrate_failed", fmt.Errorf("hydrate similar feedback: %w", err)
	}

	byID := make(map[string]models.FeedbackRecord, len(records))
	for _, r := range records {
		byID[VectorID(r.ID)] = r
	}

	for _, m := range matches {
		record, ok := byID[m.ID]
		if !ok {
			s.logger.DebugContext(ctx, "similar feedback: stale vector entry", "vector_id", m.ID)

			continue
		}

		result.Similar = append(result.Similar, record)
		result.Scores = append(result.Scores, models.SimilarityScore{ID: m.ID, Score: m.Score})
	}

	if len(result.Similar) == 0 {
		return result, "empty", nil
	}

	return result, "ok", nil
}

// FilterMatches drops the match for selfID and every match scoring below minScore, then keeps at most
// limit matches. Input order (best first) is preserved.
func FilterMatches(matches []models.VectorMatch, selfID string, minScore float64, limit int) []models.VectorMatch {
	out := make([]models.VectorMatch, 0, min(len(matches), limit))

	for _, m := range matches {
		if m.ID == selfID || m.Score < minScore {
			continue
		}

		out = append(out, m)
		if len(out) == limit {
			break
		}
	}

	return out
}
