package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/formbricks/feedback-pulse/internal/datatypes"
	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// FeedbackRepository defines the feedback data access used by the services.
type FeedbackRepository interface {
	Insert(ctx context.Context, req *models.CreateFeedbackRequest, sentiment models.Sentiment) (*models.FeedbackRecord, error)
	GetByID(ctx context.Context, id int64) (*models.FeedbackRecord, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.FeedbackRecord, error)
	ListAll(ctx context.Context) ([]models.FeedbackRecord, error)
	ListAllByID(ctx context.Context) ([]models.FeedbackRecord, error)
	Stats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackService handles creating, listing and analysing feedback.
type FeedbackService struct {
	repo       FeedbackRepository
	classifier *Classifier
	publisher  MessagePublisher
	logger     *slog.Logger
}

// NewFeedbackService creates a FeedbackService. publisher may be nil (no background jobs).
func NewFeedbackService(
	repo FeedbackRepository, classifier *Classifier, publisher MessagePublisher, logger *slog.Logger,
) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedbackService{repo: repo, classifier: classifier, publisher: publisher, logger: logger}
}

// CreateFeedback classifies the message, stores the record and publishes FeedbackCreated so the
// embedding and notification jobs get enqueued. Classification never blocks creation.
func (s *FeedbackService) CreateFeedback(
	ctx context.Context, req *models.CreateFeedbackRequest,
) (*models.FeedbackRecord, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, huberrors.NewValidationError("message", "message must not be blank")
	}

	sentiment := s.classifier.ClassifySentiment(ctx, req.Message)

	record, err := s.repo.Insert(ctx, req, sentiment)
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.InfoContext(ctx, "feedback created",
		"feedback_id", record.ID, "source", record.Source, "sentiment", record.Sentiment)

	if s.publisher != nil {
		s.publisher.PublishEvent(ctx, datatypes.FeedbackCreated, record)
	}

	return record, nil
}

// GetFeedback returns one record; NotFoundError when absent.
func (s *FeedbackService) GetFeedback(ctx context.Context, id int64) (*models.FeedbackRecord, error) {
	//nolint:wrapcheck // NotFoundError must stay identifiable for the handler
	return s.repo.GetByID(ctx, id)
}

// ListFeedback returns every record, newest first, with aggregate counts.
func (s *FeedbackService) ListFeedback(ctx context.Context) (*models.ListFeedbackResponse, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback stats: %w", err)
	}

	return &models.ListFeedbackResponse{Feedback: records, Stats: *stats}, nil
}

// AnalyzeFeatures extracts the most praised features from positive feedback and the most criticised
// from negative feedback. Neutral records count towards AnalyzedCount only.
func (s *FeedbackService) AnalyzeFeatures(ctx context.Context) (*models.FeatureAnalysis, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	var positive, negative []string

	for _, r := range records {
		switch r.Sentiment {
		case models.SentimentPositive:
			positive = append(positive, r.Message)
		case models.SentimentNegative:
			negative = append(negative, r.Message)
		case models.SentimentNeutral:
		}
	}

	out := &models.FeatureAnalysis{
		BestFeatures:  []models.FeatureMention{},
		WorstFeatures: []models.FeatureMention{},
		AnalyzedCount: len(records),
		PositiveCount: len(positive),
		NegativeCount: len(negative),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out.BestFeatures = s.classifier.ExtractFeatures(gctx, positive, models.SentimentPositive)

		return nil
	})
	g.Go(func() error {
		out.WorstFeatures = s.classifier.ExtractFeatures(gctx, negative, models.SentimentNegative)

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	return out, nil
}
