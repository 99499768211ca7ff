package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/formbricks/feedback-pulse/internal/models"
)

const (
	// MaxFeatureBatch caps how many messages are sent in one feature-extraction prompt.
	MaxFeatureBatch = 20
	// TopFeatureCount is the number of features returned per polarity.
	TopFeatureCount = 3

	fallbackUrgencyConfidence = 0.5
	fallbackUrgencyCategory   = "general"
	fallbackUrgencyReason     = "Automatic assessment unavailable; level derived from sentiment"
)

const sentimentPrompt = `You classify customer feedback sentiment.
Reply with exactly one word: positive, negative, or neutral.`

const urgencyPrompt = `You triage customer feedback for a support team.
Reply with a single JSON object and nothing else:
{"level": "CRITICAL" | "HIGH" | "NORMAL", "confidence": number between 0 and 1, "reason": short string, "category": short string}
CRITICAL: outages, data loss, security or payment failures affecting the customer now.
HIGH: broken functionality or a customer at risk of churning.
NORMAL: everything else.`

const featurePromptTemplate = `Below are %s customer feedback messages, one per line.
Identify the product features they mention most often.
Reply with a JSON array of at most %d objects {"feature": string, "mentions": integer}, most mentioned first, and nothing else.`

// Classifier labels feedback text using a chat model. Every method degrades to a deterministic
// fallback when the model is unavailable or replies with something unusable.
type Classifier struct {
	llm    CompletionClient
	logger *slog.Logger
}

// NewClassifier creates a Classifier. llm may be nil, in which case every call uses its fallback.
func NewClassifier(llm CompletionClient, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{llm: llm, logger: logger}
}

// ClassifySentiment returns positive, negative or neutral. Upstream errors yield neutral.
func (c *Classifier) ClassifySentiment(ctx context.Context, text string) models.Sentiment {
	if c.llm == nil {
		return models.SentimentNeutral
	}

	reply, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: models.ChatRoleSystem, Content: sentimentPrompt},
		{Role: models.ChatRoleUser, Content: text},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "classifier: sentiment failed, using neutral", "error", err)

		return models.SentimentNeutral
	}

	return NormalizeSentiment(reply)
}

// NormalizeSentiment maps a free-form model reply onto the sentiment set. "positive" is checked first,
// so a reply containing both words is positive.
func NormalizeSentiment(reply string) models.Sentiment {
	r := strings.ToLower(reply)

	switch {
	case strings.Contains(r, "positive"):
		return models.SentimentPositive
	case strings.Contains(r, "negative"):
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// urgencyReply is the wire shape of the urgency prompt's answer.
type urgencyReply struct {
	Level      string   `json:"level"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
	Category   string   `json:"category"`
}

func (r urgencyReply) valid() bool {
	if _, ok := models.ParseUrgencyLevel(r.Level); !ok {
		return false
	}

	return r.Confidence != nil && *r.Confidence >= 0 && *r.Confidence <= 1
}

// FallbackUrgency is the assessment used when the model cannot be consulted or its reply is unusable.
func FallbackUrgency(sentiment models.Sentiment) models.UrgencyAssessment {
	level := models.UrgencyNormal
	if sentiment == models.SentimentNegative {
		level = models.UrgencyHigh
	}

	return models.UrgencyAssessment{
		Level:      level,
		Confidence: fallbackUrgencyConfidence,
		Reason:     fallbackUrgencyReason,
		Category:   fallbackUrgencyCategory,
	}
}

// ClassifyUrgency asks the model for an urgency verdict. It never fails.
func (c *Classifier) ClassifyUrgency(
	ctx context.Context, text string, sentiment models.Sentiment,
) models.UrgencyAssessment {
	fallback := FallbackUrgency(sentiment)
	if c.llm == nil {
		return fallback
	}

	reply, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: models.ChatRoleSystem, Content: urgencyPrompt},
		{Role: models.ChatRoleUser, Content: fmt.Sprintf("Sentiment: %s\nFeedback: %s", sentiment, text)},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "classifier: urgency failed, using fallback", "error", err, "level", fallback.Level)

		return fallback
	}

	parsed := ParseOrDefault(reply, urgencyReply{}, urgencyReply.valid)
	if parsed.Confidence == nil {
		c.logger.WarnContext(ctx, "classifier: urgency reply unusable, using fallback", "level", fallback.Level)

		return fallback
	}

	level, _ := models.ParseUrgencyLevel(parsed.Level)

	category := strings.TrimSpace(parsed.Category)
	if category == "" {
		category = fallbackUrgencyCategory
	}

	return models.UrgencyAssessment{
		Level:      level,
		Confidence: *parsed.Confidence,
		Reason:     strings.TrimSpace(parsed.Reason),
		Category:   category,
	}
}

func validFeatureList(list []models.FeatureMention) bool {
	if len(list) == 0 {
		return false
	}

	for _, f := range list {
		if strings.TrimSpace(f.Feature) == "" || f.Mentions < 0 {
			return false
		}
	}

	return true
}

// ExtractFeatures returns up to TopFeatureCount features mentioned in the first MaxFeatureBatch messages.
// polarity only shapes the prompt. Any model failure falls back to keyword frequency.
func (c *Classifier) ExtractFeatures(
	ctx context.Context, messages []string, polarity models.Sentiment,
) []models.FeatureMention {
	if len(messages) == 0 {
		return []models.FeatureMention{}
	}

	batch := messages[:min(len(messages), MaxFeatureBatch)]

	if c.llm == nil {
		return TopKeywords(batch, TopFeatureCount)
	}

	reply, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: models.ChatRoleSystem, Content: fmt.Sprintf(featurePromptTemplate, polarity, TopFeatureCount)},
		{Role: models.ChatRoleUser, Content: strings.Join(batch, "\n")},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "classifier: feature extraction failed, using keywords", "error", err, "polarity", polarity)

		return TopKeywords(batch, TopFeatureCount)
	}

	features := ParseOrDefault[[]models.FeatureMention](reply, nil, validFeatureList)
	if features == nil {
		c.logger.WarnContext(ctx, "classifier: feature reply unusable, using keywords", "polarity", polarity)

		return TopKeywords(batch, TopFeatureCount)
	}

	if len(features) > TopFeatureCount {
		features = features[:TopFeatureCount]
	}

	return features
}
