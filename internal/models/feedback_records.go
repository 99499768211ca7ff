package models

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the closed set of sentiment labels assigned at creation.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// IsValid reports whether s is one of the known sentiment labels.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// ParseSentiment parses a stored sentiment label.
func ParseSentiment(s string) (Sentiment, error) {
	v := Sentiment(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", fmt.Errorf("invalid sentiment: %q", s)
	}

	return v, nil
}

// FeedbackRecord represents a single piece of customer feedback.
type FeedbackRecord struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment Sentiment `json:"sentiment"`
	Category  *string   `json:"category,omitempty"`
	Author    *string   `json:"author,omitempty"`
}

// CreateFeedbackRequest is the body of POST /api/feedback.
// Sentiment is deliberately absent: it is always computed server-side.
type CreateFeedbackRequest struct {
	Source   string  `json:"source" validate:"required,max=255,no_null_bytes"`
	Message  string  `json:"message" validate:"required,max=10000,no_null_bytes"`
	Author   *string `json:"author,omitempty" validate:"omitempty,max=255,no_null_bytes"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=255,no_null_bytes"`
}

// CreateFeedbackResponse is returned after a record has been stored.
type CreateFeedbackResponse struct {
	Success   bool      `json:"success"`
	ID        int64     `json:"id"`
	Sentiment Sentiment `json:"sentiment"`
}

// SourceCount is one row of the per-source breakdown.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// SentimentCount is one row of the per-sentiment breakdown.
type SentimentCount struct {
	Sentiment Sentiment `json:"sentiment"`
	Count     int64     `json:"count"`
}

// FeedbackStats aggregates the feedback table.
type FeedbackStats struct {
	BySource    []SourceCount    `json:"bySource"`
	BySentiment []SentimentCount `json:"bySentiment"`
	Total       int64            `json:"total"`
}

// ListFeedbackResponse is the body of GET /api/feedback.
type ListFeedbackResponse struct {
	Feedback []FeedbackRecord `json:"feedback"`
	Stats    FeedbackStats    `json:"stats"`
}
