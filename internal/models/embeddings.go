package models

import "time"

// VectorMetadata is the informational snapshot stored next to a vector.
// The relational row stays authoritative for source and sentiment.
type VectorMetadata struct {
	Source     string    `json:"source"`
	Sentiment  Sentiment `json:"sentiment"`
	EmbeddedAt time.Time `json:"embeddedAt"`
}

// VectorMatch is a single nearest-neighbour hit. Score is cosine similarity, higher is closer.
type VectorMatch struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Metadata *VectorMetadata `json:"metadata,omitempty"`
}

// VectorQueryOptions controls a nearest-neighbour query.
type VectorQueryOptions struct {
	TopK           int
	ReturnMetadata bool
}

// SimilarityScore pairs a similar record id with its score.
type SimilarityScore struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SimilarFeedbackQuery is the query string of GET /api/similar-feedback.
type SimilarFeedbackQuery struct {
	ID string `form:"id" validate:"required,numeric,no_null_bytes"`
}

// SimilarFeedbackResult is the body of GET /api/similar-feedback.
// Similar and Scores are parallel: Scores[i] belongs to Similar[i].
type SimilarFeedbackResult struct {
	Original FeedbackRecord    `json:"original"`
	Similar  []FeedbackRecord  `json:"similar"`
	Scores   []SimilarityScore `json:"scores"`
}

// BackfillResult reports a backfill run. Processed + Errors == Total.
type BackfillResult struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Errors    int  `json:"errors"`
	Total     int  `json:"total"`
}
