// Package observability provides OpenTelemetry metrics, tracing and log correlation for the feedback API.
package observability

import (
	"github.com/formbricks/feedback-pulse/internal/datatypes"
)

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameEventsDiscarded          = "feedback_events_discarded_total"
	MetricNameFanOutDuration           = "feedback_message_publisher_fan_out_duration_seconds"
	MetricNameEventChannelDepth        = "feedback_event_channel_depth"
	MetricNameRequestsRejected         = "feedback_http_requests_rejected_total"
	MetricNameCacheLookups             = "feedback_cache_lookups_total"
	MetricNameEmbeddingJobsEnqueued    = "feedback_embedding_jobs_enqueued_total"
	MetricNameEmbeddingProviderErrors  = "feedback_embedding_provider_errors_total"
	MetricNameEmbeddingOutcomes        = "feedback_embedding_outcomes_total"
	MetricNameEmbeddingWorkerErrors    = "feedback_embedding_worker_errors_total"
	MetricNameEmbeddingDuration        = "feedback_embedding_duration_seconds"
	MetricNameSimilarityLookups        = "feedback_similarity_lookups_total"
	MetricNameSimilarityResults        = "feedback_similarity_results"
	MetricNameSimilarityDuration       = "feedback_similarity_duration_seconds"
	MetricNameBackfillItems            = "feedback_backfill_items_total"
	MetricNameBackfillDuration         = "feedback_backfill_duration_seconds"
	MetricNameNotificationJobsEnqueued = "feedback_notification_jobs_enqueued_total"
	MetricNameUrgencyLevels            = "feedback_urgency_levels_total"
	MetricNameNotificationDeliveries   = "feedback_notification_deliveries_total"
	MetricNameNotificationDuration     = "feedback_notification_delivery_duration_seconds"
)

// Attribute keys.
const (
	AttrEventType = "event_type"
	AttrReason    = "reason"
	AttrStatus    = "status"
	AttrLevel     = "level"
	AttrCache     = "cache"
	AttrResult    = "result"
)

// AllowedRejectionReason for feedback_http_requests_rejected_total.
var AllowedRejectionReason = map[string]bool{
	"body_too_large": true,
	"unauthorized":   true,
}

// AllowedEmbeddingProviderReason for feedback_embedding_provider_errors_total.
var AllowedEmbeddingProviderReason = map[string]bool{
	"enqueue_failed": true,
}

// AllowedEmbeddingWorkerReason for feedback_embedding_worker_errors_total.
var AllowedEmbeddingWorkerReason = map[string]bool{
	"get_feedback_failed": true,
	"embedding_failed":    true,
	"upsert_failed":       true,
}

// allowedEmbeddingOutcome for feedback_embedding_outcomes_total and feedback_embedding_duration_seconds.
var allowedEmbeddingOutcome = map[string]bool{
	"success":      true,
	"skipped":      true,
	"retry":        true,
	"failed_final": true,
}

// AllowedSimilarityStatus for feedback_similarity_lookups_total.
var AllowedSimilarityStatus = map[string]bool{
	"ok":               true,
	"empty":            true,
	"not_found":        true,
	"embedding_failed": true,
	"query_failed":     true,
	"hydrate_failed":   true,
}

// AllowedBackfillStatus for feedback_backfill_items_total.
var AllowedBackfillStatus = map[string]bool{
	"processed": true,
	"error":     true,
}

// AllowedDeliveryStatuses for feedback_notification_deliveries_total.
var AllowedDeliveryStatuses = map[string]bool{
	"sent":           true,
	"skipped":        true,
	"not_configured": true,
	"retry":          true,
	"failed_final":   true,
}

// NormalizeEventType returns eventType if known, otherwise "unknown".
func NormalizeEventType(eventType string) string {
	if datatypes.IsValidEventType(eventType) {
		return eventType
	}

	return "unknown"
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName bounds the cache label to known caches.
func NormalizeCacheName(name string) string {
	switch name {
	case CacheNameEmbedding:
		return name
	default:
		return "other"
	}
}

// CacheNameEmbedding labels the text-to-embedding cache.
const CacheNameEmbedding = "embedding"

// NormalizeLevel bounds urgency level labels.
func NormalizeLevel(level string) string {
	switch level {
	case "CRITICAL", "HIGH", "NORMAL":
		return level
	default:
		return "other"
	}
}
