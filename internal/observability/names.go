// Package observability provides OpenTelemetry metrics and tracing for the feed ranking API.
package observability

import (
	"strings"

	"github.com/formbricks/feedrank/internal/models"
)

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount            = "feedrank_http_requests_total"
	MetricNameRequestDuration         = "feedrank_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge     = "feedrank_http_request_body_too_large_total"
	MetricNameRankingRuns             = "feedrank_ranking_runs_total"
	MetricNameRankingDuration         = "feedrank_ranking_duration_seconds"
	MetricNameRankedItems             = "feedrank_ranked_items_total"
	MetricNameFeedbackSubmitted       = "feedrank_feedback_submitted_total"
	MetricNameNotificationsSent       = "feedrank_notifications_total"
	MetricNameIndexVectors            = "feedrank_index_vectors"
	MetricNameIndexRebuildDuration    = "feedrank_index_rebuild_duration_seconds"
	MetricNameRiverQueueDepth         = "feedrank_river_queue_depth"
	MetricNameEmbeddingRequests       = "feedrank_embedding_requests_total"
	MetricNameEmbeddingDuration       = "feedrank_embedding_duration_seconds"
	MetricNameEmbeddingJobsEnqueued   = "feedrank_embedding_jobs_enqueued_total"
	MetricNameEmbeddingWorkerErrors   = "feedrank_embedding_worker_errors_total"
	MetricNameEmbeddingOutcomes       = "feedrank_embedding_outcomes_total"
	MetricNameConnectorItemsFetched   = "feedrank_connector_items_fetched_total"
	MetricNameConnectorFetchFailures  = "feedrank_connector_fetch_failures_total"
	MetricNameCacheHits               = "feedrank_cache_hits_total"
	MetricNameCacheMisses             = "feedrank_cache_misses_total"
	MetricNameCacheEvictions          = "feedrank_cache_evictions_total"
)

// Attribute keys.
const (
	AttrReason       = "reason"
	AttrStatus       = "status"
	AttrTier         = "tier"
	AttrMode         = "mode"
	AttrFeedbackType = "feedback_type"
	AttrChannel      = "channel"
	AttrConnector    = "connector"
)

// AllowedEmbeddingTiers for feedrank_embedding_requests_total.
var AllowedEmbeddingTiers = map[string]bool{
	"local":       true,
	"remote":      true,
	"unavailable": true,
}

// AllowedEmbeddingWorkerReason for feedrank_embedding_worker_errors_total.
var AllowedEmbeddingWorkerReason = map[string]bool{
	"get_item_failed":   true,
	"embed_failed":      true,
	"update_failed":     true,
	"index_add_failed":  true,
	"rate_limit_failed": true,
}

// AllowedNotificationStatuses for feedrank_notifications_total.
var AllowedNotificationStatuses = map[string]bool{
	"sent":   true,
	"failed": true,
}

// AllowedCacheNames for the cache hit/miss counters.
var AllowedCacheNames = map[string]bool{
	"embedding_text": true,
	"keyword_vector": true,
}

// AllowedEmbeddingOutcomeStatus reports whether status is a known embedding job outcome.
func AllowedEmbeddingOutcomeStatus(status string) bool {
	switch status {
	case "success", "skipped", "failed", "failed_final":
		return true
	default:
		return false
	}
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeFeedbackType returns feedbackType if it is a known feedback type, otherwise "unknown".
func NormalizeFeedbackType(feedbackType string) string {
	if models.IsValidFeedbackType(feedbackType) {
		return feedbackType
	}

	return "unknown"
}

// NormalizeCacheName returns name if allowed, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// NormalizeTier lowercases tier and maps anything unexpected to "other".
func NormalizeTier(tier string) string {
	return NormalizeReason(strings.ToLower(tier), AllowedEmbeddingTiers)
}

// rankingMode returns the bounded mode label for a ranking run.
func rankingMode(degraded bool) string {
	if degraded {
		return "degraded"
	}

	return "normal"
}
