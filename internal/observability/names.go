// Package observability provides OpenTelemetry metrics, tracing, and the
// trace-aware slog handler for the assessment API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameAssessments           = "speakpath_assessments_total"
	MetricNameAssessmentDuration    = "speakpath_assessment_duration_seconds"
	MetricNameAssessmentSimilarity  = "speakpath_assessment_similarity"
	MetricNameNoReferenceData       = "speakpath_assessments_no_reference_data_total"
	MetricNameEmbeddingJobsEnqueued = "speakpath_embedding_jobs_enqueued_total"
	MetricNameEmbeddingOutcomes     = "speakpath_embedding_outcomes_total"
	MetricNameEmbeddingWorkerErrors = "speakpath_embedding_worker_errors_total"
	MetricNameEmbeddingDuration     = "speakpath_embedding_duration_seconds"
	MetricNameCacheHits             = "speakpath_cache_hits_total"
	MetricNameCacheMisses           = "speakpath_cache_misses_total"
	MetricNameRequestBodyTooLarge   = "speakpath_request_body_too_large_total"
)

// Attribute keys.
const (
	AttrStatus = "status"
	AttrReason = "reason"
)

// Allowed statuses for speakpath_assessments_total and the duration histogram.
var allowedAssessmentStatuses = map[string]bool{
	"correct":   true,
	"incorrect": true,
	"failed":    true,
}

// Allowed statuses for speakpath_embedding_outcomes_total and the duration histogram.
var allowedEmbeddingStatuses = map[string]bool{
	"success":      true,
	"retry":        true,
	"failed_final": true,
	"skipped":      true,
}

// Allowed reasons for speakpath_embedding_worker_errors_total.
var allowedEmbeddingWorkerReasons = map[string]bool{
	"get_row_failed": true,
	"openai_failed":  true,
	"update_failed":  true,
}

// Cache names allowed as metric attributes (bounded cardinality).
var allowedCacheNames = map[string]bool{
	"reference_answers":         true,
	"retrieval_query_embedding": true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if allowed, otherwise "other".
func NormalizeCacheName(name string) string {
	if allowedCacheNames[name] {
		return name
	}

	return "other"
}
