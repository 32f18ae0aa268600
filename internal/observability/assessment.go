package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AssessmentMetrics records assessment pipeline metrics.
// Methods accept ctx for future exemplar support.
type AssessmentMetrics interface {
	RecordAssessment(ctx context.Context, status string)
	RecordAssessmentDuration(ctx context.Context, duration time.Duration, status string)
	RecordSimilarity(ctx context.Context, similarity float64)
	RecordNoReferenceData(ctx context.Context)
}

// assessmentMetrics implements AssessmentMetrics.
type assessmentMetrics struct {
	assessments     metric.Int64Counter
	duration        metric.Float64Histogram
	similarity      metric.Float64Histogram
	noReferenceData metric.Int64Counter
}

// NewAssessmentMetrics creates AssessmentMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewAssessmentMetrics(meter metric.Meter) (AssessmentMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	assessments, err := meter.Int64Counter(
		MetricNameAssessments,
		metric.WithDescription("Total assessments by status (correct, incorrect, failed)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessments counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameAssessmentDuration,
		metric.WithDescription("End-to-end assessment pipeline duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment duration histogram: %w", err)
	}

	similarity, err := meter.Float64Histogram(
		MetricNameAssessmentSimilarity,
		metric.WithDescription("Best-match cosine similarity per assessment"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment similarity histogram: %w", err)
	}

	noReferenceData, err := meter.Int64Counter(
		MetricNameNoReferenceData,
		metric.WithDescription("Total assessments rejected because the question has no reference answers"),
	)
	if err != nil {
		return nil, fmt.Errorf("create no reference data counter: %w", err)
	}

	return &assessmentMetrics{
		assessments:     assessments,
		duration:        duration,
		similarity:      similarity,
		noReferenceData: noReferenceData,
	}, nil
}

func normalizeAssessmentStatus(status string) string {
	if allowedAssessmentStatuses[status] {
		return status
	}

	return "other"
}

func (a *assessmentMetrics) RecordAssessment(ctx context.Context, status string) {
	status = normalizeAssessmentStatus(status)
	a.assessments.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (a *assessmentMetrics) RecordAssessmentDuration(ctx context.Context, duration time.Duration, status string) {
	status = normalizeAssessmentStatus(status)
	a.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (a *assessmentMetrics) RecordSimilarity(ctx context.Context, similarity float64) {
	a.similarity.Record(ctx, similarity)
}

func (a *assessmentMetrics) RecordNoReferenceData(ctx context.Context) {
	a.noReferenceData.Add(ctx, 1)
}
