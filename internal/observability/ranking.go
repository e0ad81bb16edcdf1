package observability

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RankingMetrics records ranking runs, feedback, notifications and the similarity index.
type RankingMetrics interface {
	RecordRanking(ctx context.Context, items int, degraded bool, duration time.Duration)
	RecordFeedback(ctx context.Context, feedbackType string)
	RecordNotification(ctx context.Context, channel, status string)
	RecordIndexRebuild(ctx context.Context, duration time.Duration)
	SetIndexVectors(n int)
	SetRiverQueueDepth(depth int)
}

type rankingMetrics struct {
	runs            metric.Int64Counter
	rankedItems     metric.Int64Counter
	duration        metric.Float64Histogram
	feedback        metric.Int64Counter
	notifications   metric.Int64Counter
	rebuildDuration metric.Float64Histogram
	indexVectors    atomic.Int64
	riverQueueDepth atomic.Int64
}

// NewRankingMetrics creates RankingMetrics and registers the gauges.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewRankingMetrics(meter metric.Meter) (RankingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	m := &rankingMetrics{}

	var err error

	m.runs, err = meter.Int64Counter(
		MetricNameRankingRuns,
		metric.WithDescription("Ranking runs by mode (normal, degraded)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ranking runs counter: %w", err)
	}

	m.rankedItems, err = meter.Int64Counter(
		MetricNameRankedItems,
		metric.WithDescription("Items scored across all ranking runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ranked items counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		MetricNameRankingDuration,
		metric.WithDescription("Time to score and sort one batch (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ranking duration histogram: %w", err)
	}

	m.feedback, err = meter.Int64Counter(
		MetricNameFeedbackSubmitted,
		metric.WithDescription("Feedback events accepted, by feedback type"),
	)
	if err != nil {
		return nil, fmt.Errorf("create feedback counter: %w", err)
	}

	m.notifications, err = meter.Int64Counter(
		MetricNameNotificationsSent,
		metric.WithDescription("High-score notifications by channel and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notifications counter: %w", err)
	}

	m.rebuildDuration, err = meter.Float64Histogram(
		MetricNameIndexRebuildDuration,
		metric.WithDescription("Similarity index rebuild duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create index rebuild histogram: %w", err)
	}

	_, err = meter.Int64ObservableGauge(
		MetricNameIndexVectors,
		metric.WithDescription("Vectors currently held by the similarity index"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.indexVectors.Load())

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create index vectors gauge: %w", err)
	}

	_, err = meter.Int64ObservableGauge(
		MetricNameRiverQueueDepth,
		metric.WithDescription("Current River job queue depth (available/retryable/scheduled)"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.riverQueueDepth.Load())

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create river queue depth gauge: %w", err)
	}

	return m, nil
}

func (m *rankingMetrics) RecordRanking(ctx context.Context, items int, degraded bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrMode, rankingMode(degraded)))
	m.runs.Add(ctx, 1, attrs)
	m.rankedItems.Add(ctx, int64(items), attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

func (m *rankingMetrics) RecordFeedback(ctx context.Context, feedbackType string) {
	m.feedback.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrFeedbackType, NormalizeFeedbackType(feedbackType))))
}

func (m *rankingMetrics) RecordNotification(ctx context.Context, channel, status string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrChannel, channel),
		attribute.String(AttrStatus, NormalizeReason(status, AllowedNotificationStatuses)),
	))
}

func (m *rankingMetrics) RecordIndexRebuild(ctx context.Context, duration time.Duration) {
	m.rebuildDuration.Record(ctx, duration.Seconds())
}

func (m *rankingMetrics) SetIndexVectors(n int) {
	m.indexVectors.Store(int64(n))
}

func (m *rankingMetrics) SetRiverQueueDepth(depth int) {
	m.riverQueueDepth.Store(int64(depth))
}
