package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConnectorMetrics records items fetched by source connectors.
type ConnectorMetrics interface {
	RecordItemsFetched(ctx context.Context, connector string, count int)
	RecordFetchFailure(ctx context.Context, connector string)
}

type connectorMetrics struct {
	fetched  metric.Int64Counter
	failures metric.Int64Counter
}

// NewConnectorMetrics creates ConnectorMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewConnectorMetrics(meter metric.Meter) (ConnectorMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	fetched, err := meter.Int64Counter(
		MetricNameConnectorItemsFetched,
		metric.WithDescription("Content items produced by connectors"),
	)
	if err != nil {
		return nil, fmt.Errorf("create connector items counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		MetricNameConnectorFetchFailures,
		metric.WithDescription("Connector fetches that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create connector failures counter: %w", err)
	}

	return &connectorMetrics{fetched: fetched, failures: failures}, nil
}

func (c *connectorMetrics) RecordItemsFetched(ctx context.Context, connector string, count int) {
	c.fetched.Add(ctx, int64(count), metric.WithAttributes(attribute.String(AttrConnector, connector)))
}

func (c *connectorMetrics) RecordFetchFailure(ctx context.Context, connector string) {
	c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrConnector, connector)))
}
