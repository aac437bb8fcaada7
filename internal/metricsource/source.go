// Package metricsource defines the contract for pulling metric
// snapshots into the alert manager, with adapters for a prometheus
// Gatherer and a static in-memory source.
package metricsource

import (
	"context"

	"sentinel-go/internal/domain"
)

// MetricSource supplies the metrics snapshot consumed by each
// evaluation cycle. Implementations are external collaborators; the
// manager only requires this capability.
type MetricSource interface {
	// Collect returns the current snapshot of all metric series.
	Collect(ctx context.Context) (domain.MetricsData, error)
}
