package metricsource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"sentinel-go/internal/domain"
)

// GathererSource adapts a prometheus Gatherer into a MetricSource.
// Counters and gauges become single samples; histogram buckets become
// cumulative-count samples carrying an "le" label, matching the
// evaluator's P95 convention.
type GathererSource struct {
	gatherer prometheus.Gatherer
	clock    clock.Clock
}

// NewGathererSource wraps a prometheus Gatherer, typically the registry
// the pipeline instruments itself with.
func NewGathererSource(g prometheus.Gatherer, clk clock.Clock) *GathererSource {
	return &GathererSource{gatherer: g, clock: clk}
}

// Collect gathers all metric families and converts them to samples.
func (s *GathererSource) Collect(ctx context.Context) (domain.MetricsData, error) {
	families, err := s.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	now := s.clock.Now().UnixMilli()
	data := make(domain.MetricsData, len(families))
	for _, family := range families {
		name := family.GetName()
		for _, metric := range family.GetMetric() {
			ts := metric.GetTimestampMs()
			if ts == 0 {
				ts = now
			}
			data[name] = append(data[name], convertMetric(family.GetType(), metric, ts)...)
		}
	}
	return data, nil
}

// convertMetric flattens one dto.Metric into samples.
func convertMetric(kind dto.MetricType, metric *dto.Metric, ts int64) []domain.MetricSample {
	labels := labelMap(metric)

	switch kind {
	case dto.MetricType_COUNTER:
		return []domain.MetricSample{{Value: metric.GetCounter().GetValue(), Labels: labels, Timestamp: ts}}
	case dto.MetricType_GAUGE:
		return []domain.MetricSample{{Value: metric.GetGauge().GetValue(), Labels: labels, Timestamp: ts}}
	case dto.MetricType_HISTOGRAM:
		hist := metric.GetHistogram()
		samples := make([]domain.MetricSample, 0, len(hist.GetBucket()))
		for _, bucket := range hist.GetBucket() {
			bucketLabels := make(map[string]string, len(labels)+1)
			for k, v := range labels {
				bucketLabels[k] = v
			}
			bucketLabels["le"] = strconv.FormatFloat(bucket.GetUpperBound(), 'g', -1, 64)
			samples = append(samples, domain.MetricSample{
				Value:     float64(bucket.GetCumulativeCount()),
				Labels:    bucketLabels,
				Timestamp: ts,
			})
		}
		return samples
	case dto.MetricType_UNTYPED:
		return []domain.MetricSample{{Value: metric.GetUntyped().GetValue(), Labels: labels, Timestamp: ts}}
	default:
		return nil
	}
}

func labelMap(metric *dto.Metric) map[string]string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return nil
	}
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}
