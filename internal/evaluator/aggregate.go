package evaluator

import (
	"sort"
	"strconv"
	"strings"

	"sentinel-go/internal/domain"
)

// Status label vocabularies used for counter-style success ratios.
// These match the values the pipeline emitters use and are a documented
// convention, not auto-detected from metric metadata.
var (
	successStatuses = map[string]struct{}{
		"success":   {},
		"completed": {},
		"ok":        {},
	}
	failureStatuses = map[string]struct{}{
		"failed":          {},
		"error":           {},
		"retry_exhausted": {},
	}
)

// aggregate reduces the selected samples to a single comparable scalar.
// The aggregation is chosen by metric-name convention:
//
//	*_total       counter: success ratio over the status vocabulary
//	*_duration_*  histogram: P95 from cumulative "le" buckets
//	*_size, *_state  gauge: most recent value
//	otherwise     arithmetic mean
func aggregate(metricName string, samples []domain.MetricSample) float64 {
	switch {
	case strings.Contains(metricName, "_total"):
		return successRate(samples)
	case strings.Contains(metricName, "_duration_"):
		return p95FromBuckets(samples)
	case strings.Contains(metricName, "_size"), strings.Contains(metricName, "_state"):
		return latest(samples)
	default:
		return mean(samples)
	}
}

// successRate computes successes / (successes + failures) using the
// status label vocabularies. With zero classified samples the rate
// defaults to 1: silence is not failure, so quiet counters never trip
// an lt rule spuriously.
func successRate(samples []domain.MetricSample) float64 {
	var success, failure float64
	for _, s := range samples {
		status, ok := s.Label("status")
		if !ok {
			continue
		}
		if _, ok := successStatuses[status]; ok {
			success++
			continue
		}
		if _, ok := failureStatuses[status]; ok {
			failure++
		}
	}

	total := success + failure
	if total == 0 {
		return 1
	}
	return success / total
}

// p95FromBuckets extracts histogram bucket boundaries from the "le"
// label and returns the smallest boundary whose cumulative count covers
// at least 95% of observations. Returns 0 with no bucketed samples.
func p95FromBuckets(samples []domain.MetricSample) float64 {
	type bucket struct {
		le    float64
		count float64
	}

	buckets := make([]bucket, 0, len(samples))
	for _, s := range samples {
		raw, ok := s.Label("le")
		if !ok {
			continue
		}
		le, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		buckets = append(buckets, bucket{le: le, count: s.Value})
	}
	if len(buckets) == 0 {
		return 0
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].le < buckets[j].le })

	// Buckets are cumulative; the last one holds the total observation count.
	total := buckets[len(buckets)-1].count
	if total == 0 {
		return 0
	}

	target := total * 0.95
	for _, b := range buckets {
		if b.count >= target {
			return b.le
		}
	}
	return buckets[len(buckets)-1].le
}

// latest returns the value of the most recent sample by timestamp.
func latest(samples []domain.MetricSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	newest := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp >= newest.Timestamp {
			newest = s
		}
	}
	return newest.Value
}

// mean returns the arithmetic mean of the sample values.
func mean(samples []domain.MetricSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples))
}
