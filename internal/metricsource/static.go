package metricsource

import (
	"context"
	"sync"

	"sentinel-go/internal/domain"
)

// Static is an in-memory metric source populated by the caller. It is
// used in tests and in deployments where an external collector pushes
// sample sets directly. Safe for concurrent use.
type Static struct {
	mu   sync.RWMutex
	data domain.MetricsData
}

// NewStatic creates an empty static source.
func NewStatic() *Static {
	return &Static{data: make(domain.MetricsData)}
}

// Set replaces the sample list for a series.
func (s *Static) Set(name string, samples []domain.MetricSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]domain.MetricSample(nil), samples...)
}

// Append adds one sample to a series.
func (s *Static) Append(name string, sample domain.MetricSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append(s.data[name], sample)
}

// Clear removes all series.
func (s *Static) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(domain.MetricsData)
}

// Collect returns a copy of the current snapshot.
func (s *Static) Collect(ctx context.Context) (domain.MetricsData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.MetricsData, len(s.data))
	for name, samples := range s.data {
		out[name] = append([]domain.MetricSample(nil), samples...)
	}
	return out, nil
}
