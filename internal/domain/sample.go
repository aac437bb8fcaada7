package domain

// MetricSample is a single observation of a metric series. Samples are
// produced by the external collector and are immutable once created.
type MetricSample struct {
	// Value is the observed measurement.
	Value float64 `json:"value"`

	// Labels carries dimension values attached to the observation,
	// e.g. {"status": "success"} or {"le": "0.5"}.
	Labels map[string]string `json:"labels,omitempty"`

	// Timestamp is the observation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Label returns the value of the named label and whether it was present.
func (s MetricSample) Label(key string) (string, bool) {
	v, ok := s.Labels[key]
	return v, ok
}

// MatchesLabels reports whether the sample carries every key/value pair
// in want. An empty or nil want matches any sample.
func (s MetricSample) MatchesLabels(want map[string]string) bool {
	for k, v := range want {
		if s.Labels[k] != v {
			return false
		}
	}
	return true
}

// MetricsData is a snapshot of all collected metric series, keyed by
// series name. Sample slices are ordered as delivered by the collector.
type MetricsData map[string][]MetricSample
