package domain

const (
	minute int64 = 60_000
)

// DefaultRules returns the built-in rule set for the mobigen pipeline.
// Other tooling depends on these exact ids, thresholds, and windows, so
// they are part of the configuration contract and must not drift.
func DefaultRules() []AlertRule {
	return []AlertRule{
		{
			ID:          "validation_success_low",
			Name:        "Validation success rate low",
			Description: "Share of successful validations dropped below 95%",
			MetricName:  "mobigen_validation_total",
			Condition:   ConditionLT,
			Threshold:   0.95,
			Severity:    SeverityCritical,
			WindowMs:    5 * minute,
			MinSamples:  10,
		},
		{
			ID:          "autofix_failure_high",
			Name:        "Autofix failure rate high",
			Description: "More than 20% of validations needed manual intervention",
			MetricName:  "mobigen_validation_total{status=failed}",
			Condition:   ConditionGT,
			Threshold:   0.2,
			Severity:    SeverityWarning,
			WindowMs:    10 * minute,
			MinSamples:  5,
		},
		{
			ID:          "validation_slow",
			Name:        "Validation latency high",
			Description: "P95 validation duration exceeded 60 seconds",
			MetricName:  "mobigen_validation_duration_seconds",
			Condition:   ConditionGT,
			Threshold:   60,
			Severity:    SeverityWarning,
			WindowMs:    15 * minute,
			MinSamples:  20,
		},
		{
			ID:          "retry_exhausted",
			Name:        "Retry budget exhausted",
			Description: "More than 5% of validations ran out of retries",
			MetricName:  "mobigen_validation_total{status=retry_exhausted}",
			Condition:   ConditionGT,
			Threshold:   0.05,
			Severity:    SeverityCritical,
			WindowMs:    5 * minute,
			MinSamples:  20,
		},
		{
			ID:          "generation_success_low",
			Name:        "Generation success rate low",
			Description: "Share of successful generations dropped below 90%",
			MetricName:  "mobigen_generation_total",
			Condition:   ConditionLT,
			Threshold:   0.9,
			Severity:    SeverityCritical,
			WindowMs:    10 * minute,
			MinSamples:  10,
		},
		{
			ID:          "build_success_low",
			Name:        "Build success rate low",
			Description: "Share of successful builds dropped below 99%",
			MetricName:  "mobigen_build_total",
			Condition:   ConditionLT,
			Threshold:   0.99,
			Severity:    SeverityCritical,
			WindowMs:    15 * minute,
			MinSamples:  5,
		},
		{
			ID:          "api_error_rate_high",
			Name:        "API error rate high",
			Description: "More than 1% of API requests returned 5xx",
			MetricName:  "mobigen_api_request_total{status=5xx}",
			Condition:   ConditionGT,
			Threshold:   0.01,
			Severity:    SeverityWarning,
			WindowMs:    5 * minute,
			MinSamples:  100,
		},
		{
			ID:          "queue_size_high",
			Name:        "Queue backlog high",
			Description: "More than 100 jobs waiting in the pending queue",
			MetricName:  "mobigen_queue_size{status=pending}",
			Condition:   ConditionGT,
			Threshold:   100,
			Severity:    SeverityWarning,
			WindowMs:    5 * minute,
		},
		{
			ID:          "circuit_breaker_open",
			Name:        "Circuit breaker open",
			Description: "The pipeline circuit breaker tripped open",
			MetricName:  "mobigen_circuit_breaker_state",
			Condition:   ConditionEQ,
			Threshold:   2,
			Severity:    SeverityCritical,
		},
	}
}
