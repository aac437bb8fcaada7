// Package evaluator turns alert rules and a metrics snapshot into
// per-rule results. Evaluation is fault-isolated: one misbehaving rule
// is logged and skipped, never aborting the batch.
package evaluator

import (
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"sentinel-go/internal/domain"
)

// trendCapacity bounds the per-rule rolling history of aggregated values.
const trendCapacity = 100

// Evaluator applies rule threshold logic to metric snapshots. It keeps a
// bounded rolling history of aggregated values per rule for trend
// queries, independent of whether the rule triggered.
type Evaluator struct {
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	trends map[string][]float64
}

// New creates an evaluator. The clock is injectable so window filtering
// is deterministic under test.
func New(clk clock.Clock, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		clock:  clk,
		logger: logger,
		trends: make(map[string][]float64),
	}
}

// Evaluate checks every rule against the snapshot and returns one result
// per successfully evaluated rule. A rule that panics during evaluation
// contributes no result; the remaining rules still run.
func (e *Evaluator) Evaluate(rules []domain.AlertRule, metrics domain.MetricsData) []domain.AlertResult {
	now := e.clock.Now().UnixMilli()

	results := make([]domain.AlertResult, 0, len(rules))
	for _, rule := range rules {
		result, ok := e.evaluateRule(rule, metrics, now)
		if ok {
			results = append(results, result)
		}
	}
	return results
}

// evaluateRule runs a single rule with panic isolation. The second
// return value is false when the rule failed and should be skipped.
func (e *Evaluator) evaluateRule(rule domain.AlertRule, metrics domain.MetricsData, now int64) (result domain.AlertResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule evaluation failed",
				"ruleID", rule.ID,
				"metric", rule.MetricName,
				"panic", r,
			)
			ok = false
		}
	}()

	samples := selectSamples(metrics[rule.MetricName], rule, now)

	// Sample-sufficiency gate: too few observations means no verdict,
	// not a triggered alert.
	if rule.MinSamples > 0 && len(samples) < rule.MinSamples {
		return domain.AlertResult{Rule: rule, Triggered: false, CurrentValue: 0}, true
	}

	value := aggregate(rule.MetricName, samples)
	e.recordTrend(rule.ID, value)

	result = domain.AlertResult{
		Rule:         rule,
		Triggered:    CheckThreshold(value, rule.Condition, rule.Threshold),
		CurrentValue: value,
	}
	if result.Triggered {
		alert := domain.NewTriggeredAlert(rule, value, now)
		result.Alert = &alert
	}
	return result, true
}

// selectSamples filters a series by the rule's label matcher and, when a
// window is configured, by sample age.
func selectSamples(series []domain.MetricSample, rule domain.AlertRule, now int64) []domain.MetricSample {
	cutoff := int64(-1)
	if rule.WindowMs > 0 {
		cutoff = now - rule.WindowMs
	}

	selected := make([]domain.MetricSample, 0, len(series))
	for _, s := range series {
		if len(rule.MetricLabels) > 0 && !s.MatchesLabels(rule.MetricLabels) {
			continue
		}
		if cutoff >= 0 && s.Timestamp < cutoff {
			continue
		}
		selected = append(selected, s)
	}
	return selected
}

// recordTrend appends an aggregated value to the rule's rolling history,
// dropping the oldest value once the cap is reached.
func (e *Evaluator) recordTrend(ruleID string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	trend := append(e.trends[ruleID], value)
	if len(trend) > trendCapacity {
		trend = trend[len(trend)-trendCapacity:]
	}
	e.trends[ruleID] = trend
}

// Trend returns a copy of the rolling aggregated-value history for a
// rule, oldest first. Returns an empty slice for unknown rules.
func (e *Evaluator) Trend(ruleID string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	trend := e.trends[ruleID]
	out := make([]float64, len(trend))
	copy(out, trend)
	return out
}
