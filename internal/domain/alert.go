package domain

import (
	"fmt"
)

// TriggeredAlert is a point-in-time record produced when a rule's
// aggregated value crosses its threshold. The same rule breaching in two
// different cycles yields two distinct alerts; deduplication is an
// operator action (acknowledge), not automatic.
type TriggeredAlert struct {
	// ID is derived deterministically from the rule id and trigger time.
	ID string `json:"id"`

	// Rule is the full rule definition at the moment of triggering.
	Rule AlertRule `json:"rule"`

	// Value is the aggregated metric value that breached the threshold.
	Value float64 `json:"value"`

	// Timestamp is the trigger time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Message is a human-readable summary of the breach.
	Message string `json:"message"`

	// Labels carries optional context copied from the evaluation.
	Labels map[string]string `json:"labels,omitempty"`
}

// NewTriggeredAlert builds an alert for a rule breach at the given time.
// The id is "<ruleID>-<timestamp>" so repeated breaches of one rule in
// distinct cycles produce distinct alerts.
func NewTriggeredAlert(rule AlertRule, value float64, ts int64) TriggeredAlert {
	return TriggeredAlert{
		ID:        fmt.Sprintf("%s-%d", rule.ID, ts),
		Rule:      rule,
		Value:     value,
		Timestamp: ts,
		Message:   fmt.Sprintf("%s: %.2f %s %v", rule.Name, value, rule.Condition.Symbol(), rule.Threshold),
	}
}

// AlertResult is the outcome of evaluating a single rule against one
// metrics snapshot.
type AlertResult struct {
	// Rule is the evaluated rule.
	Rule AlertRule `json:"rule"`

	// Triggered reports whether the aggregated value breached the threshold.
	Triggered bool `json:"triggered"`

	// CurrentValue is the aggregated scalar the threshold was checked
	// against. Zero when the sample-sufficiency gate suppressed evaluation.
	CurrentValue float64 `json:"current_value"`

	// Alert is the synthesized alert record, set only when Triggered.
	Alert *TriggeredAlert `json:"alert,omitempty"`
}
