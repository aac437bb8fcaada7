// Package domain contains the core business entities and value objects for
// Sentinel. These models represent the ubiquitous language of the pipeline
// monitoring domain: rules, metric samples, triggered alerts, and the alert
// lifecycle history.
package domain

import (
	"errors"
)

// Severity represents the urgency level of an alert rule.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the severity, info being lowest.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// Condition is the comparison operator applied between the aggregated
// metric value and the rule threshold.
type Condition string

const (
	ConditionGT  Condition = "gt"
	ConditionGTE Condition = "gte"
	ConditionLT  Condition = "lt"
	ConditionLTE Condition = "lte"
	ConditionEQ  Condition = "eq"
	ConditionNEQ Condition = "neq"
)

// IsValid returns true if the condition is a known comparison operator.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGT, ConditionGTE, ConditionLT, ConditionLTE, ConditionEQ, ConditionNEQ:
		return true
	default:
		return false
	}
}

// Symbol returns the mathematical symbol for the condition, used when
// rendering alert messages. Unknown conditions render as "?".
func (c Condition) Symbol() string {
	switch c {
	case ConditionGT:
		return ">"
	case ConditionGTE:
		return ">="
	case ConditionLT:
		return "<"
	case ConditionLTE:
		return "<="
	case ConditionEQ:
		return "=="
	case ConditionNEQ:
		return "!="
	default:
		return "?"
	}
}

// AlertRule describes what to monitor: a metric series, an aggregation
// window, a threshold comparison, and a severity. Rules are configuration;
// they can be added or replaced at any time and take effect on the next
// evaluation cycle.
type AlertRule struct {
	// ID uniquely identifies the rule. Adding a rule with an existing ID
	// replaces the previous definition.
	ID string `json:"id"`

	// Name is a short human-readable title used in alert messages.
	Name string `json:"name"`

	// Description explains what the rule watches and why it matters.
	Description string `json:"description,omitempty"`

	// MetricName is the series key looked up in the collected metrics.
	// It is treated as opaque; collectors may expose selector-style keys
	// such as "mobigen_validation_total{status=failed}".
	MetricName string `json:"metric_name"`

	// MetricLabels, when set, restricts evaluation to samples whose labels
	// match every listed key/value exactly.
	MetricLabels map[string]string `json:"metric_labels,omitempty"`

	// Condition is the comparison operator against Threshold.
	Condition Condition `json:"condition"`

	// Threshold is the boundary value the aggregated metric is compared to.
	Threshold float64 `json:"threshold"`

	// Severity indicates how urgent a breach of this rule is.
	Severity Severity `json:"severity"`

	// WindowMs, when > 0, limits evaluation to samples newer than
	// now - WindowMs milliseconds.
	WindowMs int64 `json:"window_ms,omitempty"`

	// MinSamples, when > 0, is the minimum number of matching samples
	// required before the rule is allowed to trigger. Guards against
	// false positives on sparse metrics.
	MinSamples int `json:"min_samples,omitempty"`

	// RunbookURL links to remediation documentation for responders.
	RunbookURL string `json:"runbook_url,omitempty"`

	// Tags are free-form labels for grouping and filtering rules.
	Tags []string `json:"tags,omitempty"`
}

// Validation errors for AlertRule.
var (
	ErrEmptyRuleID      = errors.New("rule id is required")
	ErrEmptyRuleName    = errors.New("rule name is required")
	ErrEmptyMetricName  = errors.New("metric_name is required")
	ErrInvalidCondition = errors.New("condition must be one of gt, gte, lt, lte, eq, neq")
	ErrInvalidSeverity  = errors.New("severity must be 'info', 'warning', or 'critical'")
)

// Validate checks that the rule has all required fields with valid values.
// Returns an error describing the first validation failure, or nil if valid.
func (r *AlertRule) Validate() error {
	if r.ID == "" {
		return ErrEmptyRuleID
	}
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if r.MetricName == "" {
		return ErrEmptyMetricName
	}
	if !r.Condition.IsValid() {
		return ErrInvalidCondition
	}
	if !r.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	return nil
}
