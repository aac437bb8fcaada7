package domain

import (
	"time"
)

// EventType classifies a lifecycle transition published on the alert
// event stream.
type EventType string

const (
	// EventTriggered is published when a new alert is recorded.
	EventTriggered EventType = "triggered"
	// EventAcknowledged is published when an operator acknowledges an alert.
	EventAcknowledged EventType = "acknowledged"
	// EventSnoozed is published when an operator snoozes an alert.
	EventSnoozed EventType = "snoozed"
	// EventWoken is published when a snoozed alert reactivates on expiry.
	EventWoken EventType = "woken"
	// EventResolved is published when an alert reaches the terminal state.
	EventResolved EventType = "resolved"
)

// AlertEvent is the payload published to the lifecycle event stream for
// every alert state change. Downstream consumers (dashboards, audit
// trails) subscribe to these; delivery is best-effort and never blocks
// the lifecycle transition itself.
type AlertEvent struct {
	// Type is the lifecycle transition that occurred.
	Type EventType `json:"type"`

	// AlertID identifies the affected alert.
	AlertID string `json:"alert_id"`

	// RuleID identifies the rule that produced the alert.
	RuleID string `json:"rule_id"`

	// Severity is copied from the rule for cheap downstream filtering.
	Severity Severity `json:"severity"`

	// Actor is the operator who caused the transition, when applicable.
	Actor string `json:"actor,omitempty"`

	// OccurredAt is when the transition happened.
	OccurredAt time.Time `json:"occurred_at"`
}
