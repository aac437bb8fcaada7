package domain

import (
	"time"
)

// AlertStatus represents the lifecycle state of a recorded alert.
type AlertStatus string

const (
	// StatusActive indicates the alert needs operator attention.
	StatusActive AlertStatus = "active"
	// StatusAcknowledged indicates an operator has taken ownership.
	StatusAcknowledged AlertStatus = "acknowledged"
	// StatusSnoozed indicates the alert is suppressed until a deadline.
	StatusSnoozed AlertStatus = "snoozed"
	// StatusResolved is the terminal state.
	StatusResolved AlertStatus = "resolved"
)

// IsValid returns true if the status is a known lifecycle state.
func (s AlertStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusSnoozed, StatusResolved:
		return true
	default:
		return false
	}
}

// AlertHistoryEntry tracks the lifecycle of a single triggered alert.
// Exactly one entry exists per alert id; it is mutated only through the
// defined transitions and eventually deleted by retention cleanup.
type AlertHistoryEntry struct {
	// Alert is the immutable triggered-alert record.
	Alert TriggeredAlert `json:"alert"`

	// Status is the current lifecycle state.
	Status AlertStatus `json:"status"`

	// RecordedAt is when the entry was created.
	RecordedAt time.Time `json:"recorded_at"`

	// AcknowledgedAt/By/Note are set by the acknowledge transition.
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy   string     `json:"acknowledged_by,omitempty"`
	AcknowledgedNote string     `json:"acknowledged_note,omitempty"`

	// SnoozedUntil/By are set by the snooze transition. SnoozedUntil is
	// cleared when the snooze expires and the entry reactivates.
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	SnoozedBy    string     `json:"snoozed_by,omitempty"`

	// ResolvedAt and Resolution are set by the terminal resolve transition.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
}

// NewHistoryEntry creates an active entry for a freshly triggered alert.
func NewHistoryEntry(alert TriggeredAlert, now time.Time) *AlertHistoryEntry {
	return &AlertHistoryEntry{
		Alert:      alert,
		Status:     StatusActive,
		RecordedAt: now,
	}
}

// SortOrder controls the direction of history query results.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// HistoryFilter provides compound filtering options for history queries.
// Zero-valued fields are ignored.
type HistoryFilter struct {
	// Statuses limits results to entries in any of the listed states.
	Statuses []AlertStatus

	// Severities limits results to alerts of any of the listed severities.
	Severities []Severity

	// RuleID limits results to alerts produced by one rule.
	RuleID string

	// StartTime/EndTime bound the alert trigger time (Unix milliseconds,
	// inclusive). Zero means unbounded.
	StartTime int64
	EndTime   int64

	// Limit caps the number of returned entries. Zero means no cap.
	Limit int

	// SortOrder orders results by alert trigger time. Defaults to descending.
	SortOrder SortOrder
}

// Statistics summarizes retained history entries by status and severity.
type Statistics struct {
	Total      int                 `json:"total"`
	ByStatus   map[AlertStatus]int `json:"by_status"`
	BySeverity map[Severity]int    `json:"by_severity"`
}

// HistorySnapshot is a full-state export of the history store, used as
// the seam for persistence and restore.
type HistorySnapshot struct {
	// Entries holds every retained history entry.
	Entries []*AlertHistoryEntry `json:"entries"`

	// ExportedAt is when the snapshot was taken.
	ExportedAt time.Time `json:"exported_at"`
}
