// Package metrics provides Prometheus metrics for Sentinel itself:
// evaluation cycles, triggered alerts, notification outcomes, and
// history size. These are about the alerting engine, not the pipeline
// it watches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "sentinel"
)

// Evaluation metrics track the rule evaluation loop.
var (
	// EvaluationCyclesTotal counts evaluation cycles, by what started them.
	EvaluationCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_cycles_total",
			Help:      "Total number of evaluation cycles run",
		},
		[]string{"trigger"}, // trigger: interval, manual
	)

	// EvaluationCyclesSkippedTotal counts cycles skipped by the
	// re-entrancy guard while a prior cycle was still running.
	EvaluationCyclesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_cycles_skipped_total",
			Help:      "Total number of evaluation cycles skipped because one was already running",
		},
	)

	// EvaluationDuration measures how long a full cycle takes,
	// including metric collection.
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a full evaluation cycle in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// RulesEvaluatedTotal counts individual rule evaluations.
	RulesEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_evaluated_total",
			Help:      "Total number of individual rule evaluations",
		},
	)
)

// Alert lifecycle metrics.
var (
	// AlertsTriggeredTotal counts triggered alerts by rule and severity.
	AlertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Total number of alerts triggered",
		},
		[]string{"rule_id", "severity"},
	)

	// ActiveAlerts tracks the current number of active history entries.
	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Current number of active alerts",
		},
	)

	// HistorySize tracks the total number of retained history entries.
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_size",
			Help:      "Current number of retained alert history entries",
		},
	)

	// SnoozesWokenTotal counts snoozed alerts reactivated on expiry.
	SnoozesWokenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snoozes_woken_total",
			Help:      "Total number of snoozed alerts reactivated after expiry",
		},
	)

	// CleanupRemovedTotal counts resolved entries removed by retention cleanup.
	CleanupRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_removed_total",
			Help:      "Total number of resolved entries removed by retention cleanup",
		},
	)
)

// Notification metrics track the dispatch fan-out.
var (
	// NotificationsSentTotal counts channel dispatches by outcome.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notification dispatches",
		},
		[]string{"channel", "status"}, // status: success, failure
	)

	// BatchFlushesTotal counts debounced batch flushes.
	BatchFlushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_flushes_total",
			Help:      "Total number of notification batch flushes",
		},
	)

	// BatchSize tracks how many alerts each flush carried.
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of alerts per notification batch flush",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// EventsPublishedTotal counts lifecycle events published to the stream.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of lifecycle events published to the event stream",
		},
		[]string{"type"},
	)
)
