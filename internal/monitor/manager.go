// Package monitor contains the alert manager: it owns the rule set and
// channel registry, schedules periodic evaluation, debounces outgoing
// notifications, and delegates lifecycle mutations to the history
// store. One manager instance is the single logical owner of alert
// state in a deployment; consumers receive it by explicit construction,
// never through package-level singletons.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"sentinel-go/internal/channel"
	"sentinel-go/internal/domain"
	"sentinel-go/internal/evaluator"
	"sentinel-go/internal/history"
	"sentinel-go/internal/metrics"
	"sentinel-go/internal/metricsource"
	"sentinel-go/internal/queue"
	"sentinel-go/internal/store"
)

// ErrAlreadyRunning is returned when StartMonitoring is called on a
// manager that is already running. This is a programmer error and fails
// fast rather than silently rescheduling.
var ErrAlreadyRunning = errors.New("monitoring is already running")

// Options tunes the manager's scheduling and batching behavior.
type Options struct {
	// Interval between periodic evaluation cycles. Defaults to 60s.
	Interval time.Duration

	// BatchAlerts enables debounced batching of notifications.
	BatchAlerts bool

	// BatchWindow is the debounce window; each new alert arrival resets
	// it. Defaults to 5s.
	BatchWindow time.Duration

	// CleanupInterval is how often retention cleanup runs. Defaults to 1h.
	CleanupInterval time.Duration

	// Retention is how long resolved entries are kept. Defaults to 7 days.
	Retention time.Duration
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = 60 * time.Second
	}
	if o.BatchWindow <= 0 {
		o.BatchWindow = 5 * time.Second
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = time.Hour
	}
	if o.Retention <= 0 {
		o.Retention = 7 * 24 * time.Hour
	}
}

// Deps contains the collaborators a manager is constructed with.
// Producer, Snapshots, and Archive are optional; a nil value disables
// the corresponding side effect.
type Deps struct {
	Source    metricsource.MetricSource
	Evaluator *evaluator.Evaluator
	History   *history.Store
	Producer  queue.Producer
	Snapshots store.SnapshotStore
	Archive   store.ArchiveRepository
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Manager orchestrates evaluation, lifecycle management, and
// notification fan-out. All methods are safe for concurrent use.
type Manager struct {
	source    metricsource.MetricSource
	evaluator *evaluator.Evaluator
	history   *history.Store
	producer  queue.Producer
	snapshots store.SnapshotStore
	archive   store.ArchiveRepository
	clock     clock.Clock
	logger    *slog.Logger
	opts      Options

	// mu guards rules, channels, timers, the batch buffer, and running.
	mu       sync.Mutex
	rules    []domain.AlertRule
	channels []*channel.Registration

	running    bool
	stopCh     chan struct{}
	evalTicker *clock.Ticker
	cleanTick  *clock.Ticker
	batchTimer *clock.Timer
	batch      []domain.TriggeredAlert

	// checkMu is the re-entrancy guard: a cycle that finds it held is
	// skipped rather than queued, so a slow collector cannot stack up
	// overlapping evaluations and double-record history.
	checkMu sync.Mutex
}

// NewManager creates a manager with the given collaborators and options.
func NewManager(deps Deps, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		source:    deps.Source,
		evaluator: deps.Evaluator,
		history:   deps.History,
		producer:  deps.Producer,
		snapshots: deps.Snapshots,
		archive:   deps.Archive,
		clock:     deps.Clock,
		logger:    deps.Logger,
		opts:      opts,
	}
}

// --- rule registry ---

// AddRule registers a rule, replacing any existing rule with the same
// id. The change takes effect on the next evaluation cycle.
func (m *Manager) AddRule(rule domain.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.rules {
		if existing.ID == rule.ID {
			m.rules[i] = rule
			return nil
		}
	}
	m.rules = append(m.rules, rule)
	return nil
}

// RemoveRule deletes a rule by id and reports whether it existed.
func (m *Manager) RemoveRule(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, rule := range m.rules {
		if rule.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns a copy of the registered rules in registration order.
func (m *Manager) Rules() []domain.AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AlertRule(nil), m.rules...)
}

// GetRule returns the rule with the given id, or nil when unknown.
func (m *Manager) GetRule(id string) *domain.AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rule := range m.rules {
		if rule.ID == id {
			r := rule
			return &r
		}
	}
	return nil
}

// --- channel registry ---

// AddChannel registers a notification channel, probing its optional
// capabilities once.
func (m *Manager) AddChannel(ch channel.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel.Register(ch))
}

// RemoveChannel deletes a channel by name and reports whether it existed.
func (m *Manager) RemoveChannel(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, reg := range m.channels {
		if reg.Name() == name {
			m.channels = append(m.channels[:i], m.channels[i+1:]...)
			return true
		}
	}
	return false
}

// TestChannels probes each channel's health. Channels without the test
// capability are assumed healthy.
func (m *Manager) TestChannels(ctx context.Context) map[string]bool {
	m.mu.Lock()
	regs := append([]*channel.Registration(nil), m.channels...)
	m.mu.Unlock()

	results := make(map[string]bool, len(regs))
	for _, reg := range regs {
		results[reg.Name()] = reg.Test(ctx)
	}
	return results
}

// --- scheduling ---

// StartMonitoring runs one immediate check, then schedules recurring
// evaluation and retention cleanup. Returns ErrAlreadyRunning when
// monitoring is active; stop first to change the interval.
func (m *Manager) StartMonitoring(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.evalTicker = m.clock.Ticker(m.opts.Interval)
	m.cleanTick = m.clock.Ticker(m.opts.CleanupInterval)
	stopCh := m.stopCh
	evalC := m.evalTicker.C
	cleanC := m.cleanTick.C
	m.mu.Unlock()

	m.logger.Info("monitoring started",
		"interval", m.opts.Interval,
		"cleanupInterval", m.opts.CleanupInterval,
		"retention", m.opts.Retention,
	)

	go m.run(ctx, stopCh, evalC, cleanC)

	if _, err := m.ManualCheck(ctx); err != nil {
		m.logger.Error("initial check failed", "error", err)
	}
	return nil
}

// run is the scheduler loop. Shared state is only touched through the
// manager's locked methods, so the three timers may fire in any order.
func (m *Manager) run(ctx context.Context, stopCh chan struct{}, evalC, cleanC <-chan time.Time) {
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-evalC:
			metrics.EvaluationCyclesTotal.WithLabelValues("interval").Inc()
			if _, err := m.ManualCheck(ctx); err != nil {
				m.logger.Error("scheduled check failed", "error", err)
			}
		case <-cleanC:
			m.RunCleanup(ctx)
		}
	}
}

// StopMonitoring cancels the evaluation, batch-flush, and cleanup
// timers. In-flight notification sends are not aborted; only future
// scheduling stops. Safe to call when not running.
func (m *Manager) StopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stopCh)
	m.evalTicker.Stop()
	m.cleanTick.Stop()
	if m.batchTimer != nil {
		m.batchTimer.Stop()
		m.batchTimer = nil
	}
	m.logger.Info("monitoring stopped")
}

// Running reports whether periodic monitoring is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ManualCheck runs one evaluation cycle: wake expired snoozes, collect
// a metrics snapshot, evaluate all rules, record every triggered alert
// in history, then dispatch notifications (batched or immediate).
// Returns the alerts triggered this cycle. If a prior cycle is still
// running the call is skipped and returns no alerts.
func (m *Manager) ManualCheck(ctx context.Context) ([]domain.TriggeredAlert, error) {
	if !m.checkMu.TryLock() {
		metrics.EvaluationCyclesSkippedTotal.Inc()
		m.logger.Warn("evaluation cycle skipped, previous cycle still running")
		return nil, nil
	}
	defer m.checkMu.Unlock()

	started := m.clock.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(m.clock.Since(started).Seconds())
	}()

	m.wakeSnoozes(ctx)

	snapshot, err := m.source.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rules := m.Rules()
	results := m.evaluator.Evaluate(rules, snapshot)
	metrics.RulesEvaluatedTotal.Add(float64(len(rules)))

	var triggered []domain.TriggeredAlert
	for _, result := range results {
		if !result.Triggered || result.Alert == nil {
			continue
		}
		alert := *result.Alert
		triggered = append(triggered, alert)

		// History first: it is the durable record, delivery is advisory.
		entry := m.history.Record(alert)
		metrics.AlertsTriggeredTotal.WithLabelValues(alert.Rule.ID, string(alert.Rule.Severity)).Inc()
		m.publishEvent(ctx, domain.EventTriggered, entry, "")
		m.logger.Warn("alert triggered",
			"alertID", alert.ID,
			"ruleID", alert.Rule.ID,
			"severity", alert.Rule.Severity,
			"value", alert.Value,
		)
	}
	m.updateGauges()

	if len(triggered) > 0 {
		m.dispatch(ctx, triggered)
	}

	m.saveSnapshot(ctx)
	return triggered, nil
}

// wakeSnoozes reactivates expired snoozes before evaluation so a still
// breaching condition can re-alert.
func (m *Manager) wakeSnoozes(ctx context.Context) {
	woken := m.history.WakeExpiredSnoozes()
	if len(woken) == 0 {
		return
	}
	metrics.SnoozesWokenTotal.Add(float64(len(woken)))
	for _, id := range woken {
		if entry := m.history.Get(id); entry != nil {
			m.publishEvent(ctx, domain.EventWoken, entry, "")
		}
	}
	m.logger.Info("snoozed alerts reactivated", "count", len(woken))
}

// RunCleanup removes resolved entries past retention, archiving them
// first when an archive is configured. Normally driven by the cleanup
// ticker; exposed for operator-initiated cleanup.
func (m *Manager) RunCleanup(ctx context.Context) {
	removed := m.history.Cleanup(m.opts.Retention)
	if len(removed) == 0 {
		return
	}
	metrics.CleanupRemovedTotal.Add(float64(len(removed)))

	if m.archive != nil {
		if err := m.archive.Archive(ctx, removed); err != nil {
			m.logger.Error("failed to archive cleaned-up alerts", "error", err, "count", len(removed))
		}
	}
	m.updateGauges()
	m.logger.Info("retention cleanup completed", "removed", len(removed))
}

// --- notification dispatch ---

// dispatch routes triggered alerts to channels, either immediately or
// through the debounced batch buffer.
func (m *Manager) dispatch(ctx context.Context, alerts []domain.TriggeredAlert) {
	if !m.opts.BatchAlerts {
		m.sendAlerts(ctx, alerts)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.batch = append(m.batch, alerts...)

	// Every arrival restarts the debounce window; the flush carries the
	// full accumulated buffer across all severities.
	if m.batchTimer != nil {
		m.batchTimer.Stop()
	}
	m.batchTimer = m.clock.AfterFunc(m.opts.BatchWindow, func() {
		m.flushBatch(ctx)
	})
}

// flushBatch sends the accumulated buffer as one dispatch and clears it.
func (m *Manager) flushBatch(ctx context.Context) {
	m.mu.Lock()
	batch := m.batch
	m.batch = nil
	m.batchTimer = nil
	m.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	metrics.BatchFlushesTotal.Inc()
	metrics.BatchSize.Observe(float64(len(batch)))
	m.sendAlerts(ctx, batch)
}

// sendAlerts fans out to every channel concurrently. Channels that
// support batch dispatch get one call when there is more than one
// alert; others get one call per alert. Every call is individually
// isolated: a failing channel or alert never blocks or fails the rest,
// and sendAlerts itself never fails.
func (m *Manager) sendAlerts(ctx context.Context, alerts []domain.TriggeredAlert) {
	m.mu.Lock()
	regs := append([]*channel.Registration(nil), m.channels...)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, reg := range regs {
		if len(alerts) > 1 && reg.SupportsBatch() {
			wg.Add(1)
			go func(reg *channel.Registration) {
				defer wg.Done()
				m.deliver(reg.Name(), func() error { return reg.SendBatch(ctx, alerts) })
			}(reg)
			continue
		}
		for _, alert := range alerts {
			wg.Add(1)
			go func(reg *channel.Registration, alert domain.TriggeredAlert) {
				defer wg.Done()
				m.deliver(reg.Name(), func() error { return reg.Send(ctx, alert) })
			}(reg, alert)
		}
	}
	wg.Wait()
}

// deliver runs one channel call with panic and error isolation.
func (m *Manager) deliver(name string, send func() error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationsSentTotal.WithLabelValues(name, "failure").Inc()
			m.logger.Error("notification channel panicked", "channel", name, "panic", r)
		}
	}()

	if err := send(); err != nil {
		metrics.NotificationsSentTotal.WithLabelValues(name, "failure").Inc()
		m.logger.Error("notification delivery failed", "channel", name, "error", err)
		return
	}
	metrics.NotificationsSentTotal.WithLabelValues(name, "success").Inc()
}

// --- lifecycle delegation ---

// Acknowledge marks an alert as acknowledged. Returns false when the id
// is unknown or the entry was not in an acknowledgeable state.
func (m *Manager) Acknowledge(ctx context.Context, id, by, note string) bool {
	entry, changed := m.history.Acknowledge(id, by, note)
	if changed {
		m.publishEvent(ctx, domain.EventAcknowledged, entry, by)
		m.updateGauges()
	}
	return changed
}

// Snooze suppresses an active alert for the given duration. Returns
// false when the id is unknown or the entry was not active.
func (m *Manager) Snooze(ctx context.Context, id string, duration time.Duration, by string) bool {
	entry, changed := m.history.Snooze(id, duration, by)
	if changed {
		m.publishEvent(ctx, domain.EventSnoozed, entry, by)
		m.updateGauges()
	}
	return changed
}

// Resolve moves an alert to the terminal resolved state. Returns false
// when the id is unknown or the entry was already resolved.
func (m *Manager) Resolve(ctx context.Context, id, resolution string) bool {
	entry, changed := m.history.Resolve(id, resolution)
	if changed {
		m.publishEvent(ctx, domain.EventResolved, entry, "")
		m.updateGauges()
	}
	return changed
}

// --- queries ---

// GetAlert returns the history entry for an alert id, or nil.
func (m *Manager) GetAlert(id string) *domain.AlertHistoryEntry {
	return m.history.Get(id)
}

// GetActiveAlerts returns all entries currently in the active state.
func (m *Manager) GetActiveAlerts() []*domain.AlertHistoryEntry {
	return m.history.GetActive()
}

// QueryHistory returns entries matching the filter.
func (m *Manager) QueryHistory(filter domain.HistoryFilter) []*domain.AlertHistoryEntry {
	return m.history.Query(filter)
}

// GetStatistics summarizes retained entries by status and severity.
func (m *Manager) GetStatistics() domain.Statistics {
	return m.history.Statistics()
}

// Trend returns the rolling aggregated-value history for a rule.
func (m *Manager) Trend(ruleID string) []float64 {
	return m.evaluator.Trend(ruleID)
}

// RestoreHistory loads the latest snapshot from the snapshot store, if
// one is configured and present. Called once at startup.
func (m *Manager) RestoreHistory(ctx context.Context) error {
	if m.snapshots == nil {
		return nil
	}
	snapshot, err := m.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}
	m.history.Import(snapshot)
	m.updateGauges()
	m.logger.Info("history restored from snapshot",
		"entries", len(snapshot.Entries),
		"exportedAt", snapshot.ExportedAt,
	)
	return nil
}

// saveSnapshot persists the current history, best-effort.
func (m *Manager) saveSnapshot(ctx context.Context) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.Save(ctx, m.history.Export()); err != nil {
		m.logger.Error("failed to save history snapshot", "error", err)
	}
}

// publishEvent emits a lifecycle event to the stream, best-effort.
func (m *Manager) publishEvent(ctx context.Context, kind domain.EventType, entry *domain.AlertHistoryEntry, actor string) {
	if m.producer == nil {
		return
	}

	event := domain.AlertEvent{
		Type:       kind,
		AlertID:    entry.Alert.ID,
		RuleID:     entry.Alert.Rule.ID,
		Severity:   entry.Alert.Rule.Severity,
		Actor:      actor,
		OccurredAt: m.clock.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("failed to marshal lifecycle event", "error", err)
		return
	}

	msg := &queue.Message{
		Key:   []byte(event.AlertID),
		Value: payload,
	}
	if err := m.producer.Publish(ctx, msg); err != nil {
		m.logger.Error("failed to publish lifecycle event", "type", kind, "alertID", event.AlertID, "error", err)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(kind)).Inc()
}

// updateGauges refreshes the active-alert and history-size gauges.
func (m *Manager) updateGauges() {
	stats := m.history.Statistics()
	metrics.ActiveAlerts.Set(float64(stats.ByStatus[domain.StatusActive]))
	metrics.HistorySize.Set(float64(stats.Total))
}
