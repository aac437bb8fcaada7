// Package history is the in-memory store of alert lifecycle entries.
// It owns the alert state machine (active -> acknowledged/snoozed ->
// resolved), keeps secondary indices by rule and by status for cheap
// filtered queries, and is the authoritative record of every triggered
// alert regardless of notification outcome.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"sentinel-go/internal/domain"
)

// Store holds alert history entries keyed by alert id. All methods are
// safe for concurrent use.
type Store struct {
	clock clock.Clock

	mu      sync.RWMutex
	entries map[string]*domain.AlertHistoryEntry

	// byRule and byStatus are kept consistent with entries on every
	// transition (remove-then-add) so filtered queries avoid full scans.
	byRule   map[string]map[string]struct{}
	byStatus map[domain.AlertStatus]map[string]struct{}
}

// New creates an empty history store using the given clock.
func New(clk clock.Clock) *Store {
	return &Store{
		clock:    clk,
		entries:  make(map[string]*domain.AlertHistoryEntry),
		byRule:   make(map[string]map[string]struct{}),
		byStatus: make(map[domain.AlertStatus]map[string]struct{}),
	}
}

// Record creates an active entry for a triggered alert. The alert id is
// the primary key: recording an id that already exists is a no-op that
// returns the existing entry, preserving the one-entry-per-alert
// invariant.
func (s *Store) Record(alert domain.TriggeredAlert) *domain.AlertHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[alert.ID]; ok {
		return copyEntry(existing)
	}

	entry := domain.NewHistoryEntry(alert, s.clock.Now())
	s.entries[alert.ID] = entry
	s.indexAdd(entry)
	return copyEntry(entry)
}

// Get returns a snapshot of the entry for the given alert id, or nil if
// no entry exists.
func (s *Store) Get(id string) *domain.AlertHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	return copyEntry(entry)
}

// Acknowledge moves an entry to acknowledged. Allowed only from active
// or snoozed; in any other state it is a no-op returning the unchanged
// entry. The boolean reports whether the entry was found and mutated.
func (s *Store) Acknowledge(id, by, note string) (*domain.AlertHistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if entry.Status != domain.StatusActive && entry.Status != domain.StatusSnoozed {
		return copyEntry(entry), false
	}

	now := s.clock.Now()
	s.setStatus(entry, domain.StatusAcknowledged)
	entry.AcknowledgedAt = &now
	entry.AcknowledgedBy = by
	entry.AcknowledgedNote = note
	return copyEntry(entry), true
}

// Snooze suppresses an active entry until now + duration. Allowed only
// from active; in any other state it is a no-op returning the unchanged
// entry. The boolean reports whether the entry was found and mutated.
func (s *Store) Snooze(id string, duration time.Duration, by string) (*domain.AlertHistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if entry.Status != domain.StatusActive {
		return copyEntry(entry), false
	}

	until := s.clock.Now().Add(duration)
	s.setStatus(entry, domain.StatusSnoozed)
	entry.SnoozedUntil = &until
	entry.SnoozedBy = by
	return copyEntry(entry), true
}

// WakeExpiredSnoozes reactivates every snoozed entry whose deadline has
// passed, clearing its snooze deadline, and returns the ids woken. It is
// invoked at the start of every evaluation cycle so a previously snoozed
// condition can re-alert.
func (s *Store) WakeExpiredSnoozes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var woken []string
	for id := range s.byStatus[domain.StatusSnoozed] {
		entry := s.entries[id]
		if entry.SnoozedUntil == nil || entry.SnoozedUntil.After(now) {
			continue
		}
		s.setStatus(entry, domain.StatusActive)
		entry.SnoozedUntil = nil
		woken = append(woken, id)
	}
	return woken
}

// Resolve moves an entry to the terminal resolved state. Allowed from
// active, acknowledged, or snoozed. Resolving an already resolved entry
// is rejected: terminal means terminal, so the original resolution and
// timestamp are never overwritten. The boolean reports whether the entry
// was found and mutated.
func (s *Store) Resolve(id, resolution string) (*domain.AlertHistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if entry.Status == domain.StatusResolved {
		return copyEntry(entry), false
	}

	now := s.clock.Now()
	s.setStatus(entry, domain.StatusResolved)
	entry.ResolvedAt = &now
	entry.Resolution = resolution
	return copyEntry(entry), true
}

// GetActive returns all entries currently in the active state, highest
// severity first, newest trigger first within each severity.
func (s *Store) GetActive() []*domain.AlertHistoryEntry {
	entries := s.Query(domain.HistoryFilter{Statuses: []domain.AlertStatus{domain.StatusActive}})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Alert.Rule.Severity.Rank() > entries[j].Alert.Rule.Severity.Rank()
	})
	return entries
}

// GetRecent returns entries triggered within the trailing number of
// hours, newest first.
func (s *Store) GetRecent(hours int) []*domain.AlertHistoryEntry {
	start := s.clock.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
	return s.Query(domain.HistoryFilter{StartTime: start})
}

// Query returns entry snapshots matching every set filter field, sorted
// by alert trigger time (descending unless asked otherwise).
func (s *Store) Query(filter domain.HistoryFilter) []*domain.AlertHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.AlertHistoryEntry, 0)
	for _, entry := range s.candidates(filter) {
		if !matches(entry, filter) {
			continue
		}
		matched = append(matched, copyEntry(entry))
	}

	ascending := filter.SortOrder == domain.SortAscending
	sort.Slice(matched, func(i, j int) bool {
		if ascending {
			return matched[i].Alert.Timestamp < matched[j].Alert.Timestamp
		}
		return matched[i].Alert.Timestamp > matched[j].Alert.Timestamp
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

// candidates narrows the scan using the cheapest applicable index.
func (s *Store) candidates(filter domain.HistoryFilter) []*domain.AlertHistoryEntry {
	if filter.RuleID != "" {
		ids := s.byRule[filter.RuleID]
		out := make([]*domain.AlertHistoryEntry, 0, len(ids))
		for id := range ids {
			out = append(out, s.entries[id])
		}
		return out
	}
	if len(filter.Statuses) > 0 {
		out := make([]*domain.AlertHistoryEntry, 0)
		for _, status := range filter.Statuses {
			for id := range s.byStatus[status] {
				out = append(out, s.entries[id])
			}
		}
		return out
	}
	out := make([]*domain.AlertHistoryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out
}

// matches applies the full compound filter to one entry.
func matches(entry *domain.AlertHistoryEntry, filter domain.HistoryFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, entry.Status) {
		return false
	}
	if len(filter.Severities) > 0 && !containsSeverity(filter.Severities, entry.Alert.Rule.Severity) {
		return false
	}
	if filter.RuleID != "" && entry.Alert.Rule.ID != filter.RuleID {
		return false
	}
	ts := entry.Alert.Timestamp
	if filter.StartTime > 0 && ts < filter.StartTime {
		return false
	}
	if filter.EndTime > 0 && ts > filter.EndTime {
		return false
	}
	return true
}

// Statistics counts retained entries by status and severity.
func (s *Store) Statistics() domain.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.Statistics{
		Total:      len(s.entries),
		ByStatus:   make(map[domain.AlertStatus]int),
		BySeverity: make(map[domain.Severity]int),
	}
	for _, entry := range s.entries {
		stats.ByStatus[entry.Status]++
		stats.BySeverity[entry.Alert.Rule.Severity]++
	}
	return stats
}

// Cleanup deletes resolved entries whose resolution time is older than
// the retention period and returns the removed entries. Entries in any
// other state are exempt regardless of age; this is the sole source of
// unbounded-growth control.
func (s *Store) Cleanup(retention time.Duration) []*domain.AlertHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-retention)
	var removed []*domain.AlertHistoryEntry
	for id := range s.byStatus[domain.StatusResolved] {
		entry := s.entries[id]
		if entry.ResolvedAt == nil || entry.ResolvedAt.After(cutoff) {
			continue
		}
		s.indexRemove(entry)
		delete(s.entries, id)
		removed = append(removed, entry)
	}
	return removed
}

// Size returns the number of retained entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Export takes a full-state snapshot of the store. This is the seam for
// external persistence.
func (s *Store) Export() *domain.HistorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*domain.AlertHistoryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, copyEntry(entry))
	}
	return &domain.HistorySnapshot{
		Entries:    entries,
		ExportedAt: s.clock.Now(),
	}
}

// Import replaces the store contents with a previously exported
// snapshot, rebuilding all indices.
func (s *Store) Import(snapshot *domain.HistorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*domain.AlertHistoryEntry, len(snapshot.Entries))
	s.byRule = make(map[string]map[string]struct{})
	s.byStatus = make(map[domain.AlertStatus]map[string]struct{})

	for _, entry := range snapshot.Entries {
		restored := copyEntry(entry)
		s.entries[restored.Alert.ID] = restored
		s.indexAdd(restored)
	}
}

// --- index maintenance (callers hold the write lock) ---

// setStatus transitions an entry to a new status, keeping the status
// index consistent via remove-then-add.
func (s *Store) setStatus(entry *domain.AlertHistoryEntry, status domain.AlertStatus) {
	delete(s.byStatus[entry.Status], entry.Alert.ID)
	entry.Status = status
	s.statusSet(status)[entry.Alert.ID] = struct{}{}
}

func (s *Store) indexAdd(entry *domain.AlertHistoryEntry) {
	id := entry.Alert.ID
	ruleID := entry.Alert.Rule.ID
	if s.byRule[ruleID] == nil {
		s.byRule[ruleID] = make(map[string]struct{})
	}
	s.byRule[ruleID][id] = struct{}{}
	s.statusSet(entry.Status)[id] = struct{}{}
}

func (s *Store) indexRemove(entry *domain.AlertHistoryEntry) {
	id := entry.Alert.ID
	delete(s.byRule[entry.Alert.Rule.ID], id)
	delete(s.byStatus[entry.Status], id)
}

func (s *Store) statusSet(status domain.AlertStatus) map[string]struct{} {
	if s.byStatus[status] == nil {
		s.byStatus[status] = make(map[string]struct{})
	}
	return s.byStatus[status]
}

func containsStatus(haystack []domain.AlertStatus, needle domain.AlertStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsSeverity(haystack []domain.Severity, needle domain.Severity) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// copyEntry returns a snapshot of an entry so callers cannot mutate
// store state through returned pointers.
func copyEntry(entry *domain.AlertHistoryEntry) *domain.AlertHistoryEntry {
	out := *entry
	if entry.AcknowledgedAt != nil {
		t := *entry.AcknowledgedAt
		out.AcknowledgedAt = &t
	}
	if entry.SnoozedUntil != nil {
		t := *entry.SnoozedUntil
		out.SnoozedUntil = &t
	}
	if entry.ResolvedAt != nil {
		t := *entry.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}
