package history

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"sentinel-go/internal/domain"
)

func testRule(id string, severity domain.Severity) domain.AlertRule {
	return domain.AlertRule{
		ID:         id,
		Name:       "rule " + id,
		MetricName: "mobigen_validation_total",
		Condition:  domain.ConditionLT,
		Threshold:  0.95,
		Severity:   severity,
	}
}

func testAlert(ruleID string, severity domain.Severity, ts int64) domain.TriggeredAlert {
	return domain.NewTriggeredAlert(testRule(ruleID, severity), 0.5, ts)
}

func TestRecord(t *testing.T) {
	s := New(clock.NewMock())

	alert := testAlert("r1", domain.SeverityWarning, 1000)
	entry := s.Record(alert)

	if entry.Status != domain.StatusActive {
		t.Errorf("Status = %v, want %v", entry.Status, domain.StatusActive)
	}
	if entry.Alert.ID != "r1-1000" {
		t.Errorf("Alert.ID = %v, want r1-1000", entry.Alert.ID)
	}
	if s.Size() != 1 {
		t.Errorf("Size = %v, want 1", s.Size())
	}
}

func TestRecord_DuplicateIDIsNoOp(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock)

	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)
	s.Acknowledge(alert.ID, "alice", "")

	again := s.Record(alert)
	if again.Status != domain.StatusAcknowledged {
		t.Errorf("Status = %v, want acknowledged to survive re-record", again.Status)
	}
	if s.Size() != 1 {
		t.Errorf("Size = %v, want 1", s.Size())
	}
}

func TestAcknowledge(t *testing.T) {
	s := New(clock.NewMock())
	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)

	entry, ok := s.Acknowledge(alert.ID, "alice", "looking into it")
	if !ok {
		t.Fatal("Acknowledge should succeed on an active entry")
	}
	if entry.Status != domain.StatusAcknowledged {
		t.Errorf("Status = %v, want %v", entry.Status, domain.StatusAcknowledged)
	}
	if entry.AcknowledgedBy != "alice" {
		t.Errorf("AcknowledgedBy = %v, want alice", entry.AcknowledgedBy)
	}
	if entry.AcknowledgedAt == nil {
		t.Error("AcknowledgedAt should be set")
	}

	if _, ok := s.Acknowledge("missing", "alice", ""); ok {
		t.Error("Acknowledge of unknown id should report false")
	}
}

func TestSnooze_OnlyFromActive(t *testing.T) {
	s := New(clock.NewMock())
	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)
	s.Acknowledge(alert.ID, "alice", "")

	entry, ok := s.Snooze(alert.ID, time.Minute, "bob")
	if ok {
		t.Error("Snooze on an acknowledged entry should be a no-op")
	}
	if entry.Status != domain.StatusAcknowledged {
		t.Errorf("Status = %v, want %v unchanged", entry.Status, domain.StatusAcknowledged)
	}
}

func TestSnooze_WakesAfterDeadline(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock)
	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)

	entry, ok := s.Snooze(alert.ID, time.Second, "bob")
	if !ok {
		t.Fatal("Snooze should succeed on an active entry")
	}
	if entry.Status != domain.StatusSnoozed {
		t.Errorf("Status = %v, want %v", entry.Status, domain.StatusSnoozed)
	}
	if entry.SnoozedUntil == nil {
		t.Fatal("SnoozedUntil should be set")
	}

	// Half way through the snooze nothing wakes.
	mock.Add(500 * time.Millisecond)
	if woken := s.WakeExpiredSnoozes(); len(woken) != 0 {
		t.Errorf("woken = %v, want none before the deadline", woken)
	}
	if got := s.Get(alert.ID); got.Status != domain.StatusSnoozed {
		t.Errorf("Status = %v, want still snoozed", got.Status)
	}

	// Past the deadline the entry returns to active with a cleared deadline.
	mock.Add(time.Second)
	woken := s.WakeExpiredSnoozes()
	if len(woken) != 1 || woken[0] != alert.ID {
		t.Errorf("woken = %v, want [%v]", woken, alert.ID)
	}
	got := s.Get(alert.ID)
	if got.Status != domain.StatusActive {
		t.Errorf("Status = %v, want %v", got.Status, domain.StatusActive)
	}
	if got.SnoozedUntil != nil {
		t.Error("SnoozedUntil should be cleared on wake")
	}
}

func TestResolve_TerminalState(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock)
	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)

	entry, ok := s.Resolve(alert.ID, "fixed upstream")
	if !ok {
		t.Fatal("Resolve should succeed on an active entry")
	}
	if entry.Status != domain.StatusResolved {
		t.Errorf("Status = %v, want %v", entry.Status, domain.StatusResolved)
	}
	firstResolvedAt := *entry.ResolvedAt

	mock.Add(time.Hour)
	again, ok := s.Resolve(alert.ID, "second attempt")
	if ok {
		t.Error("Resolve on a resolved entry should be rejected")
	}
	if again.Resolution != "fixed upstream" {
		t.Errorf("Resolution = %v, want the original preserved", again.Resolution)
	}
	if !again.ResolvedAt.Equal(firstResolvedAt) {
		t.Error("ResolvedAt should not be overwritten")
	}
}

func TestQuery_FiltersSortAndLimit(t *testing.T) {
	s := New(clock.NewMock())
	s.Record(testAlert("r1", domain.SeverityWarning, 1000))
	s.Record(testAlert("r1", domain.SeverityWarning, 3000))
	s.Record(testAlert("r2", domain.SeverityCritical, 2000))
	s.Resolve("r2-2000", "done")

	byRule := s.Query(domain.HistoryFilter{RuleID: "r1"})
	if len(byRule) != 2 {
		t.Fatalf("len(byRule) = %v, want 2", len(byRule))
	}
	if byRule[0].Alert.Timestamp != 3000 {
		t.Errorf("default sort should be newest first, got %v", byRule[0].Alert.Timestamp)
	}

	byStatus := s.Query(domain.HistoryFilter{
		Statuses: []domain.AlertStatus{domain.StatusResolved},
	})
	if len(byStatus) != 1 || byStatus[0].Alert.Rule.ID != "r2" {
		t.Errorf("status filter returned %v entries, want the resolved r2 entry", len(byStatus))
	}

	bySeverity := s.Query(domain.HistoryFilter{
		Severities: []domain.Severity{domain.SeverityCritical},
	})
	if len(bySeverity) != 1 {
		t.Errorf("len(bySeverity) = %v, want 1", len(bySeverity))
	}

	windowed := s.Query(domain.HistoryFilter{StartTime: 1500, EndTime: 2500})
	if len(windowed) != 1 || windowed[0].Alert.Timestamp != 2000 {
		t.Errorf("time window returned %v entries, want the ts=2000 entry", len(windowed))
	}

	limited := s.Query(domain.HistoryFilter{
		Limit:     2,
		SortOrder: domain.SortAscending,
	})
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %v, want 2", len(limited))
	}
	if limited[0].Alert.Timestamp != 1000 || limited[1].Alert.Timestamp != 2000 {
		t.Errorf("ascending limit should keep the oldest entries, got %v and %v",
			limited[0].Alert.Timestamp, limited[1].Alert.Timestamp)
	}
}

func TestGetActive(t *testing.T) {
	s := New(clock.NewMock())
	s.Record(testAlert("r1", domain.SeverityWarning, 1000))
	s.Record(testAlert("r2", domain.SeverityWarning, 2000))
	s.Resolve("r1-1000", "done")

	active := s.GetActive()
	if len(active) != 1 || active[0].Alert.Rule.ID != "r2" {
		t.Errorf("GetActive returned %v entries, want only r2", len(active))
	}
}

func TestGetActive_OrdersBySeverityThenRecency(t *testing.T) {
	s := New(clock.NewMock())
	s.Record(testAlert("r1", domain.SeverityInfo, 1000))
	s.Record(testAlert("r2", domain.SeverityCritical, 2000))
	s.Record(testAlert("r3", domain.SeverityWarning, 3000))
	s.Record(testAlert("r4", domain.SeverityCritical, 4000))

	active := s.GetActive()
	got := make([]string, len(active))
	for i, entry := range active {
		got[i] = entry.Alert.Rule.ID
	}
	want := []string{"r4", "r2", "r3", "r1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetActive order = %v, want %v", got, want)
		}
	}
}

func TestGetRecent(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.UnixMilli(0).Add(48 * time.Hour))
	s := New(mock)

	now := mock.Now().UnixMilli()
	s.Record(testAlert("old", domain.SeverityWarning, now-25*60*60*1000))
	s.Record(testAlert("recent", domain.SeverityWarning, now-60*1000))

	recent := s.GetRecent(24)
	if len(recent) != 1 || recent[0].Alert.Rule.ID != "recent" {
		t.Errorf("GetRecent(24) returned %v entries, want only recent", len(recent))
	}
	if all := s.GetRecent(48); len(all) != 2 {
		t.Errorf("GetRecent(48) returned %v entries, want 2", len(all))
	}
}

func TestStatistics(t *testing.T) {
	s := New(clock.NewMock())
	s.Record(testAlert("r1", domain.SeverityWarning, 1000))
	s.Record(testAlert("r2", domain.SeverityCritical, 2000))
	s.Resolve("r2-2000", "done")

	stats := s.Statistics()
	if stats.Total != 2 {
		t.Errorf("Total = %v, want 2", stats.Total)
	}
	if stats.ByStatus[domain.StatusActive] != 1 {
		t.Errorf("ByStatus[active] = %v, want 1", stats.ByStatus[domain.StatusActive])
	}
	if stats.ByStatus[domain.StatusResolved] != 1 {
		t.Errorf("ByStatus[resolved] = %v, want 1", stats.ByStatus[domain.StatusResolved])
	}
	if stats.BySeverity[domain.SeverityCritical] != 1 {
		t.Errorf("BySeverity[critical] = %v, want 1", stats.BySeverity[domain.SeverityCritical])
	}
}

func TestCleanup_RemovesOnlyOldResolved(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock)

	s.Record(testAlert("r1", domain.SeverityWarning, 1000))
	s.Record(testAlert("r2", domain.SeverityWarning, 2000))
	s.Resolve("r1-1000", "done")

	// Eight days pass; r1 was resolved eight days ago, r2 is still active.
	mock.Add(8 * 24 * time.Hour)

	removed := s.Cleanup(7 * 24 * time.Hour)
	if len(removed) != 1 || removed[0].Alert.ID != "r1-1000" {
		t.Fatalf("removed = %v entries, want only r1-1000", len(removed))
	}
	if s.Get("r1-1000") != nil {
		t.Error("cleaned-up entry should be gone")
	}
	if s.Get("r2-2000") == nil {
		t.Error("active entry must survive cleanup regardless of age")
	}

	// A freshly resolved entry inside the retention window survives.
	s.Resolve("r2-2000", "done")
	if removed := s.Cleanup(7 * 24 * time.Hour); len(removed) != 0 {
		t.Errorf("removed = %v entries, want 0 inside retention", len(removed))
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock)
	s.Record(testAlert("r1", domain.SeverityWarning, 1000))
	s.Record(testAlert("r2", domain.SeverityCritical, 2000))
	s.Acknowledge("r1-1000", "alice", "on it")

	snapshot := s.Export()
	if len(snapshot.Entries) != 2 {
		t.Fatalf("len(snapshot.Entries) = %v, want 2", len(snapshot.Entries))
	}

	restored := New(mock)
	restored.Import(snapshot)

	if restored.Size() != 2 {
		t.Fatalf("Size = %v, want 2 after import", restored.Size())
	}
	entry := restored.Get("r1-1000")
	if entry == nil || entry.Status != domain.StatusAcknowledged {
		t.Error("imported entry should keep its acknowledged status")
	}

	// Indices are rebuilt, not just the flat map.
	if active := restored.GetActive(); len(active) != 1 || active[0].Alert.ID != "r2-2000" {
		t.Errorf("GetActive after import returned %v entries, want only r2-2000", len(active))
	}
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	s := New(clock.NewMock())
	alert := testAlert("r1", domain.SeverityWarning, 1000)
	s.Record(alert)

	entry := s.Get(alert.ID)
	entry.Status = domain.StatusResolved

	if got := s.Get(alert.ID); got.Status != domain.StatusActive {
		t.Error("mutating a returned entry must not affect the store")
	}
}
