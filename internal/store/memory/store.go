// Package memory provides in-memory implementations of the store
// interfaces, used for testing and single-process deployments.
package memory

import (
	"context"
	"sync"

	"sentinel-go/internal/domain"
)

// SnapshotStore keeps the latest snapshot in memory.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot *domain.HistorySnapshot
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Save replaces the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.HistorySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	return nil
}

// Load returns the stored snapshot, or nil, nil when none was saved.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.HistorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// Close is a no-op for the in-memory store.
func (s *SnapshotStore) Close() error {
	return nil
}

// ArchiveRepository keeps archived entries in an in-memory slice,
// newest first.
type ArchiveRepository struct {
	mu      sync.RWMutex
	entries []*domain.AlertHistoryEntry
	byID    map[string]struct{}
}

// NewArchiveRepository creates an empty in-memory archive.
func NewArchiveRepository() *ArchiveRepository {
	return &ArchiveRepository{byID: make(map[string]struct{})}
}

// Archive stores the given entries, skipping ids already archived.
func (r *ArchiveRepository) Archive(ctx context.Context, entries []*domain.AlertHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if _, ok := r.byID[entry.Alert.ID]; ok {
			continue
		}
		r.byID[entry.Alert.ID] = struct{}{}
		r.entries = append([]*domain.AlertHistoryEntry{entry}, r.entries...)
	}
	return nil
}

// List returns up to limit most recently archived entries.
func (r *ArchiveRepository) List(ctx context.Context, limit int) ([]*domain.AlertHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]*domain.AlertHistoryEntry, limit)
	copy(out, r.entries[:limit])
	return out, nil
}
