// Package store defines persistence seams for alert history. The
// lifecycle engine itself is in-memory; these abstractions let a
// deployment survive restarts (snapshot) and keep a durable audit trail
// of cleaned-up alerts (archive) without the engine depending on any
// particular backend.
package store

import (
	"context"

	"sentinel-go/internal/domain"
)

// SnapshotStore persists full history snapshots. The manager saves a
// snapshot after each evaluation cycle and restores the latest one on
// boot. Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Save persists a snapshot, replacing any previous one.
	Save(ctx context.Context, snapshot *domain.HistorySnapshot) error

	// Load returns the most recent snapshot, or nil, nil when none exists.
	Load(ctx context.Context) (*domain.HistorySnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}

// ArchiveRepository durably records resolved entries that retention
// cleanup removed from the in-memory history.
type ArchiveRepository interface {
	// Archive stores the given entries. Archiving the same alert id
	// twice must not fail.
	Archive(ctx context.Context, entries []*domain.AlertHistoryEntry) error

	// List returns the most recently archived entries, up to limit.
	List(ctx context.Context, limit int) ([]*domain.AlertHistoryEntry, error)
}
