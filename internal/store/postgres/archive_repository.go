package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sentinel-go/internal/domain"
)

// ArchiveRepository implements store.ArchiveRepository using PostgreSQL.
// The full entry is kept as JSONB alongside the columns used for
// querying, so nothing is lost when the in-memory history lets go of a
// resolved alert.
type ArchiveRepository struct {
	db *DB
}

// NewArchiveRepository creates a new PostgreSQL-backed archive.
func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Archive stores the given entries. Re-archiving an alert id is a no-op.
func (r *ArchiveRepository) Archive(ctx context.Context, entries []*domain.AlertHistoryEntry) error {
	query := `
		INSERT INTO alert_archive (
			alert_id, rule_id, rule_name, severity, value, message,
			triggered_at, recorded_at, acknowledged_at, acknowledged_by,
			acknowledged_note, resolved_at, resolution, entry
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (alert_id) DO NOTHING
	`

	for _, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal archive entry: %w", err)
		}

		_, err = r.db.pool.Exec(ctx, query,
			entry.Alert.ID,
			entry.Alert.Rule.ID,
			entry.Alert.Rule.Name,
			entry.Alert.Rule.Severity,
			entry.Alert.Value,
			entry.Alert.Message,
			entry.Alert.Timestamp,
			entry.RecordedAt,
			entry.AcknowledgedAt,
			nullableString(entry.AcknowledgedBy),
			nullableString(entry.AcknowledgedNote),
			entry.ResolvedAt,
			nullableString(entry.Resolution),
			raw,
		)
		if err != nil {
			return fmt.Errorf("failed to archive alert %s: %w", entry.Alert.ID, err)
		}
	}

	return nil
}

// List returns up to limit most recently archived entries.
func (r *ArchiveRepository) List(ctx context.Context, limit int) ([]*domain.AlertHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT entry
		FROM alert_archive
		ORDER BY archived_at DESC
		LIMIT $1
	`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AlertHistoryEntry
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		var entry domain.AlertHistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archive entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archive rows: %w", err)
	}

	return entries, nil
}

// nullableString converts empty strings to nil for nullable columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
