// Package redis provides a Redis-backed snapshot store so history
// survives process restarts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentinel-go/internal/config"
	"sentinel-go/internal/domain"
)

// snapshotKey is where the latest history snapshot lives.
const snapshotKey = "sentinel:history:snapshot"

// SnapshotStore implements store.SnapshotStore using Redis. The whole
// snapshot is stored as one JSON blob; history sizes are bounded by
// retention cleanup, so the blob stays small.
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore creates a Redis-backed snapshot store and verifies
// connectivity.
func NewSnapshotStore(cfg *config.RedisConfig) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SnapshotStore{client: client}, nil
}

// Save persists the snapshot, replacing any previous one.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.HistorySnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// No TTL: the snapshot persists until replaced.
	if err := s.client.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil, nil when none exists.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.HistorySnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot domain.HistorySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the Redis client connection.
func (s *SnapshotStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
