// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "fourrow_actions"

// ErrSnapshotNotFound is returned when no snapshot is cached for a game.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store wraps the Redis client used for the action queue and for short-lived
// saved-game snapshots.
type Store struct {
	rdb   *redis.Client
	queue string
	ttl   time.Duration
}

// NewStore wraps an existing client. An empty queue uses DefaultQueueName.
func NewStore(rdb *redis.Client, queue string, ttl time.Duration) *Store {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Store{rdb: rdb, queue: queue, ttl: ttl}
}

// Connect dials Redis and checks the connection.
func Connect(ctx context.Context, addr string, db int, queue string, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return NewStore(rdb, queue, ttl), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

// RecordAction serializes the record and pushes it onto the historian queue.
func (s *Store) RecordAction(ctx context.Context, record models.GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", s.queue, err)
	}
	return nil
}

// PopAction blocks up to timeout for the next queued record. ok is false
// when the wait timed out.
func (s *Store) PopAction(ctx context.Context, timeout time.Duration) (models.GameActionRecord, bool, error) {
	var record models.GameActionRecord
	res, err := s.rdb.BLPop(ctx, timeout, s.queue).Result()
	if errors.Is(err, redis.Nil) {
		return record, false, nil
	}
	if err != nil {
		return record, false, fmt.Errorf("BLPop %s: %w", s.queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return record, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return record, false, fmt.Errorf("invalid action record: %w", err)
	}
	return record, true, nil
}

func snapshotKey(id uuid.UUID) string { return "fourrow:game:" + id.String() }

// SaveSnapshot caches a saved game so a restarted server can pick it up.
func (s *Store) SaveSnapshot(ctx context.Context, saved game.SavedGame) error {
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapshotKey(saved.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot %s: %w", saved.ID, err)
	}
	return nil
}

// LoadSnapshot returns the cached saved game, or ErrSnapshotNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, id uuid.UUID) (game.SavedGame, error) {
	var saved game.SavedGame
	data, err := s.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return saved, ErrSnapshotNotFound
	}
	if err != nil {
		return saved, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &saved); err != nil {
		return saved, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return saved, nil
}

// DeleteSnapshot drops a cached game, e.g. once it is finished.
func (s *Store) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, snapshotKey(id)).Err()
}
