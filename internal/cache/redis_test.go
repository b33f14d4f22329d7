package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable points at a port nothing listens on.
func unreachable() *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewStore(rdb, "", time.Minute)
}

func TestNewStore_DefaultQueue(t *testing.T) {
	s := unreachable()
	defer s.Close()
	assert.Equal(t, DefaultQueueName, s.queue)
}

func TestSnapshotKey(t *testing.T) {
	id := uuid.MustParse("6f1c1c8e-2a2b-4a7e-9a55-0d4c9b0e3f11")
	assert.Equal(t, "fourrow:game:6f1c1c8e-2a2b-4a7e-9a55-0d4c9b0e3f11", snapshotKey(id))
}

func TestStore_ErrorsWrapWhenRedisDown(t *testing.T) {
	s := unreachable()
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := s.RecordAction(ctx, models.GameActionRecord{GameID: uuid.New(), ActionIndex: 1, ActionType: models.ActionDraw})
	assert.Error(t, err)

	_, err = s.LoadSnapshot(ctx, uuid.New())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)
}

// TestStore_Live runs against a real Redis when REDIS_ADDR is set.
func TestStore_Live(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, addr, 0, "fourrow_test_"+uuid.NewString(), time.Minute)
	require.NoError(t, err)
	defer s.Close()

	rec := models.GameActionRecord{GameID: uuid.New(), ActionIndex: 3, ActionType: models.ActionMove,
		ActionPayload: map[string]interface{}{"from": "waste"}}
	require.NoError(t, s.RecordAction(ctx, rec))

	got, ok, err := s.PopAction(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.GameID, got.GameID)
	assert.Equal(t, "waste", got.ActionPayload["from"])

	_, ok, err = s.PopAction(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	sess, err := game.NewSession(models.DefaultRules(), nil)
	require.NoError(t, err)
	sess.Draw()
	saved := sess.Save()
	require.NoError(t, s.SaveSnapshot(ctx, saved))

	loaded, err := s.LoadSnapshot(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Deck, loaded.Deck)
	assert.Equal(t, saved.Moves, loaded.Moves)

	require.NoError(t, s.DeleteSnapshot(ctx, saved.ID))
	_, err = s.LoadSnapshot(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
