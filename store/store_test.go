package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMiniredis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

func TestMemoryStoreSaveLoadDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conversation:1", []byte("payload"), time.Minute))

	v, found, err := s.Load(ctx, "conversation:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", string(v))

	ok, err := s.Exists(ctx, "conversation:1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "conversation:1"))
	_, found, err = s.Load(ctx, "conversation:1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreNoTTLEnforcement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte("v"), time.Nanosecond))

	_, ok, err := s.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found, "in-process fallback never expires entries on its own")
}

func TestMemoryStoreGetAllActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "conversation:1", []byte("a"), 0))
	require.NoError(t, s.Save(ctx, "conversation:2", []byte("b"), 0))
	require.NoError(t, s.Save(ctx, "metrics:query:x", []byte("c"), 0))

	keys, err := s.GetAllActive(ctx, "conversation:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"conversation:1", "conversation:2"}, keys)
}

func TestMemoryStorePendingFeedbackOrderedByTime(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.AddPendingFeedback(ctx, "req-2", now.Add(time.Second)))
	require.NoError(t, s.AddPendingFeedback(ctx, "req-1", now))

	ids, err := s.ListPendingFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1", "req-2"}, ids)

	require.NoError(t, s.RemovePendingFeedback(ctx, "req-1"))
	ids, err = s.ListPendingFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"req-2"}, ids)
}

// ---------------------------------------------------------------------------
// RedisStore (via miniredis)
// ---------------------------------------------------------------------------

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	client := setupMiniredis(t)
	s := NewRedisStoreWithClient(client)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "conversation:1", []byte("payload"), time.Minute))

	v, found, err := s.Load(ctx, "conversation:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", string(v))

	ttl, ok, err := s.GetTTL(ctx, "conversation:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "conversation:1"))
	_, found, err = s.Load(ctx, "conversation:1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStorePendingFeedback(t *testing.T) {
	client := setupMiniredis(t)
	s := NewRedisStoreWithClient(client)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AddPendingFeedback(ctx, "req-b", now.Add(time.Second)))
	require.NoError(t, s.AddPendingFeedback(ctx, "req-a", now))

	ids, err := s.ListPendingFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"req-a", "req-b"}, ids)
}

// ---------------------------------------------------------------------------
// SwitchingStore
// ---------------------------------------------------------------------------

func TestSwitchingStoreStartsOnFallbackWhenExternalNil(t *testing.T) {
	s := NewSwitchingStore(nil, zap.NewNop())
	assert.True(t, s.Downgraded())

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte("v"), time.Minute))
	v, found, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))
}

func TestSwitchingStorePrefersExternal(t *testing.T) {
	client := setupMiniredis(t)
	external := NewRedisStoreWithClient(client)
	s := NewSwitchingStore(external, zap.NewNop())
	assert.False(t, s.Downgraded())

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte("v"), time.Minute))

	v, found, err := external.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))
}

func TestSwitchingStoreDowngradesOnFailureAndStays(t *testing.T) {
	client := setupMiniredis(t)
	external := NewRedisStoreWithClient(client)
	s := NewSwitchingStore(external, zap.NewNop())

	// Close the underlying client to force every subsequent call to fail.
	require.NoError(t, client.Close())

	ctx := context.Background()
	err := s.Save(ctx, "k", []byte("v"), time.Minute)
	require.NoError(t, err, "falls through to the in-process store on external failure")
	assert.True(t, s.Downgraded())

	v, found, loadErr := s.Load(ctx, "k")
	require.NoError(t, loadErr)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))
}
