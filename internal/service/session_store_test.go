package service

import (
	"context"
	"testing"
	"time"

	"freightchat/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_SharesTrackerPerSession(t *testing.T) {
	store := NewMemorySessionStore(TrackerFactory{Clock: newFakeClock()}, time.Hour)
	ctx := context.Background()

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	a.SetQuestionState("q1", true, "Open load #1234?")

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, b.ShouldSuppress("Open load #1234?"), "sessions are isolated")

	require.NoError(t, store.Delete(ctx, "a"))
	fresh, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)
}

func TestMemorySessionStore_EvictsIdleSessions(t *testing.T) {
	clock := newFakeClock()
	store := NewMemorySessionStore(TrackerFactory{Clock: clock}, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "idle")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = store.Get(ctx, "active")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
}

func newTestRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	clock := newFakeClock()
	store := NewRedisSessionStore(client, TrackerFactory{Clock: clock}, "test:session:", time.Hour, logger.NewNoOpLogger())
	return store, mr, clock
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	store, mr, _ := newTestRedisStore(t)
	ctx := context.Background()

	tracker, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	tracker.SetQuestionState("q1", true, "Send the invoice to Swift?")
	require.NoError(t, store.Save(ctx, "s1", tracker))

	assert.True(t, mr.Exists("test:session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("test:session:s1"))

	loaded, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	id, qctx, pending := loaded.Pending()
	assert.True(t, pending)
	assert.Equal(t, "q1", id)
	assert.Equal(t, "Send the invoice to Swift?", qctx)
}

func TestRedisSessionStore_MissingAndCorrupt(t *testing.T) {
	store, mr, _ := newTestRedisStore(t)
	ctx := context.Background()

	fresh, err := store.Get(ctx, "nobody")
	require.NoError(t, err)
	_, _, pending := fresh.Pending()
	assert.False(t, pending)

	require.NoError(t, mr.Set("test:session:broken", "{not json"))
	healed, err := store.Get(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, healed.ShouldSuppress("anything?"))
}

func TestRedisSessionStore_Delete(t *testing.T) {
	store, mr, _ := newTestRedisStore(t)
	ctx := context.Background()

	tracker, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", tracker))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("test:session:s1"))
}

func TestRedisSessionStore_ConnectionError(t *testing.T) {
	store, mr, _ := newTestRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "s1")
	require.Error(t, err)
}

func TestRedisSessionStore_SuppressionSurvivesRoundTrip(t *testing.T) {
	store, _, clock := newTestRedisStore(t)
	ctx := context.Background()

	tracker, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	tracker.SetQuestionState("q1", true, "Check the POD?")
	tracker.TrackResponse("q1", "Check the POD?", "no")
	require.NoError(t, store.Save(ctx, "s1", tracker))

	loaded, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, loaded.ShouldSuppress("check the pod?"))

	clock.Advance(31 * time.Second)
	assert.False(t, loaded.ShouldSuppress("check the pod?"))
}
