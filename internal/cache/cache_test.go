package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string  `json:"name"`
	Miles float64 `json:"miles"`
}

func newStore(t *testing.T) (*Store[entry], *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New[entry](client, "trail:", time.Minute, nil), s
}

func TestSetGetDelete(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)

	store.Set(ctx, "a", entry{Name: "Ridge Loop", Miles: 4.2})
	got, ok := store.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, entry{Name: "Ridge Loop", Miles: 4.2}, got)
	assert.True(t, mr.Exists("trail:a"))

	mr.FastForward(2 * time.Minute)
	_, ok = store.Get(ctx, "a")
	assert.False(t, ok, "entry should expire")

	store.Set(ctx, "a", entry{Name: "x"})
	store.Set(ctx, "b", entry{Name: "y"})
	store.Delete(ctx, "a", "b")
	assert.False(t, mr.Exists("trail:a"))
	assert.False(t, mr.Exists("trail:b"))
}

func TestCorruptEntryIsMiss(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("trail:bad", "{not json"))

	_, ok := store.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisDownIsMiss(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	store.Set(context.Background(), "a", entry{Name: "x"})
	_, ok := store.Get(context.Background(), "a")
	assert.False(t, ok)
	store.Delete(context.Background(), "a")
}

func TestNilClientDisablesCache(t *testing.T) {
	store := New[entry](nil, "trail:", time.Minute, nil)
	ctx := context.Background()

	store.Set(ctx, "a", entry{Name: "x"})
	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)
	store.Delete(ctx, "a")
}
