package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T, limit int) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewRedis(client, "test", Rule{Name: "login", Limit: limit, Window: time.Minute})
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l, srv
}

func TestRedis_Allow(t *testing.T) {
	l, _ := newRedis(t, 2)
	ctx := context.Background()

	res, err := l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC), res.ResetAt.UTC())
}

func TestRedis_Undo(t *testing.T) {
	l, srv := newRedis(t, 1)
	ctx := context.Background()

	res, err := l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.NoError(t, l.Undo(ctx, "ip-1", res))

	res, err = l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Ключ другого окна не создается и не уходит в минус.
	stale := Result{ResetAt: res.ResetAt.Add(-time.Minute)}
	require.NoError(t, l.Undo(ctx, "ip-1", stale))
	require.NoError(t, l.Undo(ctx, "ip-2", res))
	assert.Len(t, srv.Keys(), 1)
}

func TestRedis_KeyExpires(t *testing.T) {
	l, srv := newRedis(t, 1)
	ctx := context.Background()

	_, err := l.Allow(ctx, "ip-1")
	require.NoError(t, err)

	keys := srv.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:login:ip-1:")
	assert.Equal(t, time.Minute, srv.TTL(keys[0]))
}

func TestRedis_FailClosed(t *testing.T) {
	l, srv := newRedis(t, 1)
	srv.Close()

	res, err := l.Allow(context.Background(), "ip-1")
	assert.Error(t, err)
	assert.False(t, res.Allowed)

	assert.Error(t, l.Undo(context.Background(), "ip-1", res))
}

func TestNewRedis_RequiresClient(t *testing.T) {
	_, err := NewRedis(nil, "", Rule{Limit: 1, Window: time.Second})
	assert.Error(t, err)
}
