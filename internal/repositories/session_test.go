package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/redis"
)

func testCache(t *testing.T) cache.Cache {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := redis.Open(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	return cache.NewRedisCache(client)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionCached(testCache(t), time.Minute)

	_, err := sessions.Get(ctx, "flow-1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	token := domain.SessionToken{RequestID: "req-1", SessionID: "sess-1"}
	require.NoError(t, sessions.Set(ctx, "flow-1", token))

	got, err := sessions.Get(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	require.NoError(t, sessions.Delete(ctx, "flow-1"))
	_, err = sessions.Get(ctx, "flow-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionCached(testCache(t), time.Minute)

	require.NoError(t, sessions.Set(ctx, "flow-1", domain.SessionToken{RequestID: "r1", SessionID: "s1"}))
	require.NoError(t, sessions.Set(ctx, "flow-2", domain.SessionToken{RequestID: "r2", SessionID: "s2"}))

	got, err := sessions.Get(ctx, "flow-2")
	require.NoError(t, err)
	assert.Equal(t, "s2", got.SessionID)

	require.NoError(t, sessions.Delete(ctx, "flow-1"))
	_, err = sessions.Get(ctx, "flow-2")
	require.NoError(t, err)
}
