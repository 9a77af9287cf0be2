//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/redis"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/couchcryptid/storm-forecast-verifier/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisStore checks keys are namespaced by prefix and survive reconnects.
func TestRedisStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	url := startRedis(ctx, t)

	a, err := redis.Open(ctx, url, "a:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err := redis.Open(ctx, url, "b:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	v, err := a.Get(ctx, session.KeyPlayerName)
	require.NoError(t, err)
	assert.Empty(t, v, "missing key reads as empty")

	require.NoError(t, a.Set(ctx, session.KeyPlayerName, "alice"))
	require.NoError(t, b.Set(ctx, session.KeyPlayerName, "bob"))

	again, err := redis.Open(ctx, url, "a:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })
	v, err = again.Get(ctx, session.KeyPlayerName)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

// TestRedisBackedSession drives a session's player and leaderboard through a
// real Redis server.
func TestRedisBackedSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	url := startRedis(ctx, t)
	store, err := redis.Open(ctx, url, "verifier-test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sess := session.New(store, nil, nil, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, sess.CheckReadiness(ctx))

	name, err := sess.SetPlayer(ctx, "  Storm Chaser  ")
	require.NoError(t, err)
	got, err := sess.Player(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, got)

	lb, err := sess.RebuildLeaderboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, lb)

	entries, err := sess.Leaderboard(ctx, domain.DefaultLeaderboardSize)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
