package redisrepo_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/storage"
	"github.com/jrsteele09/go-appeals-client/storage/redisrepo"
	"github.com/stretchr/testify/require"
)

// Runs only against a real server: REDIS_ADDR=localhost:6379 go test ./storage/redisrepo
func newTestRepo(t *testing.T) *redisrepo.RedisRepo {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := redisrepo.Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)

	key := "eappeal-test:" + uuid.NewString()
	t.Cleanup(func() {
		_ = client.Del(ctx, key).Err()
		_ = client.Close()
	})
	return redisrepo.New(client, key)
}

func TestRedisRepo_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := storage.New(repo)

	require.NoError(t, svc.SetTokens(ctx, "T1", "R1"))
	pair, ok := svc.Tokens(ctx)
	require.True(t, ok)
	require.Equal(t, "T1", pair.Access)
	require.Equal(t, "R1", pair.Refresh)

	require.NoError(t, repo.Remove(ctx, storage.KeyAccessToken))
	_, err := repo.Get(ctx, storage.KeyAccessToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.ClearAll(ctx))
	_, ok = svc.RefreshToken(ctx)
	require.False(t, ok)
}
