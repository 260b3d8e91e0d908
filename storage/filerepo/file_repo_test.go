package filerepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/storage"
	"github.com/jrsteele09/go-appeals-client/storage/filerepo"
	"github.com/stretchr/testify/require"
)

func TestFileRepo_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := filerepo.New(path)
	require.NoError(t, first.Set(ctx, storage.KeyAccessToken, "T1"))
	require.NoError(t, first.Set(ctx, storage.KeyRefreshToken, "R1"))

	second := filerepo.New(path)
	v, err := second.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "T1", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileRepo_MissingKeyAndClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	repo := filerepo.New(path)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "k", "v"))
	require.NoError(t, repo.Remove(ctx, "k"))
	require.NoError(t, repo.Remove(ctx, "k"))

	require.NoError(t, repo.Set(ctx, "k", "v"))
	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Clear(ctx))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileRepo_Encrypted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.bin")

	repo := filerepo.New(path, filerepo.WithPassphrase("correct horse"))
	require.NoError(t, repo.Set(ctx, storage.KeyAccessToken, "super-secret-access"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-access")

	v, err := filerepo.New(path, filerepo.WithPassphrase("correct horse")).Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "super-secret-access", v)

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := filerepo.New(path, filerepo.WithPassphrase("wrong")).Get(ctx, storage.KeyAccessToken)
		require.ErrorIs(t, err, filerepo.ErrDecrypt)
	})

	t.Run("wrong passphrase reads as absent through the service", func(t *testing.T) {
		svc := storage.New(filerepo.New(path, filerepo.WithPassphrase("wrong")))
		_, ok := svc.AccessToken(ctx)
		require.False(t, ok)
	})
}

func TestFileRepo_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	repo := filerepo.New(path)
	_, err := repo.Get(ctx, storage.KeyAccessToken)
	require.Error(t, err)

	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Set(ctx, storage.KeyAccessToken, "T2"))
	v, err := repo.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "T2", v)
}
