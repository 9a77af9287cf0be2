package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	v, err := s.Get(ctx, "forecasts")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set(ctx, "forecasts", `[{"id":"a"}]`))
	require.NoError(t, s.Set(ctx, "forecasts", `[]`))
	v, err = s.Get(ctx, "forecasts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	assert.NoError(t, s.Ping(ctx))
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	require.NoError(t, s.Set(ctx, "player_name", "Jo"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "player_name")
	require.NoError(t, err)
	assert.Equal(t, "Jo", v)
}

func TestStore_ClosedDatabaseErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", "v"))
}
