package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

func runStoreBehaviour(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, KeyCurrentUser)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, store.Put(ctx, KeyCurrentUser, []byte(`{"id":"u1","name":"Asha"}`)))
	got, err := store.Get(ctx, KeyCurrentUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","name":"Asha"}`, string(got))

	require.NoError(t, store.Put(ctx, KeyCurrentUser, []byte(`{"id":"u1","name":"Ravi"}`)))
	got, err = store.Get(ctx, KeyCurrentUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","name":"Ravi"}`, string(got))

	require.NoError(t, store.Delete(ctx, KeyCurrentUser))
	require.NoError(t, store.Delete(ctx, KeyCurrentUser))
	_, err = store.Get(ctx, KeyCurrentUser)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Error(t, store.Put(ctx, "../escape", []byte("x")))
}

func TestFileStore_Behaviour(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreBehaviour(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, KeyParkingSpots, []byte(`[]`)))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, KeyParkingSpots)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	info, err := os.Stat(filepath.Join(dir, "parking_spots.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, ".parkspot", filepath.Base(dir))
}
