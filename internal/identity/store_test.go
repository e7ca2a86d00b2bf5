package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/localstore"
	"github.com/kamikazebr/parkspot/pkg/models"
)

func newTestStore(t *testing.T, remote docstore.Store, opts ...Option) (*Store, *localstore.FileStore) {
	t.Helper()
	local, err := localstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	store := NewStore(local, remote, zerolog.Nop(), opts...)
	t.Cleanup(store.Close)
	return store, local
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestGetCurrentUser_NoneSaved(t *testing.T) {
	store, _ := newTestStore(t, docstore.NewMemoryStore())

	user, err := store.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSaveCurrentUser_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t, docstore.NewMemoryStore())
	ctx := context.Background()

	user := &models.User{ID: "u1", Name: "  Asha "}
	require.NoError(t, store.SaveCurrentUser(ctx, user))
	assert.Equal(t, "Asha", user.Name)

	got, err := store.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.User{ID: "u1", Name: "Asha"}, *got)
}

func TestSaveCurrentUser_AssignsID(t *testing.T) {
	store, _ := newTestStore(t, nil)

	user := &models.User{Name: "Ravi"}
	require.NoError(t, store.SaveCurrentUser(context.Background(), user))
	assert.NotEmpty(t, user.ID)
}

func TestSaveCurrentUser_RejectsBlankName(t *testing.T) {
	store, _ := newTestStore(t, nil)

	err := store.SaveCurrentUser(context.Background(), &models.User{ID: "u1", Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	got, err := store.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveCurrentUser_RemoteFailureStillSavesLocally(t *testing.T) {
	remote := docstore.NewMemoryStore()
	remote.SetFailure(errors.New("unavailable"))
	store, _ := newTestStore(t, remote)
	ctx := context.Background()

	require.NoError(t, store.SaveCurrentUser(ctx, &models.User{ID: "u1", Name: "Asha"}))
	flush(t, store)

	got, err := store.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)
}

func TestSaveCurrentUser_MirrorsRemotely(t *testing.T) {
	remote := docstore.NewMemoryStore()
	store, _ := newTestStore(t, remote)
	ctx := context.Background()

	require.NoError(t, store.SaveCurrentUser(ctx, &models.User{ID: "u1", Name: "Asha"}))
	flush(t, store)

	doc, err := remote.Get(ctx, UsersCollection, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", doc.String("name"))

	looked, err := store.LookupRemote(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, looked)
	assert.Equal(t, "Asha", looked.Name)
}

func TestGetCurrentUser_RepairsMissingMirror(t *testing.T) {
	remote := docstore.NewMemoryStore()
	remote.SetFailure(errors.New("unavailable"))
	store, _ := newTestStore(t, remote)
	ctx := context.Background()

	require.NoError(t, store.SaveCurrentUser(ctx, &models.User{ID: "u1", Name: "Asha"}))
	flush(t, store)

	remote.SetFailure(nil)
	_, err := store.GetCurrentUser(ctx)
	require.NoError(t, err)
	flush(t, store)

	_, err = remote.Get(ctx, UsersCollection, "u1")
	assert.NoError(t, err)
}

func TestLookupRemote_Absent(t *testing.T) {
	store, _ := newTestStore(t, docstore.NewMemoryStore())

	user, err := store.LookupRemote(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLookupRemote_TransportError(t *testing.T) {
	remote := docstore.NewMemoryStore()
	store, _ := newTestStore(t, remote)
	remote.SetFailure(errors.New("unavailable"))

	_, err := store.LookupRemote(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestGetCurrentUser_CorruptRecord(t *testing.T) {
	store, local := newTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, local.Put(ctx, localstore.KeyCurrentUser, []byte("{not json")))

	_, err := store.GetCurrentUser(ctx)
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	store, _ := newTestStore(t, docstore.NewMemoryStore())
	require.NoError(t, store.SaveCurrentUser(context.Background(), &models.User{ID: "u1", Name: "Asha"}))

	store.Close()
	store.Close()

	// Writes after Close are ignored rather than panicking
	require.NoError(t, store.SaveCurrentUser(context.Background(), &models.User{ID: "u1", Name: "Asha"}))
	assert.NoError(t, store.Flush(context.Background()))
}
