package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

func newMockedPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return newPostgresStore(sqlx.NewDb(db, "postgres"), "", zerolog.Nop()), mock
}

func TestPostgresStore_MigrateAppliesInOrder(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS documents`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)CREATE OR REPLACE FUNCTION notify_document_change`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.migrate(context.Background()))
}

func TestPostgresStore_MigrateFailure(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS documents`).WillReturnError(errors.New("permission denied"))

	err := store.migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_documents.sql")
}

func TestPostgresStore_SetMergesJSON(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectExec(`(?s)INSERT INTO documents .* ON CONFLICT \(collection, id\)\s+DO UPDATE SET data = documents.data \|\| EXCLUDED.data`).
		WithArgs("parkingSpots", "s1", `{"available":false,"id":"s1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "parkingSpots", "s1", Document{"available": false}))
}

func TestPostgresStore_SetRequiresID(t *testing.T) {
	store, _ := newMockedPostgres(t)

	assert.Error(t, store.Set(context.Background(), "parkingSpots", "", Document{"available": true}))
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectQuery(`SELECT data FROM documents WHERE collection = \$1 AND id = \$2`).
		WithArgs("users", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Asha"}`)))

	doc, err := store.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", doc.String("name"))
	assert.Equal(t, "u1", doc.String("id"))
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectQuery(`SELECT data FROM documents`).
		WithArgs("users", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	_, err := store.Get(context.Background(), "users", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostgresStore_WhereUsesContainment(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectQuery(`SELECT id, data FROM documents WHERE collection = \$1 AND data @> \$2::jsonb ORDER BY id`).
		WithArgs("parkingSpots", `{"userId":"u1"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).
			AddRow("a", []byte(`{"userId":"u1","available":true}`)).
			AddRow("b", []byte(`{"userId":"u1","available":false}`)))

	docs, err := store.Where(context.Background(), "parkingSpots", "userId", "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].String("id"))
	assert.True(t, docs[0].Bool("available"))
	assert.Equal(t, "b", docs[1].String("id"))
}

func TestPostgresStore_AllDecodeFailure(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectQuery(`SELECT id, data FROM documents WHERE collection = \$1 ORDER BY id`).
		WithArgs("parkingSpots").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).AddRow("a", []byte(`not json`)))

	_, err := store.All(context.Background(), "parkingSpots")
	assert.Error(t, err)
}

func TestPostgresStore_DeleteError(t *testing.T) {
	store, mock := newMockedPostgres(t)

	mock.ExpectExec(`DELETE FROM documents WHERE collection = \$1 AND id = \$2`).
		WithArgs("parkingSpots", "s1").
		WillReturnError(errors.New("connection reset"))

	err := store.Delete(context.Background(), "parkingSpots", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
