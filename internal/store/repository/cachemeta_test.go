package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelscc/pavilion/internal/store"
)

func newMockMetaRepo(t *testing.T) (*CacheMetaRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewCacheMetaRepository(store.NewDatabaseFromConn(conn)), mock
}

// The upsert must carry the guard predicate so an older fetch outcome can
// never clobber a newer one already committed by a concurrent sync.
const recordGuard = `(?s)ON CONFLICT \(cache_key\) DO UPDATE SET.+` +
	`WHERE cache_meta\.last_fetched_at IS NULL\s+OR cache_meta\.last_fetched_at <= EXCLUDED\.last_fetched_at`

func TestCacheMetaRecordSuccess(t *testing.T) {
	repo, mock := newMockMetaRepo(t)
	fetchedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(recordGuard).
		WithArgs("players", fetchedAt, 24, store.FetchStatusSuccess, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), "players", store.FetchStatusSuccess, fetchedAt, 24, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMetaRecordError(t *testing.T) {
	repo, mock := newMockMetaRepo(t)
	fetchedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(recordGuard).
		WithArgs("players", fetchedAt, 24, store.FetchStatusError, "fetch timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), "players", store.FetchStatusError, fetchedAt, 24, "fetch timeout")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMetaRecordDefaultsTTL(t *testing.T) {
	repo, mock := newMockMetaRepo(t)
	fetchedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(recordGuard).
		WithArgs("players", fetchedAt, store.DefaultTTLHours, store.FetchStatusSuccess, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Record(context.Background(), "players", store.FetchStatusSuccess, fetchedAt, 0, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMetaGetRoundTrip(t *testing.T) {
	repo, mock := newMockMetaRepo(t)
	fetchedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT .+ FROM cache_meta`).
		WithArgs("players").
		WillReturnRows(sqlmock.NewRows([]string{
			"cache_key", "last_fetched_at", "ttl_hours", "fetch_status", "error_message", "updated_at",
		}).AddRow("players", fetchedAt, 24, store.FetchStatusSuccess, nil, fetchedAt))

	meta, err := repo.Get(context.Background(), "players")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "players", meta.CacheKey)
	assert.True(t, meta.LastFetchedAt.Valid)
	assert.Equal(t, fetchedAt, meta.LastFetchedAt.Time)
	assert.Equal(t, 24, meta.TTLHours)
	assert.Equal(t, store.FetchStatusSuccess, meta.FetchStatus)
	assert.False(t, meta.ErrorMessage.Valid)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMetaGetAbsent(t *testing.T) {
	repo, mock := newMockMetaRepo(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM cache_meta`).
		WithArgs("players").
		WillReturnError(sql.ErrNoRows)

	meta, err := repo.Get(context.Background(), "players")
	require.NoError(t, err, "a never-written key is not an error")
	assert.Nil(t, meta)
	require.NoError(t, mock.ExpectationsWereMet())
}
