package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, kv.Len())

	require.NoError(t, kv.Remove(ctx, "k"))
	require.NoError(t, kv.Remove(ctx, "k"), "removing a missing key is a no-op")
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}

// --- PostgreSQL ---

func newPostgres(t *testing.T) (*PostgresKV, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresKV(mock), mock
}

func TestPostgresKV_Get(t *testing.T) {
	kv, mock := newPostgres(t)
	query := regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)

	mock.ExpectQuery(query).WithArgs("history:u1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`[{"id":"a"}]`))
	v, ok, err := kv.Get(context.Background(), "history:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, v)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, ok, err = kv.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(query).WithArgs("broken").WillReturnError(errors.New("connection reset"))
	_, _, err = kv.Get(context.Background(), "broken")
	assert.ErrorContains(t, err, "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_SetAndRemove(t *testing.T) {
	kv, mock := newPostgres(t)

	mock.ExpectExec("INSERT INTO kv_store").WithArgs("k", "v").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM kv_store").WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM kv_store").WithArgs("k").
		WillReturnError(errors.New("read-only transaction"))

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", "v"))
	require.NoError(t, kv.Remove(ctx, "k"))
	assert.Error(t, kv.Remove(ctx, "k"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_EnsureSchema(t *testing.T) {
	kv, mock := newPostgres(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, kv.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- Redis cache ---

const ttl = 30 * time.Second

func TestCachedKV_HitSkipsPrimary(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	primary := NewMemoryKV()
	kv := NewCachedKV(primary, rdb, ttl)

	mock.ExpectGet("kv:k").SetVal("cached")
	v, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached", v)
	assert.Equal(t, 0, primary.Len())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedKV_MissPopulatesCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	primary := NewMemoryKV()
	require.NoError(t, primary.Set(context.Background(), "k", "stored"))
	kv := NewCachedKV(primary, rdb, ttl)

	mock.ExpectGet("kv:k").RedisNil()
	mock.ExpectSet("kv:k", "stored", ttl).SetVal("OK")

	v, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "stored", v)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedKV_MissingKeyIsNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	kv := NewCachedKV(NewMemoryKV(), rdb, ttl)

	mock.ExpectGet("kv:k").RedisNil()
	_, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedKV_RedisDownFallsBackToPrimary(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	primary := NewMemoryKV()
	require.NoError(t, primary.Set(context.Background(), "k", "stored"))
	kv := NewCachedKV(primary, rdb, ttl)

	mock.ExpectGet("kv:k").SetErr(errors.New("dial tcp: connection refused"))
	mock.ExpectSet("kv:k", "stored", ttl).SetErr(errors.New("dial tcp: connection refused"))

	v, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "stored", v)
}

func TestCachedKV_WritesInvalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	primary := NewMemoryKV()
	kv := NewCachedKV(primary, rdb, ttl)
	ctx := context.Background()

	mock.ExpectDel("kv:k").SetVal(1)
	require.NoError(t, kv.Set(ctx, "k", "v"))
	v, _, _ := primary.Get(ctx, "k")
	assert.Equal(t, "v", v)

	mock.ExpectDel("kv:k").SetVal(1)
	require.NoError(t, kv.Remove(ctx, "k"))
	assert.Equal(t, 0, primary.Len())

	require.NoError(t, mock.ExpectationsWereMet())
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(context.Context, string, string) error         { return f.err }
func (f failingKV) Remove(context.Context, string) error              { return f.err }

func TestCachedKV_PrimaryWriteFailureKeepsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	boom := errors.New("primary down")
	kv := NewCachedKV(failingKV{boom}, rdb, ttl)

	err := kv.Set(context.Background(), "k", "v")
	assert.ErrorIs(t, err, boom)
	// No DEL was expected, so the cache was untouched.
	require.NoError(t, mock.ExpectationsWereMet())
}
