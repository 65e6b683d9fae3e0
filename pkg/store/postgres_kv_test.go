package store_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/goliatone/go-fieldbind"
	"github.com/goliatone/go-fieldbind/pkg/store"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresKVGetSet(t *testing.T) {
	ctx := context.Background()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	kv, err := store.NewPostgresKV(mockPool)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultTable, kv.Table())

	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO fieldbind_values (key, value, updated_at)")).
		WithArgs("fieldbind.Player.Speed", "3.5").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT value FROM fieldbind_values WHERE key = $1")).
		WithArgs("fieldbind.Player.Speed").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("3.5"))
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT value FROM fieldbind_values WHERE key = $1")).
		WithArgs("fieldbind.Player.Missing").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	require.NoError(t, kv.Set(ctx, "fieldbind.Player.Speed", "3.5"))

	text, ok, err := kv.Get(ctx, "fieldbind.Player.Speed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3.5", text)

	_, ok, err = kv.Get(ctx, "fieldbind.Player.Missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresKVKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	kv, err := store.NewPostgresKV(mockPool, store.WithTable("hud_values"))
	require.NoError(t, err)

	mockPool.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS hud_values")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT key FROM hud_values ORDER BY key")).
		WillReturnRows(pgxmock.NewRows([]string{"key"}).AddRow("a.T.x").AddRow("a.T.x_default"))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM hud_values WHERE key = $1")).
		WithArgs("a.T.x").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, kv.EnsureSchema(ctx))
	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.T.x", "a.T.x_default"}, keys)
	require.NoError(t, kv.Delete(ctx, "a.T.x"))

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresKVPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	kv, err := store.NewPostgresKV(mockPool)
	require.NoError(t, err)

	dbErr := errors.New("connection reset")
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT value FROM fieldbind_values")).
		WithArgs("k.T.m").
		WillReturnError(dbErr)
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO fieldbind_values")).
		WithArgs("k.T.m", "1").
		WillReturnError(dbErr)

	_, _, err = kv.Get(ctx, "k.T.m")
	assert.ErrorIs(t, err, dbErr)
	err = kv.Set(ctx, "k.T.m", "1")
	assert.ErrorIs(t, err, dbErr)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresKVBacksStore(t *testing.T) {
	ctx := context.Background()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	kv, err := store.NewPostgresKV(mockPool)
	require.NoError(t, err)
	s, err := store.New(kv)
	require.NoError(t, err)

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT value FROM fieldbind_values WHERE key = $1")).
		WithArgs("fieldbind.Camera.Zoom_default").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO fieldbind_values")).
		WithArgs("fieldbind.Camera.Zoom_default", "2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	has, err := s.HasDefault(ctx, "fieldbind.Camera.Zoom")
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, s.SaveDefault(ctx, "fieldbind.Camera.Zoom", fieldbind.Float(2)))

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestNewPostgresKVValidates(t *testing.T) {
	_, err := store.NewPostgresKV(nil)
	assert.Error(t, err)

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	_, err = store.NewPostgresKV(mockPool, store.WithTable("values; DROP TABLE users"))
	assert.Error(t, err)
}
