package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
	"github.com/anisearchapp/anisearch-bot/internal/store"
)

const (
	selectUserQuery = `(?s)^SELECT\s+id,\s*username,\s*registered_at,\s*last_active_at,\s*blocked\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	insertUserQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*registered_at,\s*last_active_at,\s*blocked\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(id\)\s*DO\s+NOTHING\s*$`
	touchUserQuery  = `(?s)^UPDATE\s+users\s+SET\s+last_active_at\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	blockUserQuery  = `(?s)^UPDATE\s+users\s+SET\s+blocked\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestGetUser_Found(t *testing.T) {
	s, mock := newStoreWithMock(t)
	registered := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	active := registered.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "username", "registered_at", "last_active_at", "blocked"}).
		AddRow(int64(42), "kaori", registered, active, true)
	mock.ExpectQuery(selectUserQuery).WithArgs(int64(42)).WillReturnRows(rows)

	got, err := s.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "kaori", got.Username)
	assert.True(t, registered.Equal(got.RegisteredAt))
	assert.True(t, active.Equal(got.LastActiveAt))
	assert.True(t, got.Blocked)
}

func TestGetUser_NullUsername(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "username", "registered_at", "last_active_at", "blocked"}).
		AddRow(int64(7), nil, time.Now(), time.Now(), false)
	mock.ExpectQuery(selectUserQuery).WithArgs(int64(7)).WillReturnRows(rows)

	got, err := s.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got.Username)
}

func TestGetUser_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectUserQuery).WithArgs(int64(1)).WillReturnError(sql.ErrNoRows)

	_, err := s.GetUser(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetUser_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectUserQuery).WithArgs(int64(1)).WillReturnError(errors.New("db down"))

	_, err := s.GetUser(context.Background(), 1)
	assert.ErrorIs(t, err, domainerrors.ErrStorage)
	assert.ErrorContains(t, err, "db down")
}

func TestCreateUser_Inserted(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(insertUserQuery).
		WithArgs(int64(42), sql.NullString{String: "kaori", Valid: true}, sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := s.CreateUser(context.Background(), domain.NewUser(42, "kaori", time.Now()))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateUser_Conflict(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(insertUserQuery).
		WithArgs(int64(42), sql.NullString{}, sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := s.CreateUser(context.Background(), domain.NewUser(42, "", time.Now()))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateUser_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(insertUserQuery).WillReturnError(errors.New("connection reset"))

	_, err := s.CreateUser(context.Background(), domain.NewUser(1, "u", time.Now()))
	assert.ErrorIs(t, err, domainerrors.ErrStorage)
}

func TestTouchUser(t *testing.T) {
	s, mock := newStoreWithMock(t)
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(touchUserQuery).WithArgs(at, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(touchUserQuery).WithArgs(at, int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.TouchUser(context.Background(), 5, at))
	assert.ErrorIs(t, s.TouchUser(context.Background(), 6, at), store.ErrUserNotFound)
}

func TestSetUserBlocked(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(blockUserQuery).WithArgs(true, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(blockUserQuery).WithArgs(false, int64(5)).WillReturnError(errors.New("boom"))

	require.NoError(t, s.SetUserBlocked(context.Background(), 5, true))
	assert.ErrorIs(t, s.SetUserBlocked(context.Background(), 5, false), domainerrors.ErrStorage)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("unreachable"))
	assert.ErrorIs(t, s.Ping(context.Background()), domainerrors.ErrStorage)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, s.Close(), "stores built with New do not own the pool")
}
