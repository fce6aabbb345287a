package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createTrackingSQL = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")
	checkAppliedSQL   = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")
	recordSQL         = regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"002_second.up.sql":  {Data: []byte("ALTER TABLE local_storage ADD COLUMN note TEXT")},
		"001_first.up.sql":   {Data: []byte("CREATE TABLE local_storage (id INT)")},
		"001_first.down.sql": {Data: []byte("DROP TABLE local_storage")},
		"README.md":          {Data: []byte("not a migration")},
	}
}

func existsRows(applied bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"exists"}).AddRow(applied)
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(createTrackingSQL).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery(checkAppliedSQL).WithArgs("001_first.up.sql").WillReturnRows(existsRows(true))

	mock.ExpectQuery(checkAppliedSQL).WithArgs("002_second.up.sql").WillReturnRows(existsRows(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE local_storage")).WillReturnResult(pgxmock.NewResult("ALTER", 0))
	mock.ExpectExec(recordSQL).WithArgs("002_second.up.sql").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = RunMigrations(context.Background(), mock, testMigrations(), discardLogger())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(createTrackingSQL).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(checkAppliedSQL).WithArgs("001_first.up.sql").WillReturnRows(existsRows(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE local_storage")).
		WillReturnError(errors.New(`syntax error at or near "TABLE"`))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations(), discardLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_first.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_TrackingTableFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(createTrackingSQL).WillReturnError(errors.New("permission denied for schema public"))

	err = RunMigrations(context.Background(), mock, testMigrations(), discardLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create schema_migrations table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_ContextCanceledDuringRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(createTrackingSQL).WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = RunMigrations(ctx, mock, testMigrations(), discardLogger())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

type errStr string

func (e errStr) Error() string { return string(e) }

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errStr("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, isConnectionError(errStr("connection reset by peer")))
	assert.True(t, isConnectionError(errStr("unexpected EOF")))
	assert.False(t, isConnectionError(errStr("syntax error at or near")))
	assert.False(t, isConnectionError(errStr("duplicate key value violates unique constraint")))
}
