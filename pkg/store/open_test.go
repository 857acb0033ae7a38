package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RunsInitStatements(t *testing.T) {
	_, mock, err := sqlmock.NewWithDSN("sqlmock_init", sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectExec("SET search_path TO reporting").WillReturnResult(sqlmock.NewResult(0, 0))

	db, err := Open(context.Background(), "sqlmock", "sqlmock_init", []string{"SET search_path TO reporting"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "nosuchdriver", "", nil)
	assert.ErrorContains(t, err, "nosuchdriver")
}

func TestOpen_DuckDB(t *testing.T) {
	db, err := Open(context.Background(), DriverDuckDB, "", []string{"CREATE OR REPLACE TABLE t AS SELECT 42 AS answer"})
	require.NoError(t, err)
	defer db.Close()

	var answer int
	require.NoError(t, db.QueryRow("SELECT answer FROM t").Scan(&answer))
	assert.Equal(t, 42, answer)
}
