// SPDX-License-Identifier: Apache-2.0

package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalpainternational/dbsamizdat-go/pkg/db"
	"github.com/catalpainternational/dbsamizdat-go/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestQueryContextRetriesOnLockTimeout(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		rows, err := rdb.QueryContext(ctx, "SELECT COUNT(*) FROM test")
		require.NoError(t, err)

		var count int
		assert.NoError(t, db.ScanFirstValue(rows, &count))
		assert.Equal(t, 0, count)
	})
}

func TestQueryContextWhenContextCancelled(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx, cancel := context.WithCancel(context.Background())
		setupTableLock(t, connStr, 2*time.Second)
		ensureLockTimeout(t, conn, 100)

		rdb := &db.RDB{DB: conn}
		go time.AfterFunc(500*time.Millisecond, cancel)

		_, err := rdb.QueryContext(ctx, "SELECT COUNT(*) FROM test")
		require.Errorf(t, err, "context canceled")
	})
}

func TestSavepointRollbackToPreservesOuterTransaction(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, _ string) {
		ctx := context.Background()
		_, err := conn.ExecContext(ctx, "CREATE TABLE savepoint_demo (id INT PRIMARY KEY)")
		require.NoError(t, err)

		rdb := &db.RDB{DB: conn}
		tx, err := rdb.Begin(ctx)
		require.NoError(t, err)

		_, err = tx.ExecContext(ctx, "INSERT INTO savepoint_demo (id) VALUES (1)")
		require.NoError(t, err)

		require.NoError(t, tx.Savepoint(ctx, "action_test"))
		_, err = tx.ExecContext(ctx, "INSERT INTO savepoint_demo (id) VALUES (1)") // duplicate PK, fails
		require.Error(t, err)
		require.NoError(t, tx.RollbackTo(ctx, "action_test"))
		require.NoError(t, tx.Release(ctx, "action_test"))

		require.NoError(t, tx.Commit(ctx))

		var count int
		row := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM savepoint_demo")
		require.NoError(t, row.Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestMogrifyEscapesJSONLiteral(t *testing.T) {
	t.Parallel()

	rdb := &db.RDB{}
	out, err := rdb.Mogrify("COMMENT ON VIEW x IS $1", `{"dbsamizdat": {"version": 1}}`)
	require.NoError(t, err)
	assert.Contains(t, out, `dbsamizdat`)
	assert.Contains(t, out, `'`)
}

func setupTableLock(t *testing.T, connStr string, d time.Duration) {
	t.Helper()
	ctx := context.Background()

	conn2, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	_, err = conn2.ExecContext(ctx, "CREATE TABLE test (id INT PRIMARY KEY)")
	require.NoError(t, err)

	errCh := make(chan error)
	go func() {
		tx, err := conn2.Begin()
		if err != nil {
			errCh <- err
			return
		}
		if _, err := tx.ExecContext(ctx, "LOCK TABLE test IN ACCESS EXCLUSIVE MODE"); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
		time.Sleep(d)
		tx.Commit()
	}()

	require.NoError(t, <-errCh)
}

func ensureLockTimeout(t *testing.T, conn *sql.DB, ms int) {
	t.Helper()

	query := fmt.Sprintf("SET lock_timeout = '%dms'", ms)
	_, err := conn.ExecContext(context.Background(), query)
	require.NoError(t, err)

	var lockTimeout string
	err = conn.QueryRowContext(context.Background(), "SHOW lock_timeout").Scan(&lockTimeout)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%dms", ms), lockTimeout)
}
