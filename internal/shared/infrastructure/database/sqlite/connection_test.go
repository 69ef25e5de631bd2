package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/ganttline/internal/shared/application"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()

	conn, err := NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	return conn
}

func countItems(t *testing.T, conn database.Connection) int {
	t.Helper()
	var count int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM items`).Scan(&count))
	return count
}

func TestNewConnection(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_RegisteredDriver(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		URL: filepath.Join(t.TempDir(), "nested", "data.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	result, err := conn.Exec(ctx, `INSERT INTO items (id, name) VALUES (?, ?)`, "1", "Design")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = conn.Exec(ctx, `INSERT INTO items (id, name) VALUES (?, ?)`, "2", "Build")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT name FROM items ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Design", "Build"}, names)
}

func TestUnitOfWork_NestedRollbackKeepsOuterWork(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, conn)
		if _, err := exec.Exec(ctx, `INSERT INTO items (id, name) VALUES ('1', 'outer')`); err != nil {
			return err
		}

		spCtx, err := uow.Begin(ctx)
		if err != nil {
			return err
		}
		info, ok := database.TxInfoFromContext(spCtx)
		require.True(t, ok)
		assert.Equal(t, "sp_1", info.Savepoint)

		if _, err := database.ExecutorFromContext(spCtx, conn).Exec(spCtx, `INSERT INTO items (id, name) VALUES ('2', 'inner')`); err != nil {
			return err
		}
		return uow.Rollback(spCtx)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countItems(t, conn))
}

func TestUnitOfWork_NestedCommitIsKeptByOuterCommit(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		return application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			_, err := database.ExecutorFromContext(ctx, conn).Exec(ctx, `INSERT INTO items (id, name) VALUES ('1', 'inner')`)
			return err
		})
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countItems(t, conn))
}

func TestUnitOfWork_OuterRollbackDiscardsReleasedSavepoint(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, application.WithUnitOfWork(txCtx, uow, func(ctx context.Context) error {
		_, err := database.ExecutorFromContext(ctx, conn).Exec(ctx, `INSERT INTO items (id, name) VALUES ('1', 'inner')`)
		return err
	}))
	require.NoError(t, uow.Rollback(txCtx))

	assert.Equal(t, 0, countItems(t, conn))
}

func TestUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow := database.NewUnitOfWork(openTestConnection(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), database.ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), database.ErrNoTransaction)
}

func TestTransaction_ResultAndRowsPassThrough(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)

	result, err := tx.Exec(ctx, `INSERT INTO items (id, name) VALUES (?, ?), (?, ?)`, "1", "Design", "2", "Build")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	lastID, err := result.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(2), lastID, "rowid of the last inserted row")

	rows, err := tx.Query(ctx, `SELECT id FROM items WHERE name = ?`, "Build")
	require.NoError(t, err)
	require.True(t, rows.Next())
	var id string
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, "2", id)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 0, countItems(t, conn))
}
