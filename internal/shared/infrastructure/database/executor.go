package database

import (
	"context"
	"database/sql"
)

// Row is one scanned result row: a pgx.Row on Postgres, a *sql.Row on the
// modernc SQLite connection.
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set. pgx.Rows is adapted to it in the postgres
// package; *sql.Rows satisfies it as is.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports what an Exec changed. sql.Result satisfies it; Postgres
// has no LastInsertId and the planning tables never ask for one.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Executor runs SQL against a connection or an open transaction.
// Repositories write "?" placeholders and pass them through Rebind, and they
// pick the executor with ExecutorFromContext so a unit of work's transaction
// is used when one is open.
type Executor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// QueryRow runs a query expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...any) Row

	// Query runs a query and returns its rows; the caller closes them.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that ends with Commit or Rollback. Savepoints
// are issued through Exec by GenericUnitOfWork.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is the driver-specific entry point registered with
// RegisterDriver by the sqlite and postgres packages.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// WrapSQLResult adapts a database/sql result.
func WrapSQLResult(r sql.Result) Result {
	return r
}

// WrapSQLRows adapts database/sql rows.
func WrapSQLRows(r *sql.Rows) Rows {
	return r
}
