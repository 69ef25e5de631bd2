package database

import (
	"context"
	"fmt"
)

// GenericUnitOfWork implements application.UnitOfWork for any database driver.
//
// The outermost Begin opens a transaction. A Begin on a context that already
// carries a transaction opens a SAVEPOINT instead, so that a nested unit can
// be rolled back without discarding the enclosing work.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a new GenericUnitOfWork.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts a transaction, or a savepoint when one is already open.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := TxInfoFromContext(ctx); ok {
		depth := outer.Depth + 1
		name := fmt.Sprintf("sp_%d", depth)
		if _, err := outer.Tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
			return nil, fmt.Errorf("open savepoint %s: %w", name, err)
		}
		return withTxInfo(ctx, TxInfo{Tx: outer.Tx, Savepoint: name, Depth: depth}), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction or releases the savepoint of this unit.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if info.Savepoint != "" {
		if _, err := info.Tx.Exec(ctx, "RELEASE SAVEPOINT "+info.Savepoint); err != nil {
			return fmt.Errorf("release savepoint %s: %w", info.Savepoint, err)
		}
		return nil
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

// Rollback rolls back the transaction, or everything since the savepoint of this unit.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if info.Savepoint != "" {
		if _, err := info.Tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+info.Savepoint); err != nil {
			return fmt.Errorf("rollback to savepoint %s: %w", info.Savepoint, err)
		}
		if _, err := info.Tx.Exec(ctx, "RELEASE SAVEPOINT "+info.Savepoint); err != nil {
			return fmt.Errorf("release savepoint %s: %w", info.Savepoint, err)
		}
		return nil
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
