package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Savepoint is a nested transaction scope inside an outer *sql.Tx, the raw-SQL
// equivalent of rusqlite's tx.savepoint(): database/sql and the sqlite driver
// stack have no native savepoint API, so SAVEPOINT / RELEASE SAVEPOINT /
// ROLLBACK TO SAVEPOINT are issued directly.
//
// Savepoints are how the scanner isolates a single archive (or the renamer a
// single file) from the outer per-operation transaction: a failure inside
// rolls back only that nested scope, and the outer transaction continues.
type Savepoint struct {
	tx   *sql.Tx
	name string
}

// Begin opens a new savepoint named name inside tx. Names must be distinct
// within a single transaction's nesting; callers typically derive them from
// a monotonically increasing counter.
func Begin(ctx context.Context, tx *sql.Tx, name string) (*Savepoint, error) {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT %s", name)); err != nil {
		return nil, fmt.Errorf("store: savepoint %s: %w", name, err)
	}
	return &Savepoint{tx: tx, name: name}, nil
}

// Release commits the savepoint's changes into the outer transaction.
func (sp *Savepoint) Release(ctx context.Context) error {
	_, err := sp.tx.ExecContext(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", sp.name))
	if err != nil {
		return fmt.Errorf("store: release savepoint %s: %w", sp.name, err)
	}
	return nil
}

// Rollback undoes everything done since Begin, leaving the outer
// transaction otherwise intact and still open.
func (sp *Savepoint) Rollback(ctx context.Context) error {
	_, err := sp.tx.ExecContext(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", sp.name))
	if err != nil {
		return fmt.Errorf("store: rollback savepoint %s: %w", sp.name, err)
	}
	return nil
}

func (sp *Savepoint) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return sp.tx.QueryRowContext(ctx, query, args...)
}

func (sp *Savepoint) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return sp.tx.QueryContext(ctx, query, args...)
}

func (sp *Savepoint) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return sp.tx.ExecContext(ctx, query, args...)
}

var _ querier = (*Savepoint)(nil)
