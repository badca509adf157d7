// Package store implements the auditor's persistent SQL index: dats, sets,
// roms, dirs, files and the matches resolved between them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite-backed index. One Store handle is expected per
// process; every mutating operation runs inside its own transaction, with
// savepoints nested inside for per-archive and per-rename isolation.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the store file at path, running the schema
// migration if needed. The connection is instrumented with OpenTelemetry
// for per-query tracing and connection-pool metrics.
func Open(ctx context.Context, path string) (*Store, error) {
	name := filepath.Base(path)

	conn, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(
			attribute.String("db.system", "sqlite"),
			attribute.String("db.name", name),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitConnPrepare:      true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	_, _ = otelsql.RegisterDBStatsMetrics(conn, otelsql.WithAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.name", name),
	))

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, path: path}
	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the store's backing file path.
func (s *Store) Path() string {
	return s.path
}

// Conn exposes the underlying *sql.DB for packages that build their own
// queries on top of the store's schema (catalog import, scanning).
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// querier is satisfied by *sql.DB, *sql.Tx, and the package's savepoint
// wrapper, so read helpers can run against whichever scope the caller holds.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is the exported form of querier, for callers outside the package
// (the matcher, the scanner, the renamer) that need to accept whichever
// transaction scope — *sql.Tx or *Savepoint — their own caller is holding.
type Querier = querier

var (
	_ querier = (*sql.DB)(nil)
	_ querier = (*sql.Tx)(nil)
)
