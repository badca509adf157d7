package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err, "should open database without error")
	defer func() { _ = s.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
	assert.Equal(t, dbPath, s.Path())
}

func TestSchemaVersion(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var version int
	err = s.Conn().QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version, "schema version should be 1")
}

func TestTablesExist(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	tables := []string{"dats", "sets", "roms", "dirs", "files", "matches", "schema_version"}
	for _, table := range tables {
		var name string
		err := s.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(context.Background(), dbPath)
		require.NoError(t, err, "should open database on attempt %d", i+1)
		_ = s.Close()
	}

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var version int
	err = s.Conn().QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version, "schema version should still be 1 after multiple opens")
}

func TestMatchesAllowMultipleCandidatesPerFile(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	conn := s.Conn()

	_, err = conn.ExecContext(ctx, `INSERT INTO dats (id, name) VALUES (1, 'test')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO sets (id, dat_id, name) VALUES (1, 1, 'game')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO sets (id, dat_id, name) VALUES (2, 1, 'game clone')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO roms (id, dat_id, set_id, name, size) VALUES (1, 1, 1, 'rom.bin', '1')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO roms (id, dat_id, set_id, name, size) VALUES (2, 1, 2, 'rom.bin', '1')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO dirs (id, dat_id, path) VALUES (1, 1, '.')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO files (id, dir_id, name, size) VALUES (1, 1, 'rom.bin', '1')`)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO matches (dat_id, file_id, set_id, rom_id, status) VALUES (1, 1, 1, 1, 'hash')`)
	require.NoError(t, err)

	// A second candidate for the same file, naming a different (set, rom)
	// pair, is the multi-candidate model the matcher relies on and must
	// succeed.
	_, err = conn.ExecContext(ctx, `INSERT INTO matches (dat_id, file_id, set_id, rom_id, status) VALUES (1, 1, 2, 2, 'hash')`)
	assert.NoError(t, err, "a second match row naming a different (set_id, rom_id) for the same file must be allowed")

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE file_id = 1`).Scan(&count))
	assert.Equal(t, 2, count)

	// Re-inserting the exact same (file_id, set_id, rom_id) triple still
	// must conflict.
	_, err = conn.ExecContext(ctx, `INSERT INTO matches (dat_id, file_id, set_id, rom_id, status) VALUES (1, 1, 1, 1, 'match')`)
	assert.Error(t, err, "a duplicate (file_id, set_id, rom_id) triple should violate the UNIQUE constraint")
}

func TestForeignKeysEnforced(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Conn().ExecContext(context.Background(),
		`INSERT INTO sets (id, dat_id, name) VALUES (1, 999, 'orphan')`)
	assert.Error(t, err, "inserting a set referencing a missing dat should fail")
}

func TestClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)

	err = s.Close()
	assert.NoError(t, err)

	_, err = s.Conn().Query("SELECT 1")
	assert.Error(t, err)
}

func TestConn(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	conn := s.Conn()
	assert.NotNil(t, conn)
	assert.NoError(t, conn.Ping())
}
