package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate runs the one-shot forward migration that brings a store up
// to the current shape. A brand-new file and a file carrying the legacy
// inline file.status/set_id/rom_id columns both pass through the same path:
// the legacy tables are created if absent, then immediately folded into the
// matches-table shape.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, db); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

func migrateV1(ctx context.Context, db *sql.DB) error {
	// PRAGMA foreign_keys is a no-op inside a transaction, so it is toggled
	// on one pinned connection around the migration transaction.
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	legacy := `
		CREATE TABLE IF NOT EXISTS dats (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			hash_algo TEXT NOT NULL DEFAULT 'sha1'
		);

		CREATE TABLE IF NOT EXISTS sets (
			id INTEGER PRIMARY KEY,
			dat_id INTEGER NOT NULL REFERENCES dats(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sets_dat_id ON sets(dat_id);
		CREATE INDEX IF NOT EXISTS idx_sets_dat_name ON sets(dat_id, name);

		CREATE TABLE IF NOT EXISTS roms (
			id INTEGER PRIMARY KEY,
			dat_id INTEGER NOT NULL REFERENCES dats(id) ON DELETE CASCADE,
			set_id INTEGER NOT NULL REFERENCES sets(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			size TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_roms_set_id ON roms(set_id);
		CREATE INDEX IF NOT EXISTS idx_roms_dat_hash ON roms(dat_id, hash);
		CREATE INDEX IF NOT EXISTS idx_roms_dat_name ON roms(dat_id, name);

		CREATE TABLE IF NOT EXISTS dirs (
			id INTEGER PRIMARY KEY,
			dat_id INTEGER NOT NULL REFERENCES dats(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			parent_id INTEGER REFERENCES dirs(id) ON DELETE CASCADE,
			UNIQUE(dat_id, path)
		);
		CREATE INDEX IF NOT EXISTS idx_dirs_parent_id ON dirs(parent_id);

		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY,
			dir_id INTEGER NOT NULL REFERENCES dirs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			size TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'none',
			set_id INTEGER REFERENCES sets(id) ON DELETE SET NULL,
			rom_id INTEGER REFERENCES roms(id) ON DELETE SET NULL,
			UNIQUE(dir_id, name)
		);
	`
	if _, err := tx.ExecContext(ctx, legacy); err != nil {
		return fmt.Errorf("create legacy tables: %w", err)
	}

	dedupe := `
		DELETE FROM files
		WHERE id NOT IN (
			SELECT MIN(id) FROM files GROUP BY dir_id, name
		);
	`
	if _, err := tx.ExecContext(ctx, dedupe); err != nil {
		return fmt.Errorf("dedupe files: %w", err)
	}

	matches := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY,
			dat_id INTEGER NOT NULL REFERENCES dats(id) ON DELETE CASCADE,
			file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			set_id INTEGER NOT NULL REFERENCES sets(id) ON DELETE CASCADE,
			rom_id INTEGER NOT NULL REFERENCES roms(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			UNIQUE(file_id, set_id, rom_id)
		);
		CREATE INDEX IF NOT EXISTS idx_matches_dat_id ON matches(dat_id);
		CREATE INDEX IF NOT EXISTS idx_matches_set_id ON matches(set_id);
		CREATE INDEX IF NOT EXISTS idx_matches_rom_id ON matches(rom_id);
		CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(dat_id, status);
	`
	if _, err := tx.ExecContext(ctx, matches); err != nil {
		return fmt.Errorf("create matches table: %w", err)
	}

	carryOver := `
		INSERT INTO matches (dat_id, file_id, set_id, rom_id, status)
		SELECT d.dat_id, f.id, f.set_id, f.rom_id, f.status
		FROM files f
		JOIN dirs d ON d.id = f.dir_id
		WHERE f.status != 'none' AND f.set_id IS NOT NULL AND f.rom_id IS NOT NULL;
	`
	if _, err := tx.ExecContext(ctx, carryOver); err != nil {
		return fmt.Errorf("carry over matches: %w", err)
	}

	replace := `
		CREATE TABLE files_new (
			id INTEGER PRIMARY KEY,
			dir_id INTEGER NOT NULL REFERENCES dirs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			size TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT '',
			UNIQUE(dir_id, name)
		);
		INSERT INTO files_new (id, dir_id, name, size, hash)
			SELECT id, dir_id, name, size, hash FROM files;
		DROP TABLE files;
		ALTER TABLE files_new RENAME TO files;
		CREATE INDEX IF NOT EXISTS idx_files_dir_id ON files(dir_id);
	`
	if _, err := tx.ExecContext(ctx, replace); err != nil {
		return fmt.Errorf("replace files table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("restore foreign keys: %w", err)
	}
	return nil
}
