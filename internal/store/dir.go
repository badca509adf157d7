package store

import "context"

// InsertDir creates a new directory (or archive-synthesized directory)
// record under a dat.
func InsertDir(ctx context.Context, q querier, d Dir) (DirID, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO dirs (dat_id, path, parent_id) VALUES (?, ?, NULLIF(?, 0))
	`, int64(d.DatID), d.Path, int64(d.ParentID))
	if err != nil {
		return 0, wrapDBError("insert", "dir", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("insert", "dir", err)
	}
	return DirID(id), nil
}

// GetDirByID fetches a single directory by ID.
func GetDirByID(ctx context.Context, q querier, id DirID) (Dir, error) {
	return scanDir(q.QueryRowContext(ctx, `
		SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE id = ?
	`, int64(id)))
}

// GetDirByDatPath looks up a directory by its dat and canonical path.
func GetDirByDatPath(ctx context.Context, q querier, datID DatID, path string) (Dir, error) {
	return scanDir(q.QueryRowContext(ctx, `
		SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE dat_id = ? AND path = ?
	`, int64(datID), path))
}

// GetChildDirs returns the immediate child directories of parent (NoDir for
// a dat's scan roots).
func GetChildDirs(ctx context.Context, q querier, datID DatID, parent DirID) ([]Dir, error) {
	var rows interface {
		Next() bool
		Scan(...any) error
		Err() error
		Close() error
	}
	var err error
	if parent == NoDir {
		rows, err = q.QueryContext(ctx, `
			SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE dat_id = ? AND parent_id IS NULL
		`, int64(datID))
	} else {
		rows, err = q.QueryContext(ctx, `
			SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE dat_id = ? AND parent_id = ?
		`, int64(datID), int64(parent))
	}
	if err != nil {
		return nil, wrapDBError("list", "dir", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dir
	for rows.Next() {
		var d Dir
		if err := rows.Scan(&d.ID, &d.DatID, &d.Path, &d.ParentID); err != nil {
			return nil, wrapDBError("list", "dir", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// FindDirByAnyDatPath looks up a directory by its filesystem path without
// restricting to a particular dat — used to auto-select a dat based on the
// working directory a session starts in.
func FindDirByAnyDatPath(ctx context.Context, q querier, path string) (Dir, error) {
	return scanDir(q.QueryRowContext(ctx, `
		SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE path = ? LIMIT 1
	`, path))
}

// ListDirsByDat returns every directory belonging to a dat, regardless of
// nesting — the renamer's view, which doesn't care about tree structure.
func ListDirsByDat(ctx context.Context, q querier, datID DatID) ([]Dir, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, path, COALESCE(parent_id, 0) FROM dirs WHERE dat_id = ?
	`, int64(datID))
	if err != nil {
		return nil, wrapDBError("list", "dir", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dir
	for rows.Next() {
		var d Dir
		if err := rows.Scan(&d.ID, &d.DatID, &d.Path, &d.ParentID); err != nil {
			return nil, wrapDBError("list", "dir", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RelinkDir reassigns a directory to a new parent and/or path, used when a
// directory is renamed or moved but its identity (and contained files'
// match history) should be preserved.
func RelinkDir(ctx context.Context, q querier, id DirID, newPath string, newParent DirID) error {
	_, err := q.ExecContext(ctx, `
		UPDATE dirs SET path = ?, parent_id = NULLIF(?, 0) WHERE id = ?
	`, newPath, int64(newParent), int64(id))
	if err != nil {
		return wrapDBError("relink", "dir", err)
	}
	return nil
}

// DeleteDirByID removes a directory, cascading to its files, matches, and
// any child directories.
func DeleteDirByID(ctx context.Context, q querier, id DirID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM dirs WHERE id = ?`, int64(id))
	if err != nil {
		return wrapDBError("delete", "dir", err)
	}
	return nil
}

func scanDir(row rowScanner) (Dir, error) {
	var d Dir
	if err := row.Scan(&d.ID, &d.DatID, &d.Path, &d.ParentID); err != nil {
		return Dir{}, wrapDBError("get", "dir", err)
	}
	return d, nil
}
