package store

import (
	"context"
	"strconv"
)

// InsertFile creates a new file record under a directory.
func InsertFile(ctx context.Context, q querier, f File) (FileID, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO files (dir_id, name, size, hash) VALUES (?, ?, ?, ?)
	`, int64(f.DirID), f.Name, strconv.FormatUint(f.Size, 10), f.Hash)
	if err != nil {
		return 0, wrapDBError("insert", "file", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("insert", "file", err)
	}
	return FileID(id), nil
}

// GetFileByID fetches a single file by ID.
func GetFileByID(ctx context.Context, q querier, id FileID) (File, error) {
	return scanFile(q.QueryRowContext(ctx, `
		SELECT id, dir_id, name, size, hash FROM files WHERE id = ?
	`, int64(id)))
}

// FindFileByName looks up a file by its exact name within a directory.
func FindFileByName(ctx context.Context, q querier, dirID DirID, name string) (File, error) {
	return scanFile(q.QueryRowContext(ctx, `
		SELECT id, dir_id, name, size, hash FROM files WHERE dir_id = ? AND name = ?
	`, int64(dirID), name))
}

// GetFilesByDir returns every file directly contained in a directory.
func GetFilesByDir(ctx context.Context, q querier, dirID DirID) ([]File, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dir_id, name, size, hash FROM files WHERE dir_id = ? ORDER BY name
	`, int64(dirID))
	if err != nil {
		return nil, wrapDBError("list", "file", err)
	}
	defer func() { _ = rows.Close() }()

	var out []File
	for rows.Next() {
		var f File
		var size string
		if err := rows.Scan(&f.ID, &f.DirID, &f.Name, &size, &f.Hash); err != nil {
			return nil, wrapDBError("list", "file", err)
		}
		parsed, err := strconv.ParseUint(size, 10, 64)
		if err != nil {
			return nil, &Error{Op: "list", Entity: "file", Err: err}
		}
		f.Size = parsed
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFile overwrites a file's size/hash in place after a rescan.
func UpdateFile(ctx context.Context, q querier, f File) error {
	_, err := q.ExecContext(ctx, `
		UPDATE files SET size = ?, hash = ? WHERE id = ?
	`, strconv.FormatUint(f.Size, 10), f.Hash, int64(f.ID))
	if err != nil {
		return wrapDBError("update", "file", err)
	}
	return nil
}

// RelinkFile moves a file to a new directory and/or name, preserving its ID
// (and therefore its match history) — used by rename.
func RelinkFile(ctx context.Context, q querier, id FileID, dirID DirID, name string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE files SET dir_id = ?, name = ? WHERE id = ?
	`, int64(dirID), name, int64(id))
	if err != nil {
		return wrapDBError("relink", "file", err)
	}
	return nil
}

// DeleteFileByID removes a file, cascading to its match row if any.
func DeleteFileByID(ctx context.Context, q querier, id FileID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, int64(id))
	if err != nil {
		return wrapDBError("delete", "file", err)
	}
	return nil
}

func scanFile(row rowScanner) (File, error) {
	var f File
	var size string
	if err := row.Scan(&f.ID, &f.DirID, &f.Name, &size, &f.Hash); err != nil {
		return File{}, wrapDBError("get", "file", err)
	}
	parsed, err := strconv.ParseUint(size, 10, 64)
	if err != nil {
		return File{}, &Error{Op: "get", Entity: "file", Err: err}
	}
	f.Size = parsed
	return f, nil
}
