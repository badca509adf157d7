package store

import (
	"context"
)

// InsertDat creates a new catalog record and returns its assigned ID.
func InsertDat(ctx context.Context, q querier, d Dat) (DatID, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO dats (name, description, version, author, hash_algo)
		VALUES (?, ?, ?, ?, ?)
	`, d.Name, d.Description, d.Version, d.Author, d.HashAlgo)
	if err != nil {
		return 0, wrapDBError("insert", "dat", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("insert", "dat", err)
	}
	return DatID(id), nil
}

// GetDatByID fetches a single catalog by ID.
func GetDatByID(ctx context.Context, q querier, id DatID) (Dat, error) {
	var d Dat
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, version, author, hash_algo FROM dats WHERE id = ?
	`, int64(id)).Scan(&d.ID, &d.Name, &d.Description, &d.Version, &d.Author, &d.HashAlgo)
	if err != nil {
		return Dat{}, wrapDBError("get", "dat", err)
	}
	return d, nil
}

// FindDatByName looks up a catalog by its exact header name.
func FindDatByName(ctx context.Context, q querier, name string) (Dat, error) {
	var d Dat
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, version, author, hash_algo FROM dats WHERE name = ?
	`, name).Scan(&d.ID, &d.Name, &d.Description, &d.Version, &d.Author, &d.HashAlgo)
	if err != nil {
		return Dat{}, wrapDBError("find", "dat", err)
	}
	return d, nil
}

// ListDats returns every imported catalog, ordered by name.
func ListDats(ctx context.Context, q querier) ([]Dat, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, description, version, author, hash_algo FROM dats ORDER BY name
	`)
	if err != nil {
		return nil, wrapDBError("list", "dat", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dat
	for rows.Next() {
		var d Dat
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Version, &d.Author, &d.HashAlgo); err != nil {
			return nil, wrapDBError("list", "dat", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDat overwrites a catalog's header fields in place, preserving its ID
// (and therefore every set/rom/dir/file/match row that references it).
func UpdateDat(ctx context.Context, q querier, d Dat) error {
	_, err := q.ExecContext(ctx, `
		UPDATE dats SET name = ?, description = ?, version = ?, author = ?, hash_algo = ?
		WHERE id = ?
	`, d.Name, d.Description, d.Version, d.Author, d.HashAlgo, int64(d.ID))
	if err != nil {
		return wrapDBError("update", "dat", err)
	}
	return nil
}

// DeleteDatByID removes a catalog and cascades to its sets, roms, dirs,
// files and matches.
func DeleteDatByID(ctx context.Context, q querier, id DatID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM dats WHERE id = ?`, int64(id))
	if err != nil {
		return wrapDBError("delete", "dat", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("delete", "dat", err)
	}
	if n == 0 {
		return &Error{Op: "delete", Entity: "dat", Err: ErrNotFound}
	}
	return nil
}
