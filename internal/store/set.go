package store

import "context"

// InsertSet creates a new set under a dat.
func InsertSet(ctx context.Context, q querier, s Set) (SetID, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO sets (dat_id, name) VALUES (?, ?)`, int64(s.DatID), s.Name)
	if err != nil {
		return 0, wrapDBError("insert", "set", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("insert", "set", err)
	}
	return SetID(id), nil
}

// GetSetByID fetches a single set by ID.
func GetSetByID(ctx context.Context, q querier, id SetID) (Set, error) {
	var s Set
	err := q.QueryRowContext(ctx, `SELECT id, dat_id, name FROM sets WHERE id = ?`, int64(id)).
		Scan(&s.ID, &s.DatID, &s.Name)
	if err != nil {
		return Set{}, wrapDBError("get", "set", err)
	}
	return s, nil
}

// FindSetByName looks up a set by its exact name within a dat.
func FindSetByName(ctx context.Context, q querier, datID DatID, name string) (Set, error) {
	var s Set
	err := q.QueryRowContext(ctx, `SELECT id, dat_id, name FROM sets WHERE dat_id = ? AND name = ?`,
		int64(datID), name).Scan(&s.ID, &s.DatID, &s.Name)
	if err != nil {
		return Set{}, wrapDBError("find", "set", err)
	}
	return s, nil
}

// ListSetsByDat returns every set belonging to a dat, optionally filtered to
// names containing the (case-insensitive) partial string.
func ListSetsByDat(ctx context.Context, q querier, datID DatID, partial string) ([]Set, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, name FROM sets
		WHERE dat_id = ? AND name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name
	`, int64(datID), partial)
	if err != nil {
		return nil, wrapDBError("list", "set", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Set
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.ID, &s.DatID, &s.Name); err != nil {
			return nil, wrapDBError("list", "set", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSetsByDat removes every set belonging to a dat (cascading to roms).
func DeleteSetsByDat(ctx context.Context, q querier, datID DatID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM sets WHERE dat_id = ?`, int64(datID))
	if err != nil {
		return wrapDBError("delete", "set", err)
	}
	return nil
}
