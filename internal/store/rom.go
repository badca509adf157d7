package store

import (
	"context"
	"strconv"
)

// InsertRom creates a new rom entry under a set.
func InsertRom(ctx context.Context, q querier, r Rom) (RomID, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO roms (dat_id, set_id, name, size, hash) VALUES (?, ?, ?, ?, ?)
	`, int64(r.DatID), int64(r.SetID), r.Name, strconv.FormatUint(r.Size, 10), r.Hash)
	if err != nil {
		return 0, wrapDBError("insert", "rom", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapDBError("insert", "rom", err)
	}
	return RomID(id), nil
}

// GetRomByID fetches a single rom by ID.
func GetRomByID(ctx context.Context, q querier, id RomID) (Rom, error) {
	return scanRom(q.QueryRowContext(ctx, `
		SELECT id, dat_id, set_id, name, size, hash FROM roms WHERE id = ?
	`, int64(id)))
}

// ListRomsBySet returns every rom belonging to a set, in catalog order.
func ListRomsBySet(ctx context.Context, q querier, setID SetID) ([]Rom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, set_id, name, size, hash FROM roms WHERE set_id = ? ORDER BY id
	`, int64(setID))
	if err != nil {
		return nil, wrapDBError("list", "rom", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRoms(rows)
}

// FindRomsByName returns every rom in a dat whose name exactly matches, across
// all sets — the matcher's name-candidate lookup.
func FindRomsByName(ctx context.Context, q querier, datID DatID, name string) ([]Rom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, set_id, name, size, hash FROM roms WHERE dat_id = ? AND name = ?
	`, int64(datID), name)
	if err != nil {
		return nil, wrapDBError("find", "rom", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRoms(rows)
}

// FindRomsByHash returns every rom in a dat whose content hash matches — the
// matcher's hash-candidate lookup.
func FindRomsByHash(ctx context.Context, q querier, datID DatID, hash string) ([]Rom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, set_id, name, size, hash FROM roms WHERE dat_id = ? AND hash = ?
	`, int64(datID), hash)
	if err != nil {
		return nil, wrapDBError("find", "rom", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRoms(rows)
}

// ListRomsByName searches across every set in the dat for roms whose name
// contains the partial string, for the "roms" CLI listing.
func ListRomsByName(ctx context.Context, q querier, datID DatID, partial string) ([]Rom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, set_id, name, size, hash FROM roms
		WHERE dat_id = ? AND name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name
	`, int64(datID), partial)
	if err != nil {
		return nil, wrapDBError("list", "rom", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRoms(rows)
}

func scanRoms(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Rom, error) {
	var out []Rom
	for rows.Next() {
		var r Rom
		var size string
		if err := rows.Scan(&r.ID, &r.DatID, &r.SetID, &r.Name, &size, &r.Hash); err != nil {
			return nil, wrapDBError("scan", "rom", err)
		}
		parsed, err := strconv.ParseUint(size, 10, 64)
		if err != nil {
			return nil, &Error{Op: "scan", Entity: "rom", Err: err}
		}
		r.Size = parsed
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(...any) error
}

func scanRom(row rowScanner) (Rom, error) {
	var r Rom
	var size string
	if err := row.Scan(&r.ID, &r.DatID, &r.SetID, &r.Name, &size, &r.Hash); err != nil {
		return Rom{}, wrapDBError("get", "rom", err)
	}
	parsed, err := strconv.ParseUint(size, 10, 64)
	if err != nil {
		return Rom{}, &Error{Op: "get", Entity: "rom", Err: err}
	}
	r.Size = parsed
	return r, nil
}
