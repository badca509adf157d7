package store

import "context"

// GetMatchesByFile returns every match candidate recorded for a file. A file
// with no rows is unmatched (StatusNone); a file can have more than one row
// when the catalog contains several roms that equally satisfy the same
// classification (shared hash across sets, or clones sharing a rom name).
func GetMatchesByFile(ctx context.Context, q querier, fileID FileID) ([]Match, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, file_id, set_id, rom_id, status FROM matches WHERE file_id = ?
	`, int64(fileID))
	if err != nil {
		return nil, wrapDBError("list", "match", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMatches(rows)
}

// GetMatchesByFileStatus returns a file's match candidates restricted to the
// given status. Since a single resolution pass only ever produces candidates
// of one status for a file, this is how callers like the renamer check
// whether a file has exactly one hash-only candidate without also pulling
// candidates of other statuses.
func GetMatchesByFileStatus(ctx context.Context, q querier, fileID FileID, status MatchStatus) ([]Match, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, file_id, set_id, rom_id, status FROM matches
		WHERE file_id = ? AND status = ?
	`, int64(fileID), string(status))
	if err != nil {
		return nil, wrapDBError("list", "match", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMatches(rows)
}

// GetMatchesByStatus returns every match in a dat with the given status.
// StatusNone is not queryable this way since unmatched files have no row;
// callers needing unmatched files should anti-join files against matches.
func GetMatchesByStatus(ctx context.Context, q querier, datID DatID, status MatchStatus) ([]Match, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dat_id, file_id, set_id, rom_id, status FROM matches
		WHERE dat_id = ? AND status = ?
	`, int64(datID), string(status))
	if err != nil {
		return nil, wrapDBError("list", "match", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMatches(rows)
}

func scanMatches(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Match, error) {
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.DatID, &m.FileID, &m.SetID, &m.RomID, &m.Status); err != nil {
			return nil, wrapDBError("list", "match", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MatchCandidate is one (set, rom) pair a file resolved against, used by
// ReplaceFileMatches to persist every surviving candidate from a single
// resolution pass.
type MatchCandidate struct {
	SetID SetID
	RomID RomID
}

// ReplaceFileMatches replaces every match row for a file with the given set
// of candidates, all sharing status. Passing StatusNone or an empty
// candidate list leaves the file with no rows at all (unmatched). The
// replace happens as delete-then-insert-all so a file's candidate set is
// always exactly what the latest resolution pass produced, never a stale
// mix of an old and new classification.
func ReplaceFileMatches(ctx context.Context, q querier, datID DatID, fileID FileID, status MatchStatus, candidates []MatchCandidate) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM matches WHERE file_id = ?`, int64(fileID)); err != nil {
		return wrapDBError("update", "match", err)
	}
	if status == StatusNone || len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		_, err := q.ExecContext(ctx, `
			INSERT INTO matches (dat_id, file_id, set_id, rom_id, status)
			VALUES (?, ?, ?, ?, ?)
		`, int64(datID), int64(fileID), int64(c.SetID), int64(c.RomID), string(status))
		if err != nil {
			return wrapDBError("update", "match", err)
		}
	}
	return nil
}

// UpdateMatchStatus sets a single resolved (set, rom) candidate as a file's
// only match, replacing whatever was there before. It is the renamer's way
// of promoting a file from hash-only to an exact match once the rename that
// confirms it succeeds.
func UpdateMatchStatus(ctx context.Context, q querier, datID DatID, fileID FileID, status MatchStatus, setID SetID, romID RomID) error {
	return ReplaceFileMatches(ctx, q, datID, fileID, status, []MatchCandidate{{SetID: setID, RomID: romID}})
}

// DeleteMatchByFile removes every match row for a file, if any.
func DeleteMatchByFile(ctx context.Context, q querier, fileID FileID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM matches WHERE file_id = ?`, int64(fileID))
	if err != nil {
		return wrapDBError("delete", "match", err)
	}
	return nil
}
