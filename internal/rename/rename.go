// Package rename promotes hash-only matches to exact matches by renaming
// the file on disk to its rom's catalog name.
package rename

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ryanm101/romaudit/internal/store"
	"github.com/ryanm101/romaudit/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Renamed describes one file successfully renamed to its matched rom's name.
type Renamed struct {
	Dir     string
	OldName string
	NewName string
	Hash    string
}

// Renamer promotes a dat's hash-only matches to exact matches.
type Renamer struct {
	db *sql.DB
}

// New builds a Renamer over the given database connection.
func New(db *sql.DB) *Renamer {
	return &Renamer{db: db}
}

// Run walks every non-archive directory scanned under datID and, for each
// file whose content hash matched a rom by hash alone, renames the file on
// disk to the rom's catalog name and promotes its match to exact. Archive
// (.zip) directories are skipped outright — renaming an archive's internal
// entry isn't something the auditor does; the archive itself would need to
// be rebuilt, which is out of scope. A rename that fails on either the
// database side or the filesystem side rolls back that one file via a
// savepoint and the walk continues with the rest.
func (r *Renamer) Run(ctx context.Context, datID store.DatID) ([]Renamed, error) {
	ctx, span := tracing.StartSpan(ctx, "rename.Run", tracing.WithAttributes(attribute.Int64("rename.dat_id", int64(datID))))
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("rename: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	dirs, err := store.ListDirsByDat(ctx, tx, datID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var renamed []Renamed
	savepointSeq := 0
	for _, dir := range dirs {
		if strings.EqualFold(filepath.Ext(dir.Path), ".zip") {
			continue
		}

		files, err := store.GetFilesByDir(ctx, tx, dir.ID)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}

		for _, file := range files {
			// A file with more than one surviving hash-only candidate is
			// ambiguous — the catalog doesn't say which rom it actually is
			// — and is left alone, matching the reference auditor's
			// records.len() == 1 guard. Since a single resolution pass only
			// ever produces candidates of one status for a file, asking for
			// its hash-only candidates specifically is enough to also rule
			// out files resolved to some other status.
			hashMatches, err := store.GetMatchesByFileStatus(ctx, tx, file.ID, store.StatusHash)
			if err != nil {
				tracing.RecordError(span, err)
				return nil, err
			}
			if len(hashMatches) != 1 {
				continue
			}
			match := hashMatches[0]

			rom, err := store.GetRomByID(ctx, tx, match.RomID)
			if err != nil {
				tracing.RecordError(span, err)
				return nil, err
			}

			savepointSeq++
			result, err := r.renameOne(ctx, tx, dir.Path, file, match, rom, savepointSeq)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rename: failed to rename %s: %v\n", filepath.Join(dir.Path, file.Name), err)
				continue
			}
			renamed = append(renamed, result)
		}
	}

	if err := tx.Commit(); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("rename: commit: %w", err)
	}

	tracing.AddSpanAttributes(span, attribute.Int("rename.count", len(renamed)))
	tracing.SetSpanOK(span)
	return renamed, nil
}

func (r *Renamer) renameOne(ctx context.Context, tx *sql.Tx, dirPath string, file store.File, match store.Match, rom store.Rom, seq int) (Renamed, error) {
	sp, err := store.Begin(ctx, tx, "rename_"+strconv.Itoa(seq))
	if err != nil {
		return Renamed{}, err
	}

	oldPath := filepath.Join(dirPath, file.Name)
	newPath := filepath.Join(dirPath, rom.Name)

	if err := store.RelinkFile(ctx, sp, file.ID, file.DirID, rom.Name); err != nil {
		_ = sp.Rollback(ctx)
		return Renamed{}, err
	}
	if err := store.UpdateMatchStatus(ctx, sp, match.DatID, file.ID, store.StatusMatch, match.SetID, match.RomID); err != nil {
		_ = sp.Rollback(ctx)
		return Renamed{}, err
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		_ = sp.Rollback(ctx)
		return Renamed{}, fmt.Errorf("os.Rename %s -> %s: %w", oldPath, newPath, err)
	}

	if err := sp.Release(ctx); err != nil {
		return Renamed{}, err
	}

	return Renamed{Dir: dirPath, OldName: file.Name, NewName: rom.Name, Hash: file.Hash}, nil
}
