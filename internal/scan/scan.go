// Package scan walks a filesystem tree (and the zip archives within it),
// hashing files and resolving them against a catalog's roms.
package scan

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/romaudit/internal/datadir"
	"github.com/ryanm101/romaudit/internal/hashing"
	"github.com/ryanm101/romaudit/internal/match"
	"github.com/ryanm101/romaudit/internal/metrics"
	"github.com/ryanm101/romaudit/internal/store"
	"github.com/ryanm101/romaudit/internal/tracing"
)

// Options configures one scan pass.
type Options struct {
	// Exclude lists file extensions (without the leading dot, case
	// insensitive) to skip entirely.
	Exclude []string
	// Recursive descends into subdirectories.
	Recursive bool
	// Incremental skips files already known from a prior scan of the same
	// directory instead of rehashing them; zip archives already recorded
	// are skipped outright. Non-incremental (full) scans wipe and redo a
	// directory's or archive's file records from scratch.
	Incremental bool
	// Progress, if set, is called after every file or zip archive
	// processed; directories and hidden or excluded entries do not
	// trigger it.
	Progress func(Progress)
}

// Progress reports scan progress for a UI to render.
type Progress struct {
	FilesScanned int
	CurrentPath  string
}

func (o Options) excludes(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, e := range o.Exclude {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Result summarizes a completed scan.
type Result struct {
	FilesScanned int
}

// Scanner hashes and reconciles files against one catalog's roms.
type Scanner struct {
	db *sql.DB
}

// New builds a Scanner over the given database connection.
func New(db *sql.DB) *Scanner {
	return &Scanner{db: db}
}

// Scan walks root (which must already be an absolute, canonical path)
// against dat's catalog, recording every directory, file and match in a
// single outer transaction. A failing zip archive rolls back only its own
// work via a savepoint; the rest of the walk proceeds.
func (s *Scanner) Scan(ctx context.Context, dat store.Dat, root string, opts Options) (Result, error) {
	defer metrics.RecordScanDuration(dat.Name, time.Now())

	ctx, span := tracing.StartSpan(ctx, "scan.Scan",
		tracing.WithAttributes(
			attribute.String("scan.dat", dat.Name),
			attribute.String("scan.root", root),
			attribute.Bool("scan.recursive", opts.Recursive),
			attribute.Bool("scan.incremental", opts.Incremental),
		))
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return Result{}, fmt.Errorf("scan: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count := 0
	if err := s.scanDirectory(ctx, tx, dat.ID, root, opts, store.NoDir, &count); err != nil {
		tracing.RecordError(span, err)
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		tracing.RecordError(span, err)
		return Result{}, fmt.Errorf("scan: commit: %w", err)
	}

	tracing.AddSpanAttributes(span, attribute.Int("scan.files", count))
	tracing.SetSpanOK(span)
	return Result{FilesScanned: count}, nil
}

func (s *Scanner) scanDirectory(ctx context.Context, tx *sql.Tx, datID store.DatID, path string, opts Options, parent store.DirID, count *int) error {
	dirID, incremental, err := resolveDir(ctx, tx, datID, path, parent, opts.Incremental)
	if err != nil {
		return err
	}

	existingDirs, err := store.GetChildDirs(ctx, tx, datID, dirID)
	if err != nil {
		return err
	}
	pendingPaths := make(map[string]store.DirID, len(existingDirs))
	for _, d := range existingDirs {
		pendingPaths[d.Path] = d.ID
	}

	existingFiles, err := store.GetFilesByDir(ctx, tx, dirID)
	if err != nil {
		return err
	}
	pendingNames := make(map[string]struct{}, len(existingFiles))
	for _, f := range existingFiles {
		pendingNames[f.Name] = struct{}{}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("scan: read dir %s: %w", path, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())
		if datadir.IsHidden(entryPath, entry) {
			continue
		}

		if entry.IsDir() {
			if opts.Recursive {
				if err := s.scanDirectory(ctx, tx, datID, entryPath, opts, dirID, count); err != nil {
					return err
				}
				delete(pendingPaths, entryPath)
			}
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if opts.excludes(ext) {
			continue
		}

		if strings.EqualFold(ext, "zip") {
			n, err := s.scanZipArchiveSafely(ctx, tx, datID, entryPath, dirID, opts.Incremental)
			if err != nil {
				fmt.Fprintf(os.Stderr, "scan: failed to scan %s: %v\n", entryPath, err)
			} else {
				*count += n
				delete(pendingPaths, entryPath)
			}
		} else {
			*count++
			name := entry.Name()
			_, known := pendingNames[name]
			delete(pendingNames, name)
			if known && incremental {
				// already scanned, and this is an incremental pass
			} else if err := s.scanFile(ctx, tx, datID, dirID, entryPath, name); err != nil {
				fmt.Fprintf(os.Stderr, "scan: failed to scan %s: %v\n", entryPath, err)
			}
		}

		if opts.Progress != nil {
			opts.Progress(Progress{FilesScanned: *count, CurrentPath: entryPath})
		}
	}

	for stalePath, staleID := range pendingPaths {
		if opts.Incremental && pathExists(stalePath) {
			// Incremental passes only reconcile what they actually walk;
			// an on-disk directory this pass never entered (a non-recursive
			// rescan skipping a subdirectory recorded by an earlier
			// recursive one, for instance) is left alone rather than wiped.
			continue
		}
		if err := store.DeleteDirByID(ctx, tx, staleID); err != nil {
			fmt.Fprintf(os.Stderr, "scan: failed to remove stale directory %s: %v\n", stalePath, err)
		}
	}
	for staleName := range pendingNames {
		f, err := store.FindFileByName(ctx, tx, dirID, staleName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: failed to look up stale file %s: %v\n", staleName, err)
			continue
		}
		if err := store.DeleteFileByID(ctx, tx, f.ID); err != nil {
			fmt.Fprintf(os.Stderr, "scan: failed to remove stale file %s: %v\n", staleName, err)
		}
	}

	return nil
}

// pathExists reports whether path is still present on disk, regardless of
// whether it names a directory or a file (a zip archive's stale dirs row is
// keyed by the archive's own path).
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolveDir finds or creates the dirs row for path, and reports whether
// this pass should treat the directory's files incrementally. A full
// (non-incremental) rescan of a directory that already exists wipes its
// previously recorded files up front.
func resolveDir(ctx context.Context, tx *sql.Tx, datID store.DatID, path string, parent store.DirID, incremental bool) (store.DirID, bool, error) {
	existing, err := store.GetDirByDatPath(ctx, tx, datID, path)
	switch {
	case err == nil:
		if incremental {
			return existing.ID, true, nil
		}
		files, err := store.GetFilesByDir(ctx, tx, existing.ID)
		if err != nil {
			return 0, false, err
		}
		for _, f := range files {
			if err := store.DeleteFileByID(ctx, tx, f.ID); err != nil {
				return 0, false, err
			}
		}
		return existing.ID, false, nil
	case store.IsNotFound(err):
		dirID, err := store.InsertDir(ctx, tx, store.Dir{DatID: datID, Path: path, ParentID: parent})
		if err != nil {
			return 0, false, err
		}
		return dirID, false, nil
	default:
		return 0, false, err
	}
}

func (s *Scanner) scanFile(ctx context.Context, tx *sql.Tx, datID store.DatID, dirID store.DirID, path, name string) error {
	size, hash, err := hashing.File(path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	return insertMatchedFile(ctx, tx, datID, dirID, name, size, hash, nil)
}

// scanZipArchiveSafely wraps archive scanning in its own savepoint: a
// corrupt or unreadable zip rolls back only that archive's work, leaving
// the rest of the directory walk's outer transaction intact.
func (s *Scanner) scanZipArchiveSafely(ctx context.Context, tx *sql.Tx, datID store.DatID, path string, parent store.DirID, incremental bool) (int, error) {
	sp, err := store.Begin(ctx, tx, "zip_scan")
	if err != nil {
		return 0, err
	}
	n, err := s.scanZipArchive(ctx, sp, datID, path, parent, incremental)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return 0, fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return 0, err
	}
	if err := sp.Release(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Scanner) scanZipArchive(ctx context.Context, sp *store.Savepoint, datID store.DatID, path string, parent store.DirID, incremental bool) (int, error) {
	existing, err := store.GetDirByDatPath(ctx, sp, datID, path)
	switch {
	case err == nil:
		if incremental {
			return 0, nil
		}
		files, err := store.GetFilesByDir(ctx, sp, existing.ID)
		if err != nil {
			return 0, err
		}
		for _, f := range files {
			if err := store.DeleteFileByID(ctx, sp, f.ID); err != nil {
				return 0, err
			}
		}
	case store.IsNotFound(err):
		existing.ID, err = store.InsertDir(ctx, sp, store.Dir{DatID: datID, Path: path, ParentID: parent})
		if err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	matchedSets, err := matchSets(ctx, sp, datID, path)
	if err != nil {
		return 0, err
	}

	entries, err := hashing.Archive(path)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if err := insertMatchedFile(ctx, sp, datID, existing.ID, entry.Name, entry.Size, entry.Hash, matchedSets); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// matchSets returns the set IDs whose name exactly equals the archive's
// file stem (the archive's own name, minus extension) — the only sets an
// entry inside it is allowed to match by name.
func matchSets(ctx context.Context, q store.Querier, datID store.DatID, zipPath string) (map[store.SetID]struct{}, error) {
	stem := strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
	sets, err := store.ListSetsByDat(ctx, q, datID, stem)
	if err != nil {
		return nil, err
	}
	var matched map[store.SetID]struct{}
	for _, set := range sets {
		if set.Name != stem {
			continue
		}
		if matched == nil {
			matched = map[store.SetID]struct{}{}
		}
		matched[set.ID] = struct{}{}
	}
	return matched, nil
}

// insertMatchedFile is the common tail of scanning a loose file or a zip
// entry: resolve its match, store the file, and record the match if any.
func insertMatchedFile(ctx context.Context, q store.Querier, datID store.DatID, dirID store.DirID, name string, size uint64, hash string, matchedSets map[store.SetID]struct{}) error {
	fileID, err := store.InsertFile(ctx, q, store.File{DirID: dirID, Name: name, Size: size, Hash: hash})
	if err != nil {
		return fmt.Errorf("insert file %s: %w", name, err)
	}

	results, err := match.Resolve(ctx, q, datID, size, name, hash, matchedSets)
	if err != nil {
		return fmt.Errorf("resolve match for %s: %w", name, err)
	}
	if len(results) == 0 {
		return nil
	}
	candidates := make([]store.MatchCandidate, len(results))
	for i, r := range results {
		candidates[i] = store.MatchCandidate{SetID: r.SetID, RomID: r.RomID}
	}
	return store.ReplaceFileMatches(ctx, q, datID, fileID, results[0].Status, candidates)
}
