package scan_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romaudit/internal/scan"
	"github.com/ryanm101/romaudit/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedDat(t *testing.T, ctx context.Context, s *store.Store) store.Dat {
	t.Helper()
	tx, err := s.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)

	datID, err := store.InsertDat(ctx, tx, store.Dat{Name: "Test Dat", HashAlgo: "sha1"})
	require.NoError(t, err)
	setID, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: "Game A"})
	require.NoError(t, err)
	_, err = store.InsertRom(ctx, tx, store.Rom{
		DatID: datID, SetID: setID, Name: "rom.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)

	require.NoError(t, tx.Commit())
	return store.Dat{ID: datID, Name: "Test Dat"}
}

func TestScanMatchesLooseFile(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rom.bin"), []byte("hello world"), 0o644))

	sc := scan.New(s.Conn())
	res, err := sc.Scan(ctx, dat, dir, scan.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesScanned)

	d, err := store.GetDirByDatPath(ctx, s.Conn(), dat.ID, dir)
	require.NoError(t, err)
	f, err := store.FindFileByName(ctx, s.Conn(), d.ID, "rom.bin")
	require.NoError(t, err)

	matches, err := store.GetMatchesByFile(ctx, s.Conn(), f.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, store.StatusMatch, matches[0].Status)
}

func TestScanMatchesZipEntry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "Game A.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("rom.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	sc := scan.New(s.Conn())
	res, err := sc.Scan(ctx, dat, dir, scan.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesScanned)

	zipDir, err := store.GetDirByDatPath(ctx, s.Conn(), dat.ID, zipPath)
	require.NoError(t, err)
	stored, err := store.FindFileByName(ctx, s.Conn(), zipDir.ID, "rom.bin")
	require.NoError(t, err)

	matches, err := store.GetMatchesByFile(ctx, s.Conn(), stored.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, store.StatusMatch, matches[0].Status)
}

func TestScanRemovesStaleFileOnFullRescan(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	dir := t.TempDir()
	stalePath := filepath.Join(dir, "stale.bin")
	require.NoError(t, os.WriteFile(stalePath, []byte("gone soon"), 0o644))

	sc := scan.New(s.Conn())
	_, err := sc.Scan(ctx, dat, dir, scan.Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(stalePath))

	_, err = sc.Scan(ctx, dat, dir, scan.Options{})
	require.NoError(t, err)

	d, err := store.GetDirByDatPath(ctx, s.Conn(), dat.ID, dir)
	require.NoError(t, err)
	files, err := store.GetFilesByDir(ctx, s.Conn(), d.ID)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestScanIncrementalNonRecursiveKeepsKnownSubdir(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "rom.bin"), []byte("hello world"), 0o644))

	sc := scan.New(s.Conn())

	// First pass is recursive, recording both root and sub.
	_, err := sc.Scan(ctx, dat, root, scan.Options{Recursive: true})
	require.NoError(t, err)

	// Second pass is incremental and non-recursive: it never walks into
	// sub, but sub still exists on disk and must survive.
	_, err = sc.Scan(ctx, dat, root, scan.Options{Incremental: true, Recursive: false})
	require.NoError(t, err)

	_, err = store.GetDirByDatPath(ctx, s.Conn(), dat.ID, sub)
	require.NoError(t, err, "an on-disk subdirectory must not be deleted by an incremental non-recursive rescan")
}

func TestScanNonIncrementalNonRecursiveRemovesKnownSubdir(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "rom.bin"), []byte("hello world"), 0o644))

	sc := scan.New(s.Conn())

	_, err := sc.Scan(ctx, dat, root, scan.Options{Recursive: true})
	require.NoError(t, err)

	// A full (non-incremental) non-recursive rescan still doesn't walk
	// into sub, and per spec must remove it regardless of its presence on
	// disk: only incremental mode spares on-disk directories it didn't
	// visit.
	_, err = sc.Scan(ctx, dat, root, scan.Options{Recursive: false})
	require.NoError(t, err)

	_, err = store.GetDirByDatPath(ctx, s.Conn(), dat.ID, sub)
	require.True(t, store.IsNotFound(err))
}

func TestScanExcludesExtension(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dat := seedDat(t, ctx, s)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	sc := scan.New(s.Conn())
	res, err := sc.Scan(ctx, dat, dir, scan.Options{Exclude: []string{"txt"}})
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesScanned)
}
