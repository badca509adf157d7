package rename_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romaudit/internal/rename"
	"github.com/ryanm101/romaudit/internal/store"
)

func TestRunPromotesHashMatchAndRenamesFile(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "wrongname.bin")
	require.NoError(t, os.WriteFile(oldPath, []byte("hello world"), 0o644))

	tx, err := s.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)
	datID, err := store.InsertDat(ctx, tx, store.Dat{Name: "Test Dat", HashAlgo: "sha1"})
	require.NoError(t, err)
	setID, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: "Game A"})
	require.NoError(t, err)
	romID, err := store.InsertRom(ctx, tx, store.Rom{
		DatID: datID, SetID: setID, Name: "rom.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)
	dirID, err := store.InsertDir(ctx, tx, store.Dir{DatID: datID, Path: dir})
	require.NoError(t, err)
	fileID, err := store.InsertFile(ctx, tx, store.File{
		DirID: dirID, Name: "wrongname.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateMatchStatus(ctx, tx, datID, fileID, store.StatusHash, setID, romID))
	require.NoError(t, tx.Commit())

	r := rename.New(s.Conn())
	renamed, err := r.Run(ctx, datID)
	require.NoError(t, err)
	require.Len(t, renamed, 1)
	require.Equal(t, "wrongname.bin", renamed[0].OldName)
	require.Equal(t, "rom.bin", renamed[0].NewName)

	_, err = os.Stat(oldPath)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "rom.bin"))
	require.NoError(t, err)

	f, err := store.FindFileByName(ctx, s.Conn(), dirID, "rom.bin")
	require.NoError(t, err)
	matches, err := store.GetMatchesByFile(ctx, s.Conn(), f.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, store.StatusMatch, matches[0].Status)
}

func TestRunSkipsAmbiguousHashMatch(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "wrongname.bin")
	require.NoError(t, os.WriteFile(oldPath, []byte("hello world"), 0o644))

	tx, err := s.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)
	datID, err := store.InsertDat(ctx, tx, store.Dat{Name: "Test Dat", HashAlgo: "sha1"})
	require.NoError(t, err)
	setA, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: "Game A"})
	require.NoError(t, err)
	setB, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: "Game B"})
	require.NoError(t, err)
	romA, err := store.InsertRom(ctx, tx, store.Rom{
		DatID: datID, SetID: setA, Name: "rom.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)
	romB, err := store.InsertRom(ctx, tx, store.Rom{
		DatID: datID, SetID: setB, Name: "other.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)
	dirID, err := store.InsertDir(ctx, tx, store.Dir{DatID: datID, Path: dir})
	require.NoError(t, err)
	fileID, err := store.InsertFile(ctx, tx, store.File{
		DirID: dirID, Name: "wrongname.bin", Size: 11,
		Hash: "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
	})
	require.NoError(t, err)
	// Two roms share this file's hash: an ambiguous hash-only match that
	// must not be auto-renamed.
	require.NoError(t, store.ReplaceFileMatches(ctx, tx, datID, fileID, store.StatusHash, []store.MatchCandidate{
		{SetID: setA, RomID: romA},
		{SetID: setB, RomID: romB},
	}))
	require.NoError(t, tx.Commit())

	r := rename.New(s.Conn())
	renamed, err := r.Run(ctx, datID)
	require.NoError(t, err)
	require.Empty(t, renamed)

	_, err = os.Stat(oldPath)
	require.NoError(t, err, "an ambiguous hash match must not be renamed on disk")
}

func TestRunSkipsZipDirectories(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tx, err := s.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)
	datID, err := store.InsertDat(ctx, tx, store.Dat{Name: "Test Dat", HashAlgo: "sha1"})
	require.NoError(t, err)
	setID, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: "Game A"})
	require.NoError(t, err)
	romID, err := store.InsertRom(ctx, tx, store.Rom{DatID: datID, SetID: setID, Name: "rom.bin", Size: 11, Hash: "hash"})
	require.NoError(t, err)
	dirID, err := store.InsertDir(ctx, tx, store.Dir{DatID: datID, Path: "/collection/Game A.zip"})
	require.NoError(t, err)
	fileID, err := store.InsertFile(ctx, tx, store.File{DirID: dirID, Name: "wrongname.bin", Size: 11, Hash: "hash"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateMatchStatus(ctx, tx, datID, fileID, store.StatusHash, setID, romID))
	require.NoError(t, tx.Commit())

	r := rename.New(s.Conn())
	renamed, err := r.Run(ctx, datID)
	require.NoError(t, err)
	require.Empty(t, renamed)
}
