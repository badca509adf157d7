package hashing_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romaudit/internal/hashing"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rom.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	size, hash, err := hashing.File(path)
	require.NoError(t, err)
	require.Equal(t, uint64(11), size)
	require.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", hash)
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("rom.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)

	_, err = zw.Create("sub/")
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, err := hashing.Archive(zipPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "rom.bin", entries[0].Name)
	require.Equal(t, uint64(11), entries[0].Size)
	require.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", entries[0].Hash)
}
