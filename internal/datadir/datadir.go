// Package datadir resolves the auditor's per-OS data directory and
// classifies hidden filesystem entries, so a scan skips dotfiles and
// platform junk the way the original tool did.
package datadir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Resolve returns the auditor's data directory (where the default store
// file lives), creating it if necessary.
func Resolve() (string, error) {
	base, err := platformDataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "romaudit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("datadir: create %s: %w", dir, err)
	}
	return dir, nil
}

// Backup opportunistically copies the store file at path to path+".bak"
// before it's opened for a mutating session, so a corrupted write leaves a
// recoverable prior copy. A missing source file is not an error — there is
// nothing to back up yet.
func Backup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("datadir: open %s for backup: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(path + ".bak")
	if err != nil {
		return fmt.Errorf("datadir: create backup of %s: %w", path, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("datadir: copy backup of %s: %w", path, err)
	}
	return nil
}
