//go:build darwin

package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

func platformDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("datadir: resolve home directory: %w", err)
	}
	return filepath.Join(home, "Library", "Application Support"), nil
}
