//go:build linux

package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

// platformDataDir uses $XDG_CONFIG_HOME, or ~/.local/share when unset.
func platformDataDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		abs, err := filepath.Abs(xdg)
		if err == nil {
			return abs, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("datadir: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}
