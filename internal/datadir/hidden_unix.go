//go:build !windows

package datadir

import (
	"os"
	"strings"
)

// IsHidden reports whether a directory entry should be skipped by a scan —
// on POSIX systems, anything whose name starts with a dot.
func IsHidden(path string, entry os.DirEntry) bool {
	return strings.HasPrefix(entry.Name(), ".")
}
