//go:build windows

package datadir

import (
	"os"
	"syscall"
)

// IsHidden reports whether a directory entry should be skipped by a scan —
// on Windows, anything carrying the FILE_ATTRIBUTE_HIDDEN bit.
func IsHidden(path string, entry os.DirEntry) bool {
	info, err := entry.Info()
	if err != nil {
		return false
	}
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	return attrs.FileAttributes&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
